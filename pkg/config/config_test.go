package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noEnv(string) string { return "" }

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("", noEnv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Routing.MaxRoutes != 5 {
		t.Errorf("MaxRoutes = %d, want 5", cfg.Routing.MaxRoutes)
	}
	if !cfg.Routing.AllowShinkansen || !cfg.Routing.AllowLimitedExpress {
		t.Error("train categories should default to allowed")
	}
}

func TestLoadYAMLKeepsUnsetDefaults(t *testing.T) {
	path := writeFile(t, "config.yml", `
server:
  addr: ":9000"
  request_timeout: 2s
  cors_origins: ["http://localhost:5173"]
dataset:
  path: /data/japan.db
routing:
  max_routes: 3
  allow_shinkansen: false
  cache_ttl: 1m
log:
  format: json
`)
	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.RequestTimeout != 2*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want default 10s", cfg.Server.ReadTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 1 {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Dataset.Path != "/data/japan.db" {
		t.Errorf("Dataset.Path = %q", cfg.Dataset.Path)
	}
	if cfg.Routing.MaxRoutes != 3 || cfg.Routing.AllowShinkansen || !cfg.Routing.AllowLimitedExpress {
		t.Errorf("routing = %+v", cfg.Routing)
	}
	if cfg.Routing.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v, want 1m", cfg.Routing.CacheTTL)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "info" {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yml", "server:\n  addr: \":9000\"\n")
	env := map[string]string{
		"RAIL_ROUTER_ADDR":                  ":7000",
		"RAIL_ROUTER_MAX_ROUTES":            "8",
		"RAIL_ROUTER_CACHE_TTL":             "0s",
		"RAIL_ROUTER_ALLOW_LIMITED_EXPRESS": "false",
		"RAIL_ROUTER_CORS_ORIGINS":          "https://a.example, https://b.example,",
		"RAIL_ROUTER_LOG_LEVEL":             "debug",
	}
	cfg, err := load(path, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Addr = %q, want :7000", cfg.Server.Addr)
	}
	if cfg.Routing.MaxRoutes != 8 || cfg.Routing.CacheTTL != 0 || cfg.Routing.AllowLimitedExpress {
		t.Errorf("routing = %+v", cfg.Routing)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad yaml", yaml: "server: [\n"},
		{name: "zero max routes", yaml: "routing:\n  max_routes: 0\n"},
		{name: "unknown log format", yaml: "log:\n  format: xml\n"},
		{name: "empty dataset path", yaml: "dataset:\n  path: \"\"\n"},
		{name: "bad env int", env: map[string]string{"RAIL_ROUTER_MAX_ROUTES": "many"}},
		{name: "bad env duration", env: map[string]string{"RAIL_ROUTER_CACHE_TTL": "soon"}},
		{name: "bad env bool", env: map[string]string{"RAIL_ROUTER_ALLOW_SHINKANSEN": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "config.yml", tt.yaml)
			}
			if _, err := load(path, func(k string) string { return tt.env[k] }); err == nil {
				t.Error("want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := load(filepath.Join(t.TempDir(), "absent.yml"), noEnv); err == nil {
		t.Error("want error for missing config file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	envPath := writeFile(t, ".env", "RAIL_ROUTER_DATASET=/srv/network.json\n")
	t.Setenv("RAIL_ROUTER_DATASET", "")
	os.Unsetenv("RAIL_ROUTER_DATASET")

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"), envPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset.Path != "/srv/network.json" {
		t.Errorf("Dataset.Path = %q, want /srv/network.json", cfg.Dataset.Path)
	}
}
