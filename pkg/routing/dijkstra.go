package routing

import (
	"context"
	"math"
)

// MinHeap is a concrete-typed min-heap for the Dijkstra frontier.
// Avoids interface boxing overhead of container/heap. Entries with equal
// Dist pop in insertion order.
type MinHeap struct {
	items []PQItem
	seq   uint64
}

// PQItem is a priority queue entry.
type PQItem struct {
	Node uint32
	Dist int
	seq  uint64
}

func (h *MinHeap) Len() int { return len(h.items) }

func (h *MinHeap) Push(node uint32, dist int) {
	h.items = append(h.items, PQItem{Node: node, Dist: dist, seq: h.seq})
	h.seq++
	h.siftUp(len(h.items) - 1)
}

func (h *MinHeap) Pop() PQItem {
	n := len(h.items)
	item := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0)
	}
	return item
}

func (h *MinHeap) Reset() {
	h.items = h.items[:0]
	h.seq = 0
}

func (h *MinHeap) less(i, j int) bool {
	if h.items[i].Dist != h.items[j].Dist {
		return h.items[i].Dist < h.items[j].Dist
	}
	return h.items[i].seq < h.items[j].seq
}

func (h *MinHeap) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(i, parent) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *MinHeap) siftDown(i int) {
	n := len(h.items)
	for {
		smallest := i
		left := 2*i + 1
		right := 2*i + 2
		if left < n && h.less(left, smallest) {
			smallest = left
		}
		if right < n && h.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			break
		}
		h.items[i], h.items[smallest] = h.items[smallest], h.items[i]
		i = smallest
	}
}

// QueryState holds per-query Dijkstra state. Each search owns one
// exclusively; states are recycled through Finder's pool.
type QueryState struct {
	Dist    []int
	Pred    []uint32 // predecessor station (noNode = none)
	PredE   []int32  // index into Adj[Pred[v]] of the edge used to reach v
	Touched []uint32 // nodes touched during this query (for fast reset)
	PQ      MinHeap
}

const noNode = math.MaxUint32

// NewQueryState creates a new QueryState for a graph with n stations.
func NewQueryState(n uint32) *QueryState {
	dist := make([]int, n)
	pred := make([]uint32, n)
	predE := make([]int32, n)
	for i := range dist {
		dist[i] = math.MaxInt
		pred[i] = noNode
		predE[i] = -1
	}
	return &QueryState{
		Dist:    dist,
		Pred:    pred,
		PredE:   predE,
		Touched: make([]uint32, 0, 1024),
		PQ:      MinHeap{items: make([]PQItem, 0, 256)},
	}
}

// Reset clears only the touched entries for fast reuse.
func (qs *QueryState) Reset() {
	for _, node := range qs.Touched {
		qs.Dist[node] = math.MaxInt
		qs.Pred[node] = noNode
		qs.PredE[node] = -1
	}
	qs.Touched = qs.Touched[:0]
	qs.PQ.Reset()
}

func (qs *QueryState) touch(node uint32, dist int, pred uint32, edge int32) {
	if qs.Dist[node] == math.MaxInt {
		qs.Touched = append(qs.Touched, node)
	}
	qs.Dist[node] = dist
	qs.Pred[node] = pred
	qs.PredE[node] = edge
}

// runDijkstra settles nodes from source until target is popped. allowed
// reports whether the edge Adj[u][i] may be relaxed. It returns the target
// distance, or math.MaxInt when target is unreachable.
func (f *Finder) runDijkstra(ctx context.Context, qs *QueryState, source, target uint32, allowed func(u uint32, i int) bool) (int, error) {
	qs.touch(source, 0, noNode, -1)
	qs.PQ.Push(source, 0)

	iterations := 0
	for qs.PQ.Len() > 0 {
		// Check context cancellation periodically.
		iterations++
		if iterations%100 == 0 {
			if err := ctx.Err(); err != nil {
				return math.MaxInt, err
			}
		}

		item := qs.PQ.Pop()
		u := item.Node
		d := item.Dist
		if d > qs.Dist[u] {
			continue // stale entry
		}
		if u == target {
			return d, nil
		}

		for i, e := range f.g.Adj[u] {
			if !allowed(u, i) {
				continue
			}
			newDist := d + e.Duration
			if newDist < qs.Dist[e.To] {
				qs.touch(e.To, newDist, u, int32(i))
				qs.PQ.Push(e.To, newDist)
			}
		}
	}

	return math.MaxInt, nil
}
