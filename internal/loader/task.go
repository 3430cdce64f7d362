package loader

import (
	"time"

	"tilemap/internal/geo"
)

// Priority orders tile load tasks. Higher values load first.
type Priority int

const (
	// PriorityBackground is for tiles kept warm with no urgency.
	PriorityBackground Priority = 1
	// PriorityPrefetch is for tiles predicted to become visible.
	PriorityPrefetch Priority = 10
	// PriorityAdjacent is for tiles in the keep-buffer ring.
	PriorityAdjacent Priority = 50
	// PriorityVisible is for tiles currently on screen.
	PriorityVisible Priority = 100
)

func (p Priority) String() string {
	switch p {
	case PriorityVisible:
		return "visible"
	case PriorityAdjacent:
		return "adjacent"
	case PriorityPrefetch:
		return "prefetch"
	case PriorityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Task is one queued tile load.
type Task struct {
	Coord    geo.TileCoord
	Priority Priority
	seq      uint64
}

// Result is the outcome of one tile load, delivered to the consumer.
type Result struct {
	Coord    geo.TileCoord
	Data     []byte
	Err      error
	Duration time.Duration
	Retries  int
}

// taskHeap orders tasks by priority, then by submission order within the
// same priority. Implements container/heap.
type taskHeap []Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}
