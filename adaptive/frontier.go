package adaptive

import (
	"container/heap"

	"github.com/mycok/uRoute/roadgraph/graph"
)

// frontierItem is a tentative cost announcement for a node. A node may have
// several items in the frontier at once; all but the cheapest are stale and
// are skipped when popped.
type frontierItem struct {
	node graph.NodeID
	cost float64
}

// frontierQueue is an array-backed binary min-heap over frontier items.
type frontierQueue []frontierItem

func (q frontierQueue) Len() int           { return len(q) }
func (q frontierQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q frontierQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *frontierQueue) Push(x interface{}) {
	*q = append(*q, x.(frontierItem))
}

func (q *frontierQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]

	return item
}

// frontier wraps frontierQueue with typed push / pop helpers.
type frontier struct {
	q frontierQueue
}

func (f *frontier) push(node graph.NodeID, cost float64) {
	heap.Push(&f.q, frontierItem{node: node, cost: cost})
}

func (f *frontier) pop() frontierItem {
	return heap.Pop(&f.q).(frontierItem)
}

func (f *frontier) empty() bool {
	return f.q.Len() == 0
}
