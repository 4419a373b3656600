package dag

import (
	"sync"

	"github.com/vk/protoswift/internal/label"
)

// Graph is a collection of nodes and their dependencies, representing a DAG.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by target label.
	nodes map[label.Label]*node
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using labels),
// not by direct struct manipulation.
type node struct {
	id label.Label
	// deps holds the nodes this node depends on, in declared order.
	deps []*node
	// dependents holds the nodes that depend on this node, in the order the
	// edges were added.
	dependents []*node
}

func (n *node) hasDep(id label.Label) bool {
	for _, d := range n.deps {
		if d.id == id {
			return true
		}
	}
	return false
}
