package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/label"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[label.Label]*node),
	}
}

// AddNode adds a new node with the given label to the graph. If the node
// already exists, the function does nothing.
func (g *Graph) AddNode(id label.Label) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{id: id}
}

// AddEdge records that `toID` depends on `fromID`. Edges keep the order in
// which they were added, which is the dependency order visible to `toID`.
// Adding an existing edge again does nothing.
func (g *Graph) AddEdge(fromID, toID label.Label) error {
	if fromID == toID {
		return builderr.Configf("dag.AddEdge", toID.String(), "target depends on itself: %w", builderr.ErrCycle)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	if toNode.hasDep(fromID) {
		return nil
	}

	toNode.deps = append(toNode.deps, fromNode)
	fromNode.dependents = append(fromNode.dependents, toNode)
	return nil
}

// Has reports whether the graph contains id.
func (g *Graph) Has(id label.Label) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

// Nodes returns every node label, sorted.
func (g *Graph) Nodes() []label.Label {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	return sortedIDs(g.nodes)
}

// Dependencies returns the labels the given node depends on, in declared
// order.
func (g *Graph) Dependencies(id label.Label) ([]label.Label, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.deps), nil
}

// Dependents returns the labels that depend on the given node.
func (g *Graph) Dependents(id label.Label) ([]label.Label, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return ids(n.dependents), nil
}

// DetectCycles checks the graph for cycles. The returned error wraps
// builderr.ErrCycle and names the cycle's path. Nodes are visited in sorted
// order so the reported cycle is stable.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search with three sets of nodes:
	// permanent: fully visited and not part of a cycle.
	// temporary: on the current recursion stack.
	// unvisited: everything else.
	permanent := make(map[label.Label]bool)
	temporary := make(map[label.Label]bool)
	var stack []label.Label

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return cycleError(stack, n.id)
		}

		temporary[n.id] = true
		stack = append(stack, n.id)
		for _, dep := range n.deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range sortedIDs(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

func cycleError(stack []label.Label, repeated label.Label) error {
	start := 0
	for i, id := range stack {
		if id == repeated {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(stack)-start+1)
	for _, id := range stack[start:] {
		parts = append(parts, id.String())
	}
	parts = append(parts, repeated.String())
	return builderr.Configf("dag.DetectCycles", repeated.String(), "%w: %s", builderr.ErrCycle, strings.Join(parts, " -> "))
}

// TopologicalOrder returns every node with dependencies before their
// dependents. Ties are broken by label so the order is deterministic. The
// graph must be acyclic.
func (g *Graph) TopologicalOrder() []label.Label {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	visited := make(map[label.Label]bool, len(g.nodes))
	out := make([]label.Label, 0, len(g.nodes))

	var visit func(n *node)
	visit = func(n *node) {
		if visited[n.id] {
			return
		}
		visited[n.id] = true
		for _, d := range n.deps {
			visit(d)
		}
		out = append(out, n.id)
	}

	for _, id := range sortedIDs(g.nodes) {
		visit(g.nodes[id])
	}
	return out
}

// Subgraph returns the graph restricted to roots and everything they
// transitively depend on. Unknown roots are a configuration error.
func (g *Graph) Subgraph(roots ...label.Label) (*Graph, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	sub := New()
	var walk func(n *node)
	walk = func(n *node) {
		if _, ok := sub.nodes[n.id]; ok {
			return
		}
		sub.nodes[n.id] = &node{id: n.id}
		for _, d := range n.deps {
			walk(d)
		}
	}
	for _, r := range roots {
		n, ok := g.nodes[r]
		if !ok {
			return nil, builderr.Configf("dag.Subgraph", r.String(), "%w", builderr.ErrUnknownTarget)
		}
		walk(n)
	}

	// Copy edges in the original declared order.
	for id, sn := range sub.nodes {
		for _, d := range g.nodes[id].deps {
			dn := sub.nodes[d.id]
			sn.deps = append(sn.deps, dn)
		}
	}
	for _, id := range sortedIDs(sub.nodes) {
		for _, d := range sub.nodes[id].deps {
			d.dependents = append(d.dependents, sub.nodes[id])
		}
	}
	return sub, nil
}

func sortedIDs(nodes map[label.Label]*node) []label.Label {
	out := make([]label.Label, 0, len(nodes))
	for id := range nodes {
		out = append(out, id)
	}
	sortLabels(out)
	return out
}

func ids(nodes []*node) []label.Label {
	out := make([]label.Label, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.id)
	}
	return out
}

func sortLabels(ls []label.Label) {
	sort.Slice(ls, func(i, j int) bool { return label.Less(ls[i], ls[j]) })
}
