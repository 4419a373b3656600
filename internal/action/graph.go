package action

import (
	"fmt"
	"sort"

	"github.com/vk/protoswift/internal/builderr"
)

// Graph is the validated set of actions and file writes for one build.
type Graph struct {
	Actions []*Action
	Writes  []*FileWrite

	producer map[string]*Action
	written  map[string]*FileWrite
}

// NewGraph assembles a graph. Actions and writes are sorted by owner and
// kind so the result does not depend on the order analysis finished in.
// Two producers declaring the same path is a configuration error.
func NewGraph(actions []Action, writes []FileWrite) (*Graph, error) {
	g := &Graph{
		producer: make(map[string]*Action),
		written:  make(map[string]*FileWrite),
	}

	for i := range writes {
		w := writes[i]
		if prev, ok := g.written[w.Path]; ok {
			return nil, conflict(w.Path, prev.Owner.String(), w.Owner.String())
		}
		g.written[w.Path] = &w
		g.Writes = append(g.Writes, &w)
	}

	for i := range actions {
		a := actions[i]
		for _, out := range a.Outputs {
			if prev, ok := g.producer[out]; ok {
				return nil, conflict(out, prev.ID(), a.ID())
			}
			if prev, ok := g.written[out]; ok {
				return nil, conflict(out, "file write of "+prev.Owner.String(), a.ID())
			}
			g.producer[out] = &a
		}
		g.Actions = append(g.Actions, &a)
	}

	sort.SliceStable(g.Actions, func(i, j int) bool {
		if g.Actions[i].Owner != g.Actions[j].Owner {
			return g.Actions[i].Owner.String() < g.Actions[j].Owner.String()
		}
		return kindOrder(g.Actions[i].Kind) < kindOrder(g.Actions[j].Kind)
	})
	sort.SliceStable(g.Writes, func(i, j int) bool {
		return g.Writes[i].Path < g.Writes[j].Path
	})
	return g, nil
}

func conflict(path, first, second string) error {
	return builderr.Configf("action.NewGraph", "", "%q is produced by both %s and %s: %w", path, first, second, builderr.ErrOutputConflict)
}

func kindOrder(k Kind) int {
	switch k {
	case KindDescriptorSet:
		return 0
	case KindGenerate:
		return 1
	case KindCompile:
		return 2
	}
	return 3
}

// Producer returns the action that declares path as an output.
func (g *Graph) Producer(path string) (*Action, bool) {
	a, ok := g.producer[path]
	return a, ok
}

// Write returns the file write that creates path.
func (g *Graph) Write(path string) (*FileWrite, bool) {
	w, ok := g.written[path]
	return w, ok
}

// Dependencies returns the actions whose outputs a consumes, in input order
// and without duplicates.
func (g *Graph) Dependencies(a *Action) []*Action {
	var deps []*Action
	seen := make(map[*Action]struct{})
	for _, in := range a.Inputs {
		p, ok := g.producer[in]
		if !ok || p == a {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		deps = append(deps, p)
	}
	return deps
}

// CountByKind returns how many actions of each kind the graph holds.
func (g *Graph) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, a := range g.Actions {
		counts[a.Kind]++
	}
	return counts
}

// String summarizes the graph for logs.
func (g *Graph) String() string {
	return fmt.Sprintf("%d actions, %d file writes", len(g.Actions), len(g.Writes))
}
