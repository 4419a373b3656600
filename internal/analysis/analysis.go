package analysis

import (
	"context"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/aspect"
	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/ctxlog"
	"github.com/vk/protoswift/internal/dag"
	"github.com/vk/protoswift/internal/label"
)

// Request selects what to analyze.
type Request struct {
	Model *config.Model
	Env   aspect.Env
	// Targets restricts analysis to their transitive closure. Empty means
	// every declared target.
	Targets []label.Label
	Workers int
}

// Analysis is the outcome of analyzing a workspace.
type Analysis struct {
	Graph   *dag.Graph
	Targets []label.Label
	Results map[label.Label]*aspect.Result
	Actions *action.Graph
}

// Analyze builds the target graph, evaluates it and assembles the action
// graph of every evaluated node.
func Analyze(ctx context.Context, req Request) (*Analysis, error) {
	logger := ctxlog.FromContext(ctx)

	graph, err := dag.Build(ctx, req.Model)
	if err != nil {
		return nil, err
	}

	targets := req.Targets
	if len(targets) == 0 {
		targets = graph.Nodes()
	} else {
		graph, err = graph.Subgraph(targets...)
		if err != nil {
			return nil, err
		}
	}
	logger.Debug("Target graph ready.", "nodes", graph.Len(), "targets", len(targets))

	results, err := Evaluate(ctx, req.Model, graph, req.Env, req.Workers)
	if err != nil {
		return nil, err
	}

	var actions []action.Action
	var writes []action.FileWrite
	for _, id := range graph.TopologicalOrder() {
		r := results[id]
		actions = append(actions, r.Actions...)
		writes = append(writes, r.Writes...)
	}
	ag, err := action.NewGraph(actions, writes)
	if err != nil {
		return nil, err
	}

	logger.Info("Analysis complete.", "targets", len(targets), "nodes", graph.Len(), "graph", ag.String())
	return &Analysis{
		Graph:   graph,
		Targets: targets,
		Results: results,
		Actions: ag,
	}, nil
}

// Ordered returns the results in dependency order.
func (a *Analysis) Ordered() []*aspect.Result {
	order := a.Graph.TopologicalOrder()
	out := make([]*aspect.Result, 0, len(order))
	for _, id := range order {
		out = append(out, a.Results[id])
	}
	return out
}
