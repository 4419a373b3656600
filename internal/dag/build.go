package dag

import (
	"context"
	"fmt"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/ctxlog"
)

// Build constructs a complete, validated dependency graph from a config model.
func Build(ctx context.Context, model *config.Model) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")
	graph := New()

	// First pass: create all nodes.
	labels := model.Labels()
	for _, l := range labels {
		graph.AddNode(l)
	}
	logger.Debug("Build: Node creation complete.", "node_count", graph.Len())

	// Second pass: link dependencies in declared order.
	for _, l := range labels {
		deps, _ := model.Deps(l)
		for _, d := range deps {
			if !graph.Has(d) {
				return nil, builderr.Configf("dag.Build", l.String(), "dependency %s: %w", d, builderr.ErrUnknownTarget)
			}
			if err := graph.AddEdge(d, l); err != nil {
				return nil, err
			}
		}
	}
	logger.Debug("Build: Node linking complete.")

	if err := graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")
	return graph, nil
}
