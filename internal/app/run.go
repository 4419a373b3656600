package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/protoswift/internal/executor"
	"github.com/vk/protoswift/internal/plan"
)

// Plan analyzes the workspace and writes the resulting plan without running
// any tool.
func (a *App) Plan(ctx context.Context) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Plan method started.")

	an, err := a.analyze(ctx)
	if err != nil {
		return err
	}
	return plan.Render(a.outW, plan.New(an), a.config.PlanFormat)
}

// Build analyzes the workspace and runs every action of the selected
// targets.
func (a *App) Build(ctx context.Context) (*executor.Summary, error) {
	ctx = a.context(ctx)
	a.logger.Debug("App.Build method started.")

	an, err := a.analyze(ctx)
	if err != nil {
		return nil, err
	}
	if len(an.Actions.Actions) == 0 && len(an.Actions.Writes) == 0 {
		a.logger.Warn("No actions registered, nothing to build.")
		return &executor.Summary{}, nil
	}

	a.logger.Info("Starting build.", "graph", an.Actions.String(), "workers", a.config.Workers)
	exec := executor.New(an.Actions, executor.Options{
		WorkspaceRoot: a.config.WorkspaceRoot,
		Workers:       a.config.Workers,
		Runner:        a.runner,
		ActionTimeout: a.config.ActionTimeout,
	})
	sum, err := exec.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("build failed: %w", err)
	}
	fmt.Fprintf(a.outW, "Built %d actions and %d files in %s.\n", sum.Actions, sum.Writes, sum.Duration.Round(time.Millisecond))
	return sum, nil
}
