package app

import (
	"context"
	"fmt"

	"github.com/vk/protoswift/internal/analysis"
	"github.com/vk/protoswift/internal/aspect"
	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/ctxlog"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/toolchain"
)

// analyze loads the build files, resolves the toolchain and analyzes the
// selected targets.
func (a *App) analyze(ctx context.Context) (*analysis.Analysis, error) {
	const op = "app.analyze"
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading build files...", "paths", a.config.BuildPaths)

	model, err := a.loader.Load(ctx, a.config.BuildPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load build files: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	logger.Info("Build files loaded.", "model", model.String())

	tc := toolchain.FromConfig(model.Toolchain)
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("Toolchain resolved.", "toolchain", tc.String())

	targets := make([]label.Label, 0, len(a.config.Targets))
	for _, raw := range a.config.Targets {
		l, err := label.Parse(raw)
		if err != nil {
			return nil, builderr.New(op, builderr.KindConfiguration, raw, err)
		}
		targets = append(targets, l)
	}

	return analysis.Analyze(ctx, analysis.Request{
		Model:   model,
		Env:     aspect.Env{Toolchain: tc, BinDir: a.config.BinDir},
		Targets: targets,
		Workers: a.config.Workers,
	})
}
