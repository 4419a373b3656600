// Package executor runs an assembled action graph: it materializes the
// graph's file writes, then runs every action once all actions producing its
// inputs have succeeded, with independent actions running in parallel.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/ctxlog"
	"github.com/vk/protoswift/internal/spawn"
)

const tracerName = "github.com/vk/protoswift/internal/executor"

// Options configures an Executor.
type Options struct {
	// WorkspaceRoot is the directory actions run in; every path in the graph
	// is relative to it.
	WorkspaceRoot string
	Workers       int
	Runner        spawn.Runner
	// ActionTimeout bounds each action. Zero means no limit.
	ActionTimeout time.Duration
}

// Summary describes a finished execution.
type Summary struct {
	InvocationID string
	Actions      int
	Writes       int
	Duration     time.Duration
}

// Executor runs one action graph.
type Executor struct {
	graph  *action.Graph
	opts   Options
	tracer trace.Tracer
}

// New creates an executor for g.
func New(g *action.Graph, opts Options) *Executor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Runner == nil {
		opts.Runner = spawn.ExecRunner{}
	}
	return &Executor{graph: g, opts: opts, tracer: otel.Tracer(tracerName)}
}

// Execute runs the graph. The first failing action stops the build; actions
// already running are cancelled and nothing downstream of the failure runs.
func (e *Executor) Execute(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{InvocationID: uuid.NewString()}
	logger := ctxlog.FromContext(ctx).With("invocation", sum.InvocationID)
	ctx = ctxlog.WithLogger(ctx, logger)

	ctx, span := e.tracer.Start(ctx, "executor.Execute", trace.WithAttributes(
		attribute.String("invocation", sum.InvocationID),
		attribute.Int("actions", len(e.graph.Actions)),
	))
	defer span.End()

	if err := e.materialize(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "writing files failed")
		return nil, err
	}
	sum.Writes = len(e.graph.Writes)

	if err := e.run(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return nil, err
	}
	sum.Actions = len(e.graph.Actions)
	sum.Duration = time.Since(start)
	logger.Info("Build complete.", "actions", sum.Actions, "writes", sum.Writes, "duration", sum.Duration)
	return sum, nil
}

func (e *Executor) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.opts.WorkspaceRoot, filepath.FromSlash(p))
}

func (e *Executor) materialize(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for _, w := range e.graph.Writes {
		p := e.abs(w.Path)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return builderr.New("executor.materialize", builderr.KindInternal, w.Owner.String(), err)
		}
		if err := os.WriteFile(p, w.Content, 0o644); err != nil {
			return builderr.New("executor.materialize", builderr.KindInternal, w.Owner.String(), err)
		}
		logger.Debug("Wrote file.", "path", w.Path, "label", w.Owner.String())
	}
	return nil
}

func (e *Executor) run(ctx context.Context) error {
	actions := e.graph.Actions
	if len(actions) == 0 {
		return nil
	}

	pending := make(map[*action.Action]*atomic.Int32, len(actions))
	dependents := make(map[*action.Action][]*action.Action, len(actions))
	ready := make(chan *action.Action, len(actions))
	for _, a := range actions {
		deps := e.graph.Dependencies(a)
		count := &atomic.Int32{}
		count.Store(int32(len(deps)))
		pending[a] = count
		for _, d := range deps {
			dependents[d] = append(dependents[d], a)
		}
	}
	for _, a := range actions {
		if pending[a].Load() == 0 {
			ready <- a
		}
	}

	var remaining atomic.Int32
	remaining.Store(int32(len(actions)))

	eg, egCtx := errgroup.WithContext(ctx)
	workers := min(e.opts.Workers, len(actions))
	for i := 0; i < workers; i++ {
		eg.Go(func() error {
			for {
				select {
				case <-egCtx.Done():
					return nil
				case a, ok := <-ready:
					if !ok {
						return nil
					}
					if err := e.runAction(egCtx, a); err != nil {
						return err
					}
					for _, d := range dependents[a] {
						if pending[d].Add(-1) == 0 {
							ready <- d
						}
					}
					if remaining.Add(-1) == 0 {
						close(ready)
					}
				}
			}
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func kindOf(k action.Kind) builderr.Kind {
	if k == action.KindCompile {
		return builderr.KindCompile
	}
	return builderr.KindGeneration
}

func (e *Executor) runAction(ctx context.Context, a *action.Action) error {
	const op = "executor.runAction"
	logger := ctxlog.FromContext(ctx)
	ctx, span := e.tracer.Start(ctx, string(a.Kind), trace.WithAttributes(attribute.String("label", a.Owner.String())))
	defer span.End()

	for _, out := range a.Outputs {
		if err := os.MkdirAll(filepath.Dir(e.abs(out)), 0o755); err != nil {
			return builderr.New(op, builderr.KindInternal, a.Owner.String(), err)
		}
	}

	logger.Info(a.Progress, "action", a.ID())
	res, err := e.opts.Runner.Run(ctx, spawn.Config{
		Command: a.Executable,
		Args:    a.Args,
		WorkDir: e.opts.WorkspaceRoot,
		Timeout: e.opts.ActionTimeout,
	})
	if err != nil {
		span.RecordError(err)
		return builderr.New(op, kindOf(a.Kind), a.Owner.String(), fmt.Errorf("%s: %w", a.ID(), err))
	}
	if res.ExitCode != 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("exit code %d", res.ExitCode))
		return &builderr.Error{
			Op:     op,
			Kind:   kindOf(a.Kind),
			Label:  a.Owner.String(),
			Err:    fmt.Errorf("%s exited with code %d: %w", a.ID(), res.ExitCode, builderr.ErrActionFailed),
			Stderr: string(res.Stderr),
		}
	}

	for _, out := range a.Outputs {
		if _, err := os.Stat(e.abs(out)); err != nil {
			span.SetStatus(codes.Error, "missing output")
			return builderr.New(op, kindOf(a.Kind), a.Owner.String(), fmt.Errorf("%s: %s: %w", a.ID(), out, builderr.ErrMissingOutput))
		}
	}
	logger.Debug("Action finished.", "action", a.ID(), "duration", res.Duration)
	return nil
}
