package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/protoswift/internal/aspect"
	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/ctxlog"
	"github.com/vk/protoswift/internal/dag"
	"github.com/vk/protoswift/internal/inmemorystore"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/protoinfo"
)

const tracerName = "github.com/vk/protoswift/internal/analysis"

type visitFunc func(ctx context.Context, id label.Label, deps []*aspect.Result) (*aspect.Result, error)

type evalNode struct {
	id         label.Label
	deps       []*evalNode
	dependents []*evalNode

	depCount atomic.Int32
	skipOnce sync.Once
}

type evaluator struct {
	nodes   []*evalNode
	store   *inmemorystore.Store[*aspect.Result]
	visit   visitFunc
	workers int
	tracer  trace.Tracer

	wg sync.WaitGroup
}

func newEvaluator(graph *dag.Graph, visit visitFunc, workers int) (*evaluator, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	e := &evaluator{
		store:   inmemorystore.New[*aspect.Result](),
		visit:   visit,
		workers: workers,
		tracer:  otel.Tracer(tracerName),
	}

	byID := make(map[label.Label]*evalNode, graph.Len())
	for _, id := range graph.TopologicalOrder() {
		n := &evalNode{id: id}
		deps, err := graph.Dependencies(id)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			dn := byID[d]
			n.deps = append(n.deps, dn)
			dn.dependents = append(dn.dependents, n)
		}
		n.depCount.Store(int32(len(n.deps)))
		byID[id] = n
		e.nodes = append(e.nodes, n)
	}
	return e, nil
}

// Evaluate visits every node of graph bottom-up and returns the final
// results keyed by label. The first failure cancels the remaining work and
// is returned; nodes downstream of it are skipped.
func Evaluate(ctx context.Context, model *config.Model, graph *dag.Graph, env aspect.Env, workers int) (map[label.Label]*aspect.Result, error) {
	visit := func(ctx context.Context, id label.Label, deps []*aspect.Result) (*aspect.Result, error) {
		kind, ok := model.Kind(id)
		if !ok {
			return nil, builderr.Configf("analysis.Evaluate", id.String(), "%w", builderr.ErrUnknownTarget)
		}
		switch kind {
		case config.KindProtoLibrary:
			p := model.ProtoLibraries[id]
			return aspect.Visit(ctx, protoinfo.Library{
				Label:             p.Label,
				Srcs:              p.Srcs,
				StripImportPrefix: p.StripImportPrefix,
				DescriptorSet:     p.DescriptorSet,
			}, deps, env)
		default:
			return aspect.Collect(ctx, id, deps, env), nil
		}
	}

	e, err := newEvaluator(graph, visit, workers)
	if err != nil {
		return nil, err
	}
	return e.run(ctx)
}

func (e *evaluator) run(ctx context.Context) (map[label.Label]*aspect.Result, error) {
	logger := ctxlog.FromContext(ctx)
	ctx, span := e.tracer.Start(ctx, "analysis.Evaluate", trace.WithAttributes(attribute.Int("nodes", len(e.nodes))))
	defer span.End()

	if len(e.nodes) == 0 {
		return map[label.Label]*aspect.Result{}, nil
	}

	readyChan := make(chan *evalNode, len(e.nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rootNodeCount := 0
	for _, n := range e.nodes {
		if n.depCount.Load() == 0 {
			readyChan <- n
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(e.nodes))
	workers := min(e.workers, len(e.nodes))
	logger.Debug("Starting analysis workers.", "workers", workers)
	for i := 0; i < workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	e.wg.Wait()
	close(readyChan)

	var failed []string
	var rootCause error
	for _, n := range e.nodes {
		if e.store.GetStatus(n.id) != inmemorystore.StatusFailed {
			continue
		}
		err := e.store.GetError(n.id)
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		failed = append(failed, n.id.String())
		if rootCause == nil {
			rootCause = err
		}
	}
	if rootCause != nil {
		span.RecordError(rootCause)
		span.SetStatus(codes.Error, "analysis failed")
		return nil, fmt.Errorf("analysis failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("All nodes analyzed.", "count", len(e.nodes))
	return e.store.Results(), nil
}

// skipDependents recursively marks all downstream nodes as skipped.
func (e *evaluator) skipDependents(ctx context.Context, n *evalNode) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range n.dependents {
		dependent.skipOnce.Do(func() {
			logger.Debug("Skipping dependent node due to upstream failure.", "label", dependent.id.String(), "dependency", n.id.String())
			e.store.SetError(dependent.id, inmemorystore.StatusSkipped, fmt.Errorf("skipped due to upstream failure of %s", n.id))
			e.wg.Done()
			e.skipDependents(ctx, dependent)
		})
	}
}

func (e *evaluator) worker(ctx context.Context, readyChan chan *evalNode, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for n := range readyChan {
		if ctx.Err() != nil {
			n.skipOnce.Do(func() {
				e.store.SetError(n.id, inmemorystore.StatusSkipped, ctx.Err())
				e.wg.Done()
			})
			e.skipDependents(ctx, n)
			continue
		}

		e.store.SetStatus(n.id, inmemorystore.StatusRunning)
		res, err := e.visitNode(ctx, n)
		if err == nil {
			err = e.store.SetResult(n.id, res)
		}
		if err != nil {
			logger.Debug("Node analysis failed.", "workerID", workerID, "label", n.id.String(), "error", err)
			e.store.SetError(n.id, inmemorystore.StatusFailed, err)
			cancel()
			e.skipDependents(ctx, n)
			e.wg.Done()
			continue
		}

		for _, dependent := range n.dependents {
			if dependent.depCount.Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
}

func (e *evaluator) visitNode(ctx context.Context, n *evalNode) (*aspect.Result, error) {
	ctx, span := e.tracer.Start(ctx, "analysis.visit", trace.WithAttributes(attribute.String("label", n.id.String())))
	defer span.End()

	deps := make([]*aspect.Result, 0, len(n.deps))
	for _, d := range n.deps {
		r, ok := e.store.GetResult(d.id)
		if !ok {
			return nil, builderr.New("analysis.visit", builderr.KindInternal, n.id.String(), fmt.Errorf("dependency %s has no result", d.id))
		}
		deps = append(deps, r)
	}

	res, err := e.visit(ctx, n.id, deps)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("actions", len(res.Actions)))
	return res, nil
}
