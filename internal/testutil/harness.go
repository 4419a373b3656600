// Package testutil holds the harness the integration tests run workspaces
// through.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/protoswift/internal/app"
	"github.com/vk/protoswift/internal/executor"
	"github.com/vk/protoswift/internal/plan"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Root      string
	LogOutput string
	// Plan is nil when planning failed.
	Plan    *plan.Plan
	Summary *executor.Summary
	Runner  *RecordingRunner
	Err     error
}

// Module returns the planned module of the given target.
func (r *HarnessResult) Module(t *testing.T, target string) plan.Module {
	t.Helper()
	require.NotNil(t, r.Plan, "no plan: %v", r.Err)
	for _, m := range r.Plan.Modules {
		if m.Label == target {
			return m
		}
	}
	t.Fatalf("target %s not in plan", target)
	return plan.Module{}
}

// Actions returns the planned actions owned by target, in plan order.
func (r *HarnessResult) Actions(t *testing.T, target string) []plan.Action {
	t.Helper()
	require.NotNil(t, r.Plan, "no plan: %v", r.Err)
	var out []plan.Action
	for _, a := range r.Plan.Actions {
		if a.Owner == target {
			out = append(out, a)
		}
	}
	return out
}

// WriteWorkspace creates a temporary workspace containing files, keyed by
// their workspace-relative path.
func WriteWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// RunPlan writes files to a fresh workspace and plans every target, or
// only targets when given.
func RunPlan(t *testing.T, files map[string]string, targets ...string) *HarnessResult {
	t.Helper()
	return run(context.Background(), t, files, targets, false)
}

// RunBuild plans like RunPlan and then builds with a RecordingRunner that
// creates every declared output. configure, when not nil, can make the
// runner fail or slow down before the build starts.
func RunBuild(ctx context.Context, t *testing.T, files map[string]string, configure func(*RecordingRunner), targets ...string) *HarnessResult {
	t.Helper()
	return run(ctx, t, files, targets, true, configure)
}

func run(ctx context.Context, t *testing.T, files map[string]string, targets []string, build bool, configure ...func(*RecordingRunner)) *HarnessResult {
	t.Helper()

	root := WriteWorkspace(t, files)
	cfg, err := app.NewConfig(app.Config{
		WorkspaceRoot: root,
		BinDir:        "bin",
		LogLevel:      "debug",
		LogFormat:     "text",
		Workers:       4,
		Targets:       targets,
	})
	require.NoError(t, err)

	res := &HarnessResult{Root: root}
	logBuffer := &SafeBuffer{}
	defer func() {
		res.LogOutput = logBuffer.String()
		if os.Getenv("PROTOSWIFT_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), res.LogOutput)
		}
	}()

	var planOut bytes.Buffer
	if err := app.NewApp(&planOut, logBuffer, cfg).Plan(ctx); err != nil {
		res.Err = err
		return res
	}
	res.Plan = &plan.Plan{}
	require.NoError(t, yaml.Unmarshal(planOut.Bytes(), res.Plan))
	if !build {
		return res
	}

	res.Runner = NewRecordingRunner(root, res.Plan)
	for _, c := range configure {
		if c != nil {
			c(res.Runner)
		}
	}
	res.Summary, res.Err = app.NewApp(&bytes.Buffer{}, logBuffer, cfg, app.WithRunner(res.Runner)).Build(ctx)
	return res
}
