package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vk/protoswift/internal/plan"
	"github.com/vk/protoswift/internal/spawn"
)

// Invocation is one recorded tool run.
type Invocation struct {
	Command   string
	ParamFile string
	Start     time.Time
	End       time.Time
}

// RecordingRunner stands in for protoc and swiftc. Every action of the
// planned build passes its parameter file as the only argument; the runner
// uses it to find the action and creates the action's declared outputs.
type RecordingRunner struct {
	root    string
	outputs map[string][]string

	// Fail maps a parameter file to the stderr of a failing run.
	Fail map[string]string
	// Omit lists parameter files whose action succeeds without creating
	// its outputs.
	Omit map[string]bool
	// Delay is how long every run takes.
	Delay time.Duration

	mu   sync.Mutex
	runs []Invocation
}

// NewRecordingRunner prepares a runner for the actions of p.
func NewRecordingRunner(root string, p *plan.Plan) *RecordingRunner {
	r := &RecordingRunner{root: root, outputs: make(map[string][]string), Fail: make(map[string]string), Omit: make(map[string]bool)}
	for _, a := range p.Actions {
		r.outputs[a.ParamFile] = a.Outputs
	}
	return r
}

// Run implements spawn.Runner.
func (r *RecordingRunner) Run(ctx context.Context, cfg spawn.Config) (*spawn.Result, error) {
	inv := Invocation{Command: cfg.Command, Start: time.Now()}
	if len(cfg.Args) > 0 {
		inv.ParamFile = strings.TrimPrefix(cfg.Args[len(cfg.Args)-1], "@")
	}
	defer func() {
		inv.End = time.Now()
		r.mu.Lock()
		r.runs = append(r.runs, inv)
		r.mu.Unlock()
	}()

	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if stderr, ok := r.Fail[inv.ParamFile]; ok {
		return &spawn.Result{ExitCode: 1, Stderr: []byte(stderr)}, nil
	}
	if r.Omit[inv.ParamFile] {
		return &spawn.Result{}, nil
	}
	for _, out := range r.outputs[inv.ParamFile] {
		p := filepath.Join(r.root, filepath.FromSlash(out))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, []byte(cfg.Command), 0o644); err != nil {
			return nil, err
		}
	}
	return &spawn.Result{}, nil
}

// Runs returns the recorded invocations in completion order.
func (r *RecordingRunner) Runs() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Invocation(nil), r.runs...)
}
