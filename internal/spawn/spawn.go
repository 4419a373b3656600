// Package spawn runs external tools. It wraps os/exec with a context-aware
// API that captures output and separates "the tool ran and failed" from "the
// tool could not be run".
package spawn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Config holds the configuration for one tool invocation.
type Config struct {
	// Command is the name or path of the executable (required).
	Command string
	Args    []string
	// WorkDir is the working directory. Empty means the current directory.
	WorkDir string
	// Env is the environment in "KEY=value" form. Nil inherits the parent's.
	Env []string
	// Timeout bounds the run. Zero means only the context applies.
	Timeout time.Duration
}

// Result holds the outcome of an invocation that ran to completion.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// Runner starts external tools.
type Runner interface {
	Run(ctx context.Context, cfg Config) (*Result, error)
}

// ExecRunner runs tools as local subprocesses.
type ExecRunner struct{}

// Run executes cfg. A non-zero exit code is not an error: the Result carries
// it and the caller decides. Only failures to run the tool at all, timeouts
// and cancellations return an error.
func (ExecRunner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required")
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Dir = cfg.WorkDir
	if cfg.Env != nil {
		cmd.Env = cfg.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return result, fmt.Errorf("%s timed out after %v: %w", cfg.Command, cfg.Timeout, ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		return result, fmt.Errorf("%s cancelled: %w", cfg.Command, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, fmt.Errorf("running %s: %w", cfg.Command, err)
}
