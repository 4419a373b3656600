package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/protoswift/internal/app"
	"github.com/vk/protoswift/internal/spawn"
)

const workspaceHCL = `
toolchain "//tools:swift" {
  protoc       = "protoc"
  swift_plugin = "protoc-gen-swift"
}

proto_library "//Pkg:Q" {
  srcs = ["c.proto"]
}
`

func workspace(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "BUILD.hcl"), []byte(content), 0o644))
	return root
}

func execute(t *testing.T, args []string, opts ...app.Option) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), args, &stdout, &stderr, opts...)
	return stdout.String(), stderr.String(), err
}

func requireExitCode(t *testing.T, err error, code int) *ExitError {
	t.Helper()
	require.Error(t, err)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "want *ExitError, got %T: %v", err, err)
	assert.Equal(t, code, exitErr.Code, exitErr.Message)
	return exitErr
}

type failingRunner struct{}

func (failingRunner) Run(context.Context, spawn.Config) (*spawn.Result, error) {
	return &spawn.Result{ExitCode: 1, Stderr: []byte("protoc: Pkg/c.proto: No such file or directory\n")}, nil
}

func TestExecute_Help(t *testing.T) {
	out, _, err := execute(t, []string{"--help"})
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	for _, sub := range []string{"plan", "build", "inspect"} {
		assert.Contains(t, out, sub)
	}
}

func TestExecute_UsageErrors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"plan", "--nope"}, wantMsg: "unknown flag: --nope"},
		{name: "unknown command", args: []string{"deploy"}, wantMsg: `unknown command "deploy"`},
		{name: "inspect needs files", args: []string{"inspect"}, wantMsg: "requires at least 1 arg"},
		{name: "bad log level", args: []string{"plan", "--log-level", "trace"}, wantMsg: "invalid log-level"},
		{name: "bad plan format", args: []string{"plan", "-o", "xml"}, wantMsg: `invalid plan format "xml"`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args)
			exitErr := requireExitCode(t, err, ExitUsage)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestExecute_Plan(t *testing.T) {
	root := workspace(t, workspaceHCL)
	out, logs, err := execute(t, []string{"plan", "-w", root, "--log-level", "debug"})
	require.NoError(t, err)
	assert.Contains(t, out, "module_name: Pkg_Q")
	assert.Contains(t, logs, "Analysis complete.")
}

func TestExecute_EnvironmentAndFlags(t *testing.T) {
	root := workspace(t, workspaceHCL)

	t.Run("environment is read", func(t *testing.T) {
		t.Setenv("PROTOSWIFT_WORKSPACE", root)
		t.Setenv("PROTOSWIFT_LOG_FORMAT", "json")
		_, logs, err := execute(t, []string{"plan"})
		require.NoError(t, err)
		assert.Contains(t, logs, `"msg":"Analysis complete."`)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("PROTOSWIFT_WORKSPACE", t.TempDir())
		t.Setenv("PROTOSWIFT_LOG_FORMAT", "xml")
		out, _, err := execute(t, []string{"plan", "-w", root, "--log-format", "text", "-o", "text"})
		require.NoError(t, err)
		assert.Contains(t, out, "//Pkg:Q")
	})

	t.Run("invalid environment", func(t *testing.T) {
		t.Setenv("PROTOSWIFT_WORKERS", "many")
		_, _, err := execute(t, []string{"plan", "-w", root})
		exitErr := requireExitCode(t, err, ExitUsage)
		assert.Contains(t, exitErr.Message, "invalid environment")
	})
}

func TestExecute_ConfigurationErrorIsUsage(t *testing.T) {
	root := workspace(t, `proto_library "//Pkg:Q" {`)
	_, _, err := execute(t, []string{"plan", "-w", root})
	exitErr := requireExitCode(t, err, ExitUsage)
	assert.Contains(t, exitErr.Message, "failed to parse HCL file")
}

func TestExecute_BuildFailure(t *testing.T) {
	root := workspace(t, workspaceHCL)
	_, _, err := execute(t, []string{"build", "-w", root}, app.WithRunner(failingRunner{}))
	exitErr := requireExitCode(t, err, ExitBuildFailure)
	assert.Contains(t, exitErr.Message, "build failed")
	assert.Contains(t, exitErr.Message, "No such file or directory")
}
