package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vk/protoswift/internal/app"
	"github.com/vk/protoswift/internal/builderr"
)

// Exit codes.
const (
	ExitBuildFailure = 1
	ExitUsage        = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	workspace  string
	buildPaths []string
	binDir     string
	logLevel   string
	logFormat  string
	workers    int
}

type state struct {
	stdout  io.Writer
	stderr  io.Writer
	env     envConfig
	flags   globalFlags
	appOpts []app.Option
}

// Execute runs the command line args. Command output goes to stdout, logs and
// usage messages to stderr. The returned error, if any, is an *ExitError.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...app.Option) error {
	env, err := readEnvConfig()
	if err != nil {
		return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("invalid environment: %v", err)}
	}

	s := &state{stdout: stdout, stderr: stderr, env: env, appOpts: opts}
	root := newRootCommand(s)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		// Anything cobra rejects on its own is a usage error.
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return nil
}

func newRootCommand(s *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "protoswift",
		Short: "Generate and compile Swift modules from protobuf schema libraries",
		Long: `protoswift walks the proto_library graph declared in HCL build files,
runs protoc with the Swift plugin for every library and compiles each
library's generated sources into its own Swift module.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(s.stdout)
	root.SetErr(s.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	root.PersistentFlags().AddFlagSet(s.globalFlagSet())
	root.AddCommand(
		getCmdPlan(s),
		getCmdBuild(s),
		getCmdInspect(s),
	)
	return root
}

func (s *state) globalFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringVarP(&s.flags.workspace, "workspace", "w", ".", "workspace root; every path in build files is relative to it")
	flags.StringSliceVarP(&s.flags.buildPaths, "build-path", "f", nil, "HCL build file or directory to load (repeatable, default: the workspace)")
	flags.StringVar(&s.flags.binDir, "bin-dir", "protoswift-bin", "output directory, relative to the workspace")
	flags.StringVar(&s.flags.logLevel, "log-level", "info", "logging level: 'debug', 'info', 'warn' or 'error'")
	flags.StringVar(&s.flags.logFormat, "log-format", "text", "log output format: 'text' or 'json'")
	flags.IntVar(&s.flags.workers, "workers", 0, "number of concurrent workers, 0 means one per CPU")
	return flags
}

// appConfig merges environment and flags into a validated app.Config.
// A flag set explicitly on the command line wins over the environment.
func (s *state) appConfig(cmd *cobra.Command, cfg app.Config) (*app.Config, error) {
	flags := cmd.Flags()
	pick := func(name, flagValue, envValue string) string {
		if flags.Changed(name) || envValue == "" {
			return flagValue
		}
		return envValue
	}

	cfg.WorkspaceRoot = pick("workspace", s.flags.workspace, s.env.Workspace)
	cfg.BuildPaths = s.flags.buildPaths
	cfg.BinDir = pick("bin-dir", s.flags.binDir, s.env.BinDir)
	cfg.LogLevel = strings.ToLower(pick("log-level", s.flags.logLevel, s.env.LogLevel))
	cfg.LogFormat = strings.ToLower(pick("log-format", s.flags.logFormat, s.env.LogFormat))
	cfg.Workers = s.flags.workers
	if !flags.Changed("workers") && s.env.Workers != 0 {
		cfg.Workers = s.env.Workers
	}
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = s.env.ActionTimeout
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return validated, nil
}

func (s *state) newApp(cfg *app.Config) *app.App {
	return app.NewApp(s.stdout, s.stderr, cfg, s.appOpts...)
}

// exitError classifies an application error: problems with the build files
// or the request are usage errors, everything else is a failed build.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	code := ExitBuildFailure
	if builderr.IsKind(err, builderr.KindConfiguration) {
		code = ExitUsage
	}
	msg := err.Error()
	var be *builderr.Error
	if errors.As(err, &be) && be.Stderr != "" {
		msg = fmt.Sprintf("%s\n%s", msg, strings.TrimRight(be.Stderr, "\n"))
	}
	return &ExitError{Code: code, Message: msg}
}
