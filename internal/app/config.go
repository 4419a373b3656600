package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vk/protoswift/internal/plan"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// WorkspaceRoot is the directory every build path is relative to.
	WorkspaceRoot string
	// BuildPaths are .hcl files or directories to load. Empty means the
	// whole workspace.
	BuildPaths []string
	BinDir     string

	LogFormat string
	LogLevel  string
	Workers   int

	// Targets restricts plan and build to these labels and their deps.
	Targets       []string
	PlanFormat    string
	ActionTimeout time.Duration
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkspaceRoot == "" {
		return nil, errors.New("WorkspaceRoot is a required configuration field and cannot be empty")
	}
	root, err := filepath.Abs(cfg.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	cfg.WorkspaceRoot = root

	paths := make([]string, 0, len(cfg.BuildPaths))
	for _, p := range cfg.BuildPaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(root, p)
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		paths = append(paths, root)
	}
	cfg.BuildPaths = paths

	if cfg.BinDir == "" {
		cfg.BinDir = "protoswift-bin"
	}
	if filepath.IsAbs(cfg.BinDir) {
		return nil, fmt.Errorf("BinDir %q must be relative to the workspace root", cfg.BinDir)
	}
	cfg.BinDir = filepath.ToSlash(filepath.Clean(cfg.BinDir))

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("Workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.ActionTimeout < 0 {
		return nil, fmt.Errorf("ActionTimeout must not be negative, got %s", cfg.ActionTimeout)
	}

	switch cfg.PlanFormat {
	case "":
		cfg.PlanFormat = plan.FormatYAML
	case plan.FormatYAML, plan.FormatText:
	default:
		return nil, fmt.Errorf("invalid plan format %q: must be '%s' or '%s'", cfg.PlanFormat, plan.FormatYAML, plan.FormatText)
	}

	return &cfg, nil
}
