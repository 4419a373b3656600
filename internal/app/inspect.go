package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/protoswift/internal/descriptorset"
	"github.com/vk/protoswift/internal/mapping"
)

// MappingFileSuffix is the extension of module-mapping files.
const MappingFileSuffix = ".asciipb"

type inspected struct {
	Path    string                      `yaml:"path"`
	Files   []descriptorset.FileSummary `yaml:"files,omitempty"`
	Modules []moduleEntry               `yaml:"modules,omitempty"`
}

type moduleEntry struct {
	Module string   `yaml:"module"`
	Files  []string `yaml:"files"`
}

// Inspect describes build artifacts: binary descriptor sets list the files
// they contain, module-mapping files list their modules. Relative paths are
// resolved against the workspace root.
func (a *App) Inspect(ctx context.Context, paths ...string) error {
	ctx = a.context(ctx)
	a.logger.Debug("App.Inspect method started.", "paths", paths)

	var out []inspected
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(a.config.WorkspaceRoot, p)
		}

		if strings.HasSuffix(p, MappingFileSuffix) {
			entry, err := inspectMapping(abs)
			if err != nil {
				return err
			}
			entry.Path = p
			out = append(out, entry)
			continue
		}

		set, err := descriptorset.Load(abs)
		if err != nil {
			return err
		}
		out = append(out, inspected{Path: p, Files: descriptorset.Summarize(set)})
	}

	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding inspection: %w", err)
	}
	return enc.Close()
}

func inspectMapping(path string) (inspected, error) {
	f, err := os.Open(path)
	if err != nil {
		return inspected{}, fmt.Errorf("opening mapping file: %w", err)
	}
	defer f.Close()

	t, err := mapping.ParseFile(f)
	if err != nil {
		return inspected{}, fmt.Errorf("%s: %w", path, err)
	}
	var entry inspected
	for _, e := range t.Entries() {
		entry.Modules = append(entry.Modules, moduleEntry{Module: e.ModuleName, Files: e.FilePaths})
	}
	return entry, nil
}
