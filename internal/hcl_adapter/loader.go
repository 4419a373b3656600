// Package hcl_adapter loads HCL build files into the format-agnostic
// config.Model.
package hcl_adapter

import (
	"context"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/ctxlog"
	"github.com/vk/protoswift/internal/fsutil"
	"github.com/vk/protoswift/internal/label"
)

const op = "hcl_adapter.Load"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	workspaceRoot string
}

// NewLoader creates a new HCL build-file loader. workspaceRoot is exposed to
// build files as `workspace.root`.
func NewLoader(workspaceRoot string) *Loader {
	return &Loader{workspaceRoot: workspaceRoot}
}

// Load parses every .hcl file under paths and merges their blocks into one
// model. A label declared twice, in the same file or in different files, is
// an error, as is more than one toolchain block.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindAll(paths, ".hcl")
	if err != nil {
		return nil, builderr.New(op, builderr.KindConfiguration, "", err)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	model := config.NewModel()
	parser := hclparse.NewParser()
	evalCtx := newEvalContext(l.workspaceRoot)

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, builderr.Configf(op, "", "failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, builderr.Configf(op, "", "failed to decode HCL file %s: %w", file, diags)
		}

		if err := l.merge(model, &root, file); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "files", len(hclFiles), "model", model.String())
	return model, nil
}

func (l *Loader) merge(model *config.Model, root *fileRoot, file string) error {
	for _, t := range root.Toolchains {
		tc, err := translateToolchain(t, file)
		if err != nil {
			return builderr.Configf(op, t.Label, "%s: %w", file, err)
		}
		if model.Toolchain != nil {
			return builderr.Configf(op, tc.Label.String(), "%s: a toolchain is already declared by %s in %s", file, model.Toolchain.Label, model.Toolchain.SourceFile)
		}
		model.Toolchain = tc
	}

	for _, p := range root.ProtoLibraries {
		lib, err := translateProtoLibrary(p, file)
		if err != nil {
			return builderr.Configf(op, p.Label, "%s: %w", file, err)
		}
		if err := checkUnique(model, lib.Label, file); err != nil {
			return err
		}
		model.ProtoLibraries[lib.Label] = lib
	}

	for _, s := range root.SwiftProtoLibraries {
		lib, err := translateSwiftProtoLibrary(s, file)
		if err != nil {
			return builderr.Configf(op, s.Label, "%s: %w", file, err)
		}
		if err := checkUnique(model, lib.Label, file); err != nil {
			return err
		}
		model.SwiftProtoLibraries[lib.Label] = lib
	}
	return nil
}

func checkUnique(model *config.Model, l label.Label, file string) error {
	if p, ok := model.ProtoLibraries[l]; ok {
		return builderr.Configf(op, l.String(), "%s: already declared in %s", file, p.SourceFile)
	}
	if s, ok := model.SwiftProtoLibraries[l]; ok {
		return builderr.Configf(op, l.String(), "%s: already declared in %s", file, s.SourceFile)
	}
	return nil
}
