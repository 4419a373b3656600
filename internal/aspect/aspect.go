// Package aspect implements the per-node fold: given a schema library and
// the final results of its direct dependencies, it computes the node's
// module name, mapping table, generated-file set, linking metadata and the
// actions that build them.
package aspect

import (
	"context"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/ctxlog"
	"github.com/vk/protoswift/internal/depset"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/linking"
	"github.com/vk/protoswift/internal/mapping"
	"github.com/vk/protoswift/internal/protoinfo"
	"github.com/vk/protoswift/internal/registrar"
	"github.com/vk/protoswift/internal/toolchain"
	"github.com/vk/protoswift/internal/wellknown"
)

// ModuleInfo is what consumers learn about the generated modules below them.
// It only grows along a dependency chain.
type ModuleInfo struct {
	Mappings       mapping.Table
	GeneratedFiles depset.Set[string]
}

// Result is the final, immutable outcome of visiting one node.
type Result struct {
	Label      label.Label
	ModuleName string

	// Info is nil for consumer targets that are not schema libraries.
	Info *protoinfo.Info

	ModuleInfo ModuleInfo
	Linking    linking.WrappedBundle

	// Module is the node's own compiled module, nil when it has no sources.
	Module *linking.CompiledModule

	// Modules holds the node's module followed by every transitive
	// dependency's.
	Modules depset.Set[linking.CompiledModule]
	Stage   registrar.Stage

	Actions []action.Action
	Writes  []action.FileWrite
}

// Env is the build-wide state a visit reads.
type Env struct {
	Toolchain *toolchain.Toolchain
	BinDir    string
}

type depView struct {
	infos     []*protoinfo.Info
	tables    []mapping.Table
	generated []depset.Set[string]
	bundles   []linking.WrappedBundle
	modules   []depset.Set[linking.CompiledModule]
}

func viewOf(deps []*Result) depView {
	var v depView
	for _, d := range deps {
		if d.Info != nil {
			v.infos = append(v.infos, d.Info)
		}
		v.tables = append(v.tables, d.ModuleInfo.Mappings)
		v.generated = append(v.generated, d.ModuleInfo.GeneratedFiles)
		v.bundles = append(v.bundles, d.Linking)
		v.modules = append(v.modules, d.Modules)
	}
	return v
}

// Visit folds one schema library. deps must be the final results of lib's
// direct dependencies in declared order.
func Visit(ctx context.Context, lib protoinfo.Library, deps []*Result, env Env) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	tc := env.Toolchain
	v := viewOf(deps)

	pi, err := protoinfo.Build(lib, v.infos, tc.Protoc, env.BinDir)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Label:      lib.Label,
		ModuleName: lib.Label.ModuleName(),
		Info:       pi.Info,
		Actions:    pi.Actions,
		Writes:     pi.Writes,
	}

	sources := wellknown.Filter(pi.Info.Sources)
	importPaths := make([]string, 0, len(sources))
	for _, s := range sources {
		importPaths = append(importPaths, s.ImportPath)
	}

	var direct *mapping.ModuleMapping
	if m, ok := mapping.BuildDirect(lib.Label, importPaths); ok {
		direct = &m
	}
	table := mapping.NewTable(direct, v.tables...)
	depModules := depset.New(nil, v.modules...)

	reg, err := registrar.Register(registrar.Input{
		Label:      lib.Label,
		ModuleName: res.ModuleName,
		Info:       pi.Info,
		Sources:    sources,
		Mappings:   table,
		DepModules: depModules.ToList(),
	}, registrar.Env{Toolchain: tc, BinDir: env.BinDir})
	if err != nil {
		return nil, err
	}

	res.Stage = reg.Stage
	res.Actions = append(res.Actions, reg.Actions...)
	res.Writes = append(res.Writes, reg.Writes...)
	res.ModuleInfo = ModuleInfo{
		Mappings:       table,
		GeneratedFiles: depset.New(reg.GeneratedFiles, v.generated...),
	}

	if reg.Module != nil {
		res.Module = reg.Module
		self := &linking.Bundle{
			Native: linking.NewLinkingContext([]linking.LibraryToLink{{Owner: lib.Label, StaticLibrary: reg.Module.Library}}, nil),
		}
		res.Linking = linking.Merge(self, v.bundles, tc.SupportBundles(), tc)
		res.Modules = depset.New([]linking.CompiledModule{*reg.Module}, depModules)
	} else {
		res.Linking = linking.Merge(nil, v.bundles, nil, tc)
		res.Modules = depModules
	}

	logger.Debug("Visited schema library.",
		"label", lib.Label.String(),
		"module", res.ModuleName,
		"stage", res.Stage.String(),
		"filtered_sources", len(pi.Info.Sources)-len(sources),
		"mappings", table.Len(),
		"actions", len(res.Actions),
	)
	return res, nil
}

// Collect folds a consumer target that only aggregates its dependencies. It
// registers nothing of its own.
func Collect(ctx context.Context, l label.Label, deps []*Result, env Env) *Result {
	v := viewOf(deps)
	res := &Result{
		Label:      l,
		ModuleName: l.ModuleName(),
		ModuleInfo: ModuleInfo{
			Mappings:       mapping.Aggregate(v.tables...),
			GeneratedFiles: depset.New(nil, v.generated...),
		},
		Linking: linking.Merge(nil, v.bundles, nil, env.Toolchain),
		Modules: depset.New(nil, v.modules...),
		Stage:   registrar.StageDone,
	}
	ctxlog.FromContext(ctx).Debug("Collected consumer target.", "label", l.String(), "modules", res.Modules.Len())
	return res
}
