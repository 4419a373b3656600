// Package toolchain describes the external tools a build uses and the
// capabilities and feature toggles they come with.
package toolchain

import (
	"fmt"
	"slices"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/linking"
)

// Feature names recognized in the toolchain's feature list.
const (
	FeatureGenerateFromRawProtoFiles = "swift.generate_from_raw_proto_files"
	FeatureEnableLibraryEvolution    = "swift.enable_library_evolution"
	FeatureEmitSwiftinterface        = "swift.emit_swiftinterface"
	FeatureEnableTesting             = "swift.enable_testing"
)

var knownFeatures = []string{
	FeatureGenerateFromRawProtoFiles,
	FeatureEnableLibraryEvolution,
	FeatureEmitSwiftinterface,
	FeatureEnableTesting,
}

// RuntimeLibrary is a precompiled support module every generated module
// imports and links against, such as the protobuf runtime.
type RuntimeLibrary struct {
	Label       label.Label
	Module      string
	SwiftModule string
	Library     string
	Linkopts    []string
	// Interop marks libraries that also contribute to interop linking.
	Interop bool
}

// Bundle returns the linking metadata the library contributes.
func (r RuntimeLibrary) Bundle() linking.Bundle {
	var libs []linking.LibraryToLink
	if r.Library != "" {
		libs = append(libs, linking.LibraryToLink{Owner: r.Label, StaticLibrary: r.Library})
	}
	b := linking.Bundle{Native: linking.NewLinkingContext(libs, r.Linkopts)}
	if r.Interop {
		b.Interop = &linking.InteropContext{Libraries: b.Native.Libraries}
	}
	return b
}

// CompiledModule returns the module the library exposes to importers.
func (r RuntimeLibrary) CompiledModule() linking.CompiledModule {
	return linking.CompiledModule{
		Owner:       r.Label,
		ModuleName:  r.Module,
		SwiftModule: r.SwiftModule,
		Library:     r.Library,
	}
}

// Toolchain is the resolved tool configuration for one build.
type Toolchain struct {
	Protoc      string
	SwiftPlugin string
	Swiftc      string

	Interop          bool
	Features         []string
	CompileOptions   []string
	ImplicitInterop  []linking.LibraryToLink
	RuntimeLibraries []RuntimeLibrary
	Compiler         Compiler
}

// SupportsInterop reports whether the toolchain can link the native object
// runtime.
func (t *Toolchain) SupportsInterop() bool {
	return t.Interop
}

// ImplicitInteropDeps returns the libraries every interop-enabled module
// links in addition to its own.
func (t *Toolchain) ImplicitInteropDeps() []linking.LibraryToLink {
	return t.ImplicitInterop
}

// FeatureEnabled reports whether the named feature is switched on.
func (t *Toolchain) FeatureEnabled(name string) bool {
	return slices.Contains(t.Features, name)
}

// SupportBundles returns the linking bundles of the runtime libraries.
func (t *Toolchain) SupportBundles() []linking.Bundle {
	bundles := make([]linking.Bundle, 0, len(t.RuntimeLibraries))
	for _, r := range t.RuntimeLibraries {
		bundles = append(bundles, r.Bundle())
	}
	return bundles
}

// SupportModules returns the modules of the runtime libraries.
func (t *Toolchain) SupportModules() []linking.CompiledModule {
	mods := make([]linking.CompiledModule, 0, len(t.RuntimeLibraries))
	for _, r := range t.RuntimeLibraries {
		mods = append(mods, r.CompiledModule())
	}
	return mods
}

// EffectiveCompileOptions returns the toolchain-wide compile options with
// testing support removed.
func (t *Toolchain) EffectiveCompileOptions() []string {
	return StripTestingOptions(t.CompileOptions)
}

// CompilerOrDefault returns the configured compiler, or a Swiftc compiler
// for t.Swiftc.
func (t *Toolchain) CompilerOrDefault() Compiler {
	if t.Compiler != nil {
		return t.Compiler
	}
	return &Swiftc{Path: t.Swiftc}
}

// Validate checks that every tool path is set and every feature is known.
func (t *Toolchain) Validate() error {
	const op = "toolchain.Validate"
	missing := map[string]string{
		"protoc":       t.Protoc,
		"swift_plugin": t.SwiftPlugin,
		"swiftc":       t.Swiftc,
	}
	for _, name := range []string{"protoc", "swift_plugin", "swiftc"} {
		if missing[name] == "" {
			return builderr.Configf(op, "", "%s is not configured: %w", name, builderr.ErrMissingCapability)
		}
	}
	for _, f := range t.Features {
		if !slices.Contains(knownFeatures, f) {
			return builderr.Configf(op, "", "unknown feature %q", f)
		}
	}
	seen := make(map[string]label.Label)
	for _, r := range t.RuntimeLibraries {
		if r.Module == "" || r.SwiftModule == "" {
			return builderr.Configf(op, r.Label.String(), "runtime library needs module and swiftmodule: %w", builderr.ErrMissingCapability)
		}
		if prev, ok := seen[r.Module]; ok {
			return builderr.Configf(op, r.Label.String(), "module %q is already provided by %s", r.Module, prev)
		}
		seen[r.Module] = r.Label
	}
	return nil
}

// String summarizes the toolchain for logs.
func (t *Toolchain) String() string {
	return fmt.Sprintf("protoc=%s swiftc=%s interop=%t features=%v", t.Protoc, t.Swiftc, t.Interop, t.Features)
}
