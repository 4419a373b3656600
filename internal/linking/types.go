// Package linking carries compiled-library metadata between graph nodes.
//
// Two contexts travel together: the native context every consumer links
// against, and the interop context, which exists only when the toolchain can
// link the native object runtime. Both are wrapped in a WrappedBundle
// envelope when they cross a node boundary; Merge, UnwrapNative and
// UnwrapInterop are the only ways to build or read one.
package linking

import (
	"github.com/vk/protoswift/internal/depset"
	"github.com/vk/protoswift/internal/label"
)

// LibraryToLink is one static archive contributed by a target.
type LibraryToLink struct {
	Owner         label.Label
	StaticLibrary string
}

// LinkingContext is the ordered, deduplicated set of libraries and linker
// flags a consumer links against.
type LinkingContext struct {
	Libraries depset.Set[LibraryToLink]
	Linkopts  depset.Set[string]
}

// InteropContext is the linking metadata seen by native object runtime
// consumers.
type InteropContext struct {
	Libraries depset.Set[LibraryToLink]
}

// Bundle pairs a native context with an optional interop context. A nil
// Interop means the bundle has no interop component, which is different from
// an empty one.
type Bundle struct {
	Native  LinkingContext
	Interop *InteropContext
}

// CompiledModule describes one compiled module and the archive built with it.
type CompiledModule struct {
	Owner          label.Label
	ModuleName     string
	SwiftModule    string
	SwiftInterface string
	Library        string
}

// InteropToolchain is the slice of toolchain state that decides whether an
// interop context is produced.
type InteropToolchain interface {
	SupportsInterop() bool
	ImplicitInteropDeps() []LibraryToLink
}

// NewLinkingContext builds a context from direct libraries and flags.
func NewLinkingContext(libs []LibraryToLink, linkopts []string) LinkingContext {
	return LinkingContext{
		Libraries: depset.New(libs),
		Linkopts:  depset.New(linkopts),
	}
}

// MergeContexts returns the ordered union of the given contexts.
func MergeContexts(contexts ...LinkingContext) LinkingContext {
	libs := make([]depset.Set[LibraryToLink], 0, len(contexts))
	opts := make([]depset.Set[string], 0, len(contexts))
	for _, c := range contexts {
		libs = append(libs, c.Libraries)
		opts = append(opts, c.Linkopts)
	}
	return LinkingContext{
		Libraries: depset.New(nil, libs...),
		Linkopts:  depset.New(nil, opts...),
	}
}
