package linking

import "github.com/vk/protoswift/internal/depset"

// WrappedBundle is the envelope a node exports to its consumers. Its fields
// are unexported so that no code outside this package can read a bundle
// without unwrapping it.
type WrappedBundle struct {
	native  LinkingContext
	interop *InteropContext
}

// Merge builds the envelope a node exports. The native context is the
// ordered union of self, every dependency and every support bundle. The
// interop context is produced iff tc supports interop; it then aggregates the
// dependencies' and support bundles' interop contexts and, when self is not
// nil, the node's own libraries plus the toolchain's implicit interop deps.
//
// Nodes without sources of their own pass self == nil and support == nil,
// which makes the result a pure re-export of their dependencies.
func Merge(self *Bundle, deps []WrappedBundle, support []Bundle, tc InteropToolchain) WrappedBundle {
	natives := make([]LinkingContext, 0, 1+len(deps)+len(support))
	if self != nil {
		natives = append(natives, self.Native)
	}
	for _, d := range deps {
		natives = append(natives, d.native)
	}
	for _, s := range support {
		natives = append(natives, s.Native)
	}

	wb := WrappedBundle{native: MergeContexts(natives...)}
	if tc == nil || !tc.SupportsInterop() {
		return wb
	}

	var direct []LibraryToLink
	var transitive []depset.Set[LibraryToLink]
	if self != nil {
		direct = append(direct, self.Native.Libraries.ToList()...)
		direct = append(direct, tc.ImplicitInteropDeps()...)
		if self.Interop != nil {
			transitive = append(transitive, self.Interop.Libraries)
		}
	}
	for _, d := range deps {
		if d.interop != nil {
			transitive = append(transitive, d.interop.Libraries)
		}
	}
	for _, s := range support {
		if s.Interop != nil {
			transitive = append(transitive, s.Interop.Libraries)
		}
	}
	wb.interop = &InteropContext{Libraries: depset.New(direct, transitive...)}
	return wb
}

// UnwrapNative returns the native linking context.
func UnwrapNative(wb WrappedBundle) LinkingContext {
	return wb.native
}

// UnwrapInterop returns the interop context and whether one is present.
func UnwrapInterop(wb WrappedBundle) (*InteropContext, bool) {
	return wb.interop, wb.interop != nil
}
