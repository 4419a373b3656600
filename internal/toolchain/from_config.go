package toolchain

import (
	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/linking"
)

// FromConfig resolves the declared toolchain block. Implicit interop
// libraries are owned by the toolchain's own label.
func FromConfig(c *config.Toolchain) *Toolchain {
	t := &Toolchain{
		Protoc:         c.Protoc,
		SwiftPlugin:    c.SwiftPlugin,
		Swiftc:         c.Swiftc,
		Interop:        c.SupportsInterop,
		Features:       c.Features,
		CompileOptions: c.CompileOptions,
	}
	for _, path := range c.ImplicitInteropDeps {
		t.ImplicitInterop = append(t.ImplicitInterop, linking.LibraryToLink{Owner: c.Label, StaticLibrary: path})
	}
	for _, r := range c.RuntimeLibraries {
		t.RuntimeLibraries = append(t.RuntimeLibraries, RuntimeLibrary{
			Label:       r.Label,
			Module:      r.Module,
			SwiftModule: r.SwiftModule,
			Library:     r.Library,
			Linkopts:    r.Linkopts,
			Interop:     r.Interop,
		})
	}
	return t
}
