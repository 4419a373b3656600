// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"fmt"

	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/label"
)

func parseDeps(owner label.Label, raw []string) ([]label.Label, error) {
	deps := make([]label.Label, 0, len(raw))
	for _, r := range raw {
		d, err := label.ParseRelative(r, owner)
		if err != nil {
			return nil, fmt.Errorf("dependency of %s: %w", owner, err)
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// translateToolchain converts the HCL-specific toolchain schema into the agnostic model.
func translateToolchain(s *Toolchain, file string) (*config.Toolchain, error) {
	l, err := label.Parse(s.Label)
	if err != nil {
		return nil, err
	}
	t := &config.Toolchain{
		Label:               l,
		Protoc:              s.Protoc,
		SwiftPlugin:         s.SwiftPlugin,
		Swiftc:              s.Swiftc,
		SupportsInterop:     s.SupportsInterop,
		Features:            s.Features,
		CompileOptions:      s.CompileOptions,
		ImplicitInteropDeps: s.ImplicitInteropDeps,
		SourceFile:          file,
	}
	if t.Swiftc == "" {
		t.Swiftc = "swiftc"
	}
	for _, r := range s.RuntimeLibraries {
		rl, err := label.ParseRelative(r.Label, l)
		if err != nil {
			return nil, fmt.Errorf("runtime library of %s: %w", l, err)
		}
		t.RuntimeLibraries = append(t.RuntimeLibraries, &config.RuntimeLibrary{
			Label:       rl,
			Module:      r.Module,
			SwiftModule: r.SwiftModule,
			Library:     r.Library,
			Linkopts:    r.Linkopts,
			Interop:     r.Interop,
		})
	}
	return t, nil
}

// translateProtoLibrary converts the HCL-specific proto_library schema into the agnostic model.
func translateProtoLibrary(s *ProtoLibrary, file string) (*config.ProtoLibrary, error) {
	l, err := label.Parse(s.Label)
	if err != nil {
		return nil, err
	}
	deps, err := parseDeps(l, s.Deps)
	if err != nil {
		return nil, err
	}
	return &config.ProtoLibrary{
		Label:             l,
		Srcs:              s.Srcs,
		Deps:              deps,
		StripImportPrefix: s.StripImportPrefix,
		DescriptorSet:     s.DescriptorSet,
		SourceFile:        file,
	}, nil
}

// translateSwiftProtoLibrary converts the HCL-specific swift_proto_library schema into the agnostic model.
func translateSwiftProtoLibrary(s *SwiftProtoLibrary, file string) (*config.SwiftProtoLibrary, error) {
	l, err := label.Parse(s.Label)
	if err != nil {
		return nil, err
	}
	deps, err := parseDeps(l, s.Deps)
	if err != nil {
		return nil, err
	}
	return &config.SwiftProtoLibrary{Label: l, Deps: deps, SourceFile: file}, nil
}
