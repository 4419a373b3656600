package config

import (
	"fmt"
	"sort"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/label"
)

// TargetKind distinguishes the rules a target can be declared with.
type TargetKind string

const (
	KindProtoLibrary      TargetKind = "proto_library"
	KindSwiftProtoLibrary TargetKind = "swift_proto_library"
	KindRuntimeLibrary    TargetKind = "runtime_library"
)

// Model is the unified, format-agnostic representation of every build file
// in the workspace.
type Model struct {
	Toolchain           *Toolchain
	ProtoLibraries      map[label.Label]*ProtoLibrary
	SwiftProtoLibraries map[label.Label]*SwiftProtoLibrary
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		ProtoLibraries:      make(map[label.Label]*ProtoLibrary),
		SwiftProtoLibraries: make(map[label.Label]*SwiftProtoLibrary),
	}
}

// Toolchain is the format-agnostic representation of a `toolchain` block.
type Toolchain struct {
	Label               label.Label
	Protoc              string
	SwiftPlugin         string
	Swiftc              string
	SupportsInterop     bool
	Features            []string
	CompileOptions      []string
	ImplicitInteropDeps []string
	RuntimeLibraries    []*RuntimeLibrary
	SourceFile          string
}

// RuntimeLibrary is a `runtime_library` block nested in the toolchain.
type RuntimeLibrary struct {
	Label       label.Label
	Module      string
	SwiftModule string
	Library     string
	Linkopts    []string
	Interop     bool
}

// ProtoLibrary is the format-agnostic representation of a `proto_library`
// block.
type ProtoLibrary struct {
	Label             label.Label
	Srcs              []string
	Deps              []label.Label
	StripImportPrefix string
	DescriptorSet     string
	SourceFile        string
}

// SwiftProtoLibrary is the format-agnostic representation of a
// `swift_proto_library` block.
type SwiftProtoLibrary struct {
	Label      label.Label
	Deps       []label.Label
	SourceFile string
}

// Kind reports which rule declares l.
func (m *Model) Kind(l label.Label) (TargetKind, bool) {
	if _, ok := m.ProtoLibraries[l]; ok {
		return KindProtoLibrary, true
	}
	if _, ok := m.SwiftProtoLibraries[l]; ok {
		return KindSwiftProtoLibrary, true
	}
	return "", false
}

// Deps returns the declared dependencies of l in order.
func (m *Model) Deps(l label.Label) ([]label.Label, bool) {
	if p, ok := m.ProtoLibraries[l]; ok {
		return p.Deps, true
	}
	if s, ok := m.SwiftProtoLibraries[l]; ok {
		return s.Deps, true
	}
	return nil, false
}

// Labels returns every declared target, sorted.
func (m *Model) Labels() []label.Label {
	out := make([]label.Label, 0, len(m.ProtoLibraries)+len(m.SwiftProtoLibraries))
	for l := range m.ProtoLibraries {
		out = append(out, l)
	}
	for l := range m.SwiftProtoLibraries {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return label.Less(out[i], out[j]) })
	return out
}

// Validate checks the cross-references of the model: a toolchain must
// exist, every dependency must be declared, a schema library may only depend
// on schema libraries, and labels may not be declared twice.
func (m *Model) Validate() error {
	const op = "config.Validate"
	if m.Toolchain == nil {
		return builderr.Configf(op, "", "no toolchain block declared: %w", builderr.ErrMissingCapability)
	}
	for l := range m.SwiftProtoLibraries {
		if p, dup := m.ProtoLibraries[l]; dup {
			return builderr.Configf(op, l.String(), "declared as both proto_library (%s) and swift_proto_library", p.SourceFile)
		}
	}
	for _, l := range m.Labels() {
		kind, _ := m.Kind(l)
		deps, _ := m.Deps(l)
		seen := make(map[label.Label]struct{}, len(deps))
		for _, d := range deps {
			if _, dup := seen[d]; dup {
				return builderr.Configf(op, l.String(), "dependency %s listed twice", d)
			}
			seen[d] = struct{}{}

			depKind, ok := m.Kind(d)
			if !ok {
				return builderr.Configf(op, l.String(), "dependency %s: %w", d, builderr.ErrUnknownTarget)
			}
			if kind == KindProtoLibrary && depKind != KindProtoLibrary {
				return builderr.Configf(op, l.String(), "proto_library cannot depend on %s %s", depKind, d)
			}
		}
	}
	return nil
}

// String summarizes the model for logs.
func (m *Model) String() string {
	return fmt.Sprintf("%d proto_library, %d swift_proto_library", len(m.ProtoLibraries), len(m.SwiftProtoLibraries))
}
