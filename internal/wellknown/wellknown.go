// Package wellknown knows which schema files ship precompiled with the Swift
// protobuf runtime. Generating code for them again would produce duplicate
// symbols, so they are filtered out of every node's sources.
package wellknown

import "github.com/vk/protoswift/internal/protoinfo"

var runtimeBundled = map[string]struct{}{
	"google/protobuf/any.proto":            {},
	"google/protobuf/api.proto":            {},
	"google/protobuf/descriptor.proto":     {},
	"google/protobuf/duration.proto":       {},
	"google/protobuf/empty.proto":          {},
	"google/protobuf/field_mask.proto":     {},
	"google/protobuf/source_context.proto": {},
	"google/protobuf/struct.proto":         {},
	"google/protobuf/timestamp.proto":      {},
	"google/protobuf/type.proto":           {},
	"google/protobuf/wrappers.proto":       {},
}

// IsRuntimeBundled reports whether importPath names a schema the runtime
// already provides. The match is exact.
func IsRuntimeBundled(importPath string) bool {
	_, ok := runtimeBundled[importPath]
	return ok
}

// Filter returns the sources whose import path is not runtime-bundled, in
// their original order.
func Filter(sources []protoinfo.Source) []protoinfo.Source {
	out := make([]protoinfo.Source, 0, len(sources))
	for _, s := range sources {
		if IsRuntimeBundled(s.ImportPath) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Paths returns the runtime-bundled import paths.
func Paths() []string {
	out := make([]string, 0, len(runtimeBundled))
	for p := range runtimeBundled {
		out = append(out, p)
	}
	return out
}
