package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/protoswift/internal/testutil"
)

func toolchainHCL(interop bool) string {
	supports := "false"
	if interop {
		supports = "true"
	}
	return `
toolchain "//tools:swift" {
  protoc                = "protoc"
  swift_plugin          = "tools/protoc-gen-swift"
  supports_interop      = ` + supports + `
  implicit_interop_deps = ["tools/libinterop_support.a"]

  runtime_library ":SwiftProtobuf" {
    module      = "SwiftProtobuf"
    swiftmodule = "tools/SwiftProtobuf.swiftmodule"
    library     = "tools/libSwiftProtobuf.a"
  }
}
`
}

const buildHCL = `
proto_library "//Pkg:Q" {
  srcs = ["c.proto"]
}
proto_library "//Pkg:P" {
  srcs = ["a.proto", "b.proto"]
  deps = [":Q"]
}
proto_library "//Pkg:alias" {
  deps = [":P"]
}
`

// Test for: a module links its own library, its deps' and the runtime's.
func TestLinking_NativeContext(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{"tools/BUILD.hcl": toolchainHCL(false), "BUILD.hcl": buildHCL}

	// --- Act ---
	result := testutil.RunPlan(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	p := result.Module(t, "//Pkg:P")
	assert.ElementsMatch(t, []string{
		"bin/Pkg/libP.swift.a",
		"bin/Pkg/libQ.swift.a",
		"tools/libSwiftProtobuf.a",
	}, p.Libraries)

	compileP := result.Actions(t, "//Pkg:P")
	require.NotEmpty(t, compileP)
	var inputs []string
	for _, a := range compileP {
		if a.Kind == "SwiftCompile" {
			inputs = a.Inputs
		}
	}
	assert.Contains(t, inputs, "tools/SwiftProtobuf.swiftmodule")
}

// Test for: a library without sources registers nothing and passes its
// deps' linking metadata through unchanged.
func TestLinking_PassThrough(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{"tools/BUILD.hcl": toolchainHCL(false), "BUILD.hcl": buildHCL}

	// --- Act ---
	result := testutil.RunPlan(t, files)

	// --- Assert ---
	require.NoError(t, result.Err)
	alias := result.Module(t, "//Pkg:alias")
	p := result.Module(t, "//Pkg:P")

	assert.Empty(t, result.Actions(t, "//Pkg:alias"))
	assert.Equal(t, p.Libraries, alias.Libraries)
	assert.Equal(t, p.Mappings, alias.Mappings)
	assert.Equal(t, p.GeneratedFiles, alias.GeneratedFiles)
}

// Test for: the interop component exists exactly when the toolchain supports
// it, and then carries the implicit interop libraries.
func TestLinking_InteropFollowsToolchain(t *testing.T) {
	t.Run("unsupported", func(t *testing.T) {
		result := testutil.RunPlan(t, map[string]string{"tools/BUILD.hcl": toolchainHCL(false), "BUILD.hcl": buildHCL})
		require.NoError(t, result.Err)
		for _, m := range result.Plan.Modules {
			assert.Nil(t, m.Interop, m.Label)
		}
	})

	t.Run("supported", func(t *testing.T) {
		result := testutil.RunPlan(t, map[string]string{"tools/BUILD.hcl": toolchainHCL(true), "BUILD.hcl": buildHCL})
		require.NoError(t, result.Err)
		for _, m := range result.Plan.Modules {
			assert.NotNil(t, m.Interop, m.Label)
		}
		p := result.Module(t, "//Pkg:P")
		assert.Contains(t, p.Interop, "tools/libinterop_support.a")
		assert.Contains(t, p.Interop, "bin/Pkg/libP.swift.a")
		assert.Contains(t, p.Interop, "bin/Pkg/libQ.swift.a")
	})
}
