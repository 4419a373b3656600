package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/config"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/linking"
)

func validToolchain() *Toolchain {
	return &Toolchain{
		Protoc:      "/usr/bin/protoc",
		SwiftPlugin: "/usr/bin/protoc-gen-swift",
		Swiftc:      "/usr/bin/swiftc",
		RuntimeLibraries: []RuntimeLibrary{{
			Label:       label.MustParse("@swift_protobuf//:SwiftProtobuf"),
			Module:      "SwiftProtobuf",
			SwiftModule: "rt/SwiftProtobuf.swiftmodule",
			Library:     "rt/libSwiftProtobuf.a",
			Interop:     true,
		}},
	}
}

func TestToolchain_Validate(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(tc *Toolchain)
		wantErr  string
		sentinel error
	}{
		{name: "valid", mutate: func(*Toolchain) {}},
		{name: "missing protoc", mutate: func(tc *Toolchain) { tc.Protoc = "" }, wantErr: "protoc is not configured", sentinel: builderr.ErrMissingCapability},
		{name: "missing plugin", mutate: func(tc *Toolchain) { tc.SwiftPlugin = "" }, wantErr: "swift_plugin is not configured", sentinel: builderr.ErrMissingCapability},
		{name: "unknown feature", mutate: func(tc *Toolchain) { tc.Features = []string{"swift.nope"} }, wantErr: `unknown feature "swift.nope"`},
		{
			name: "duplicate runtime module",
			mutate: func(tc *Toolchain) {
				dup := tc.RuntimeLibraries[0]
				dup.Label = label.MustParse("//other:SwiftProtobuf")
				tc.RuntimeLibraries = append(tc.RuntimeLibraries, dup)
			},
			wantErr: `module "SwiftProtobuf" is already provided`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chain := validToolchain()
			tc.mutate(chain)

			err := chain.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.True(t, builderr.IsKind(err, builderr.KindConfiguration))
			if tc.sentinel != nil {
				assert.ErrorIs(t, err, tc.sentinel)
			}
		})
	}
}

func TestToolchain_SupportMetadata(t *testing.T) {
	chain := validToolchain()
	chain.Features = []string{FeatureEmitSwiftinterface}
	chain.CompileOptions = []string{"-O", "-enable-testing", "-g"}

	assert.True(t, chain.FeatureEnabled(FeatureEmitSwiftinterface))
	assert.False(t, chain.FeatureEnabled(FeatureEnableLibraryEvolution))
	assert.Equal(t, []string{"-O", "-g"}, chain.EffectiveCompileOptions())

	bundles := chain.SupportBundles()
	require.Len(t, bundles, 1)
	require.NotNil(t, bundles[0].Interop)
	assert.Equal(t, []linking.LibraryToLink{{
		Owner:         label.MustParse("@swift_protobuf//:SwiftProtobuf"),
		StaticLibrary: "rt/libSwiftProtobuf.a",
	}}, bundles[0].Native.Libraries.ToList())

	mods := chain.SupportModules()
	require.Len(t, mods, 1)
	assert.Equal(t, "SwiftProtobuf", mods[0].ModuleName)

	_, isSwiftc := chain.CompilerOrDefault().(*Swiftc)
	assert.True(t, isSwiftc)
}

func TestSwiftc_CompileCommand(t *testing.T) {
	req := CompileRequest{
		Owner:      label.MustParse("//Pkg:P"),
		ModuleName: "Pkg_P",
		Sources:    []string{"bin/Pkg/_swift_protoc_gen/P/Pkg/a.pb.swift"},
		Imports: []linking.CompiledModule{
			{ModuleName: "Pkg_Q", SwiftModule: "bin/Pkg/Q.swift/Pkg_Q.swiftmodule"},
			{ModuleName: "SwiftProtobuf", SwiftModule: "rt/SwiftProtobuf.swiftmodule"},
			{ModuleName: "Other", SwiftModule: "rt/Other.swiftmodule"},
		},
		Outputs: CompileOutputs{
			SwiftModule:    "bin/Pkg/P.swift/Pkg_P.swiftmodule",
			Library:        "bin/Pkg/libP.swift.a",
			SwiftInterface: "bin/Pkg/P.swift/Pkg_P.swiftinterface",
		},
		Options: []string{"-enable-testing", "-O"},
	}

	t.Run("plain", func(t *testing.T) {
		cmd, outs := (&Swiftc{Path: "swiftc"}).CompileCommand(req)

		assert.Equal(t, "swiftc", cmd.Executable)
		assert.Equal(t, []string{
			"-parse-as-library",
			"-module-name", "Pkg_P",
			"-emit-module",
			"-emit-module-path", "bin/Pkg/P.swift/Pkg_P.swiftmodule",
			"-emit-library",
			"-static",
			"-o", "bin/Pkg/libP.swift.a",
			"-I", "bin/Pkg/Q.swift",
			"-I", "rt",
			"-O",
			"bin/Pkg/_swift_protoc_gen/P/Pkg/a.pb.swift",
		}, cmd.Args)
		assert.Empty(t, outs.SwiftInterface)
		assert.Equal(t, []string{"bin/Pkg/P.swift/Pkg_P.swiftmodule", "bin/Pkg/libP.swift.a"}, outs.Paths())
	})

	t.Run("feature flags", func(t *testing.T) {
		r := req
		r.LibraryEvolution = true
		r.EmitInterface = true

		cmd, outs := (&Swiftc{Path: "swiftc"}).CompileCommand(r)
		assert.Contains(t, cmd.Args, "-enable-library-evolution")
		assert.Contains(t, cmd.Args, "-emit-module-interface-path")
		assert.NotContains(t, cmd.Args, "-enable-testing")
		assert.Equal(t, "bin/Pkg/P.swift/Pkg_P.swiftinterface", outs.SwiftInterface)
		assert.Len(t, outs.Paths(), 3)
	})
}

func TestFromConfig(t *testing.T) {
	owner := label.MustParse("//tools:swift")
	rt := label.MustParse("//tools:SwiftProtobuf")
	tc := FromConfig(&config.Toolchain{
		Label:               owner,
		Protoc:              "protoc",
		SwiftPlugin:         "protoc-gen-swift",
		Swiftc:              "swiftc",
		SupportsInterop:     true,
		Features:            []string{FeatureEmitSwiftinterface},
		ImplicitInteropDeps: []string{"tools/libobjc_support.a"},
		RuntimeLibraries: []*config.RuntimeLibrary{{
			Label:       rt,
			Module:      "SwiftProtobuf",
			SwiftModule: "tools/SwiftProtobuf.swiftmodule",
			Library:     "tools/libSwiftProtobuf.a",
		}},
	})

	require.NoError(t, tc.Validate())
	assert.True(t, tc.SupportsInterop())
	assert.True(t, tc.FeatureEnabled(FeatureEmitSwiftinterface))
	assert.Equal(t, []linking.LibraryToLink{{Owner: owner, StaticLibrary: "tools/libobjc_support.a"}}, tc.ImplicitInteropDeps())

	mods := tc.SupportModules()
	require.Len(t, mods, 1)
	assert.Equal(t, "SwiftProtobuf", mods[0].ModuleName)
	assert.Equal(t, rt, mods[0].Owner)
	assert.Nil(t, tc.SupportBundles()[0].Interop)
}
