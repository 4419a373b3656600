package registrar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/linking"
	"github.com/vk/protoswift/internal/mapping"
	"github.com/vk/protoswift/internal/protoinfo"
	"github.com/vk/protoswift/internal/toolchain"
)

func testEnv(features ...string) Env {
	return Env{
		BinDir: "bin",
		Toolchain: &toolchain.Toolchain{
			Protoc:         "protoc",
			SwiftPlugin:    "protoc-gen-swift",
			Swiftc:         "swiftc",
			Features:       features,
			CompileOptions: []string{"-enable-testing", "-O"},
			RuntimeLibraries: []toolchain.RuntimeLibrary{{
				Label:       label.MustParse("@swift_protobuf//:SwiftProtobuf"),
				Module:      "SwiftProtobuf",
				SwiftModule: "rt/SwiftProtobuf.swiftmodule",
				Library:     "rt/libSwiftProtobuf.a",
			}},
		},
	}
}

type fixture struct {
	q, p Input
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	q, err := protoinfo.Build(protoinfo.Library{Label: label.MustParse("//Pkg:Q"), Srcs: []string{"c.proto"}}, nil, "protoc", "bin")
	require.NoError(t, err)
	p, err := protoinfo.Build(protoinfo.Library{Label: label.MustParse("//Pkg:P"), Srcs: []string{"a.proto", "b.proto"}}, []*protoinfo.Info{q.Info}, "protoc", "bin")
	require.NoError(t, err)

	qm, _ := mapping.BuildDirect(q.Info.Label, q.Info.ImportPaths())
	pm, _ := mapping.BuildDirect(p.Info.Label, p.Info.ImportPaths())
	qt := mapping.NewTable(&qm)

	return fixture{
		q: Input{
			Label:      q.Info.Label,
			ModuleName: "Pkg_Q",
			Info:       q.Info,
			Sources:    q.Info.Sources,
			Mappings:   qt,
		},
		p: Input{
			Label:      p.Info.Label,
			ModuleName: "Pkg_P",
			Info:       p.Info,
			Sources:    p.Info.Sources,
			Mappings:   mapping.NewTable(&pm, qt),
			DepModules: []linking.CompiledModule{{
				Owner:       q.Info.Label,
				ModuleName:  "Pkg_Q",
				SwiftModule: "bin/Pkg/Q.swift/Pkg_Q.swiftmodule",
				Library:     "bin/Pkg/libQ.swift.a",
			}},
		},
	}
}

func paramArgs(t *testing.T, out Output, a action.Action) []string {
	t.Helper()
	for _, w := range out.Writes {
		if w.Path == a.ParamFile {
			return action.DecodeMultiline(w.Content)
		}
	}
	t.Fatalf("no parameter file written for %s", a.ID())
	return nil
}

func TestRegister_NoSources(t *testing.T) {
	out, err := Register(Input{Label: label.MustParse("//Pkg:L"), ModuleName: "Pkg_L"}, testEnv())
	require.NoError(t, err)

	assert.Equal(t, StageDone, out.Stage)
	assert.Equal(t, []Stage{StageNoSources, StageDone}, out.Trace)
	assert.Empty(t, out.Actions)
	assert.Empty(t, out.Writes)
	assert.Nil(t, out.Module)
}

func TestRegister_DescriptorMode(t *testing.T) {
	f := newFixture(t)

	out, err := Register(f.p, testEnv())
	require.NoError(t, err)

	assert.Equal(t, []Stage{StageHasSources, StageGenerated, StageCompiled, StageDone}, out.Trace)
	require.Len(t, out.Actions, 2)
	gen, comp := out.Actions[0], out.Actions[1]

	t.Run("generate", func(t *testing.T) {
		assert.Equal(t, action.KindGenerate, gen.Kind)
		assert.Equal(t, "protoc", gen.Executable)
		assert.Equal(t, []string{"@bin/Pkg/P.swift_protoc_gen.params"}, gen.Args)
		assert.Equal(t, []string{
			"bin/Pkg/_swift_protoc_gen/P/Pkg/a.pb.swift",
			"bin/Pkg/_swift_protoc_gen/P/Pkg/b.pb.swift",
		}, gen.Outputs)
		assert.Equal(t, gen.Outputs, out.GeneratedFiles)

		assert.Equal(t, "bin/Pkg/P.protoc_gen_swift_modules.asciipb", out.MappingFile)
		assert.Equal(t, []string{
			"--plugin=protoc-gen-swift=protoc-gen-swift",
			"--swift_out=bin/Pkg/_swift_protoc_gen/P",
			"--swift_opt=FileNaming=FullPath",
			"--swift_opt=Visibility=Public",
			"--swift_opt=ProtoPathModuleMappings=bin/Pkg/P.protoc_gen_swift_modules.asciipb",
			"--descriptor_set_in=bin/Pkg/P-descriptor-set.proto.bin:bin/Pkg/Q-descriptor-set.proto.bin",
			"Pkg/a.proto",
			"Pkg/b.proto",
		}, paramArgs(t, out, gen))
		assert.Contains(t, gen.Inputs, out.MappingFile)
		assert.NotContains(t, gen.Inputs, "Pkg/a.proto", "descriptor mode reads no raw sources")
	})

	t.Run("mapping file content", func(t *testing.T) {
		var content []byte
		for _, w := range out.Writes {
			if w.Path == out.MappingFile {
				content = w.Content
			}
		}
		tbl, err := mapping.Unmarshal(content)
		require.NoError(t, err)
		assert.Equal(t, []string{"Pkg_P", "Pkg_Q"}, tbl.ModuleNames())
	})

	t.Run("compile", func(t *testing.T) {
		assert.Equal(t, action.KindCompile, comp.Kind)
		assert.Equal(t, "swiftc", comp.Executable)
		assert.Equal(t, []string{"bin/Pkg/P.swift/Pkg_P.swiftmodule", "bin/Pkg/libP.swift.a"}, comp.Outputs)
		assert.Contains(t, comp.Inputs, "bin/Pkg/_swift_protoc_gen/P/Pkg/a.pb.swift")
		assert.Contains(t, comp.Inputs, "bin/Pkg/Q.swift/Pkg_Q.swiftmodule")
		assert.Contains(t, comp.Inputs, "rt/SwiftProtobuf.swiftmodule")

		var params string
		for _, w := range out.Writes {
			if w.Path == comp.ParamFile {
				params = string(w.Content)
			}
		}
		assert.Equal(t, "bin/Pkg/P.swiftc.params", comp.ParamFile)
		assert.NotContains(t, params, "-enable-testing")
		assert.NotContains(t, params, "-enable-library-evolution")
		assert.Contains(t, params, "-O\n")

		require.NotNil(t, out.Module)
		assert.Equal(t, linking.CompiledModule{
			Owner:       f.p.Label,
			ModuleName:  "Pkg_P",
			SwiftModule: "bin/Pkg/P.swift/Pkg_P.swiftmodule",
			Library:     "bin/Pkg/libP.swift.a",
		}, *out.Module)
	})
}

func TestRegister_MappingFileOnlyWithDependencyEntries(t *testing.T) {
	f := newFixture(t)

	out, err := Register(f.q, testEnv())
	require.NoError(t, err)

	assert.Empty(t, out.MappingFile)
	require.Len(t, out.Writes, 2, "one parameter file per action")
	for _, arg := range paramArgs(t, out, out.Actions[0]) {
		assert.NotContains(t, arg, "ProtoPathModuleMappings")
	}
}

func TestRegister_SourceMode(t *testing.T) {
	f := newFixture(t)

	out, err := Register(f.p, testEnv(toolchain.FeatureGenerateFromRawProtoFiles))
	require.NoError(t, err)

	gen := out.Actions[0]
	args := paramArgs(t, out, gen)
	assert.Contains(t, args, "--descriptor_set_in=bin/Pkg/Q-descriptor-set.proto.bin")
	assert.Contains(t, args, "--proto_path=.")
	assert.Contains(t, args, "-IPkg/a.proto=Pkg/a.proto")
	assert.Contains(t, args, "-IPkg/b.proto=Pkg/b.proto")
	assert.Contains(t, gen.Inputs, "Pkg/a.proto")
	assert.NotContains(t, gen.Inputs, "bin/Pkg/P-descriptor-set.proto.bin")
}

func TestRegister_CompileFeatures(t *testing.T) {
	f := newFixture(t)

	out, err := Register(f.p, testEnv(toolchain.FeatureEnableLibraryEvolution, toolchain.FeatureEmitSwiftinterface))
	require.NoError(t, err)

	comp := out.Actions[1]
	assert.Contains(t, comp.Outputs, "bin/Pkg/P.swift/Pkg_P.swiftinterface")
	assert.Equal(t, "bin/Pkg/P.swift/Pkg_P.swiftinterface", out.Module.SwiftInterface)

	var params string
	for _, w := range out.Writes {
		if w.Path == comp.ParamFile {
			params = string(w.Content)
		}
	}
	assert.Contains(t, params, "-enable-library-evolution\n")
	assert.Contains(t, params, "-emit-module-interface-path\n")
	assert.NotContains(t, params, "-enable-testing")
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "HasSources", StageHasSources.String())
	assert.Equal(t, "Done", StageDone.String())
	assert.Equal(t, "Unknown", Stage(42).String())
}
