// Package registrar declares the generate and compile actions of one graph
// node. Nothing is executed here: Register only returns the actions and the
// file writes they depend on.
package registrar

import (
	"fmt"
	"path"
	"strings"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/linking"
	"github.com/vk/protoswift/internal/mapping"
	"github.com/vk/protoswift/internal/protoinfo"
	"github.com/vk/protoswift/internal/toolchain"
)

// OutputKind tags the directory generated sources are written under.
const OutputKind = "swift_protoc_gen"

// Env is the build-wide state registration reads.
type Env struct {
	Toolchain *toolchain.Toolchain
	BinDir    string
}

// Input is what one node contributes to registration.
type Input struct {
	Label      label.Label
	ModuleName string
	Info       *protoinfo.Info
	// Sources are the node's direct sources with runtime-bundled files
	// already removed.
	Sources  []protoinfo.Source
	Mappings mapping.Table
	// DepModules are the modules of every transitive dependency.
	DepModules []linking.CompiledModule
}

// Output is the result of registration.
type Output struct {
	Stage   Stage
	Trace   []Stage
	Actions []action.Action
	Writes  []action.FileWrite

	GeneratedFiles []string
	Module         *linking.CompiledModule
	// MappingFile is the module-mapping file passed to the generator, empty
	// when none was needed.
	MappingFile string
}

type registration struct {
	in  Input
	env Env
	out Output

	pkgDir string
}

// Register runs the state machine for one node to completion. A node with
// sources ends up with exactly one generate and one compile action; a node
// without sources gets none.
func Register(in Input, env Env) (Output, error) {
	r := &registration{in: in, env: env, pkgDir: protoinfo.PackageDir(in.Label)}

	stage := StageNoSources
	if len(in.Sources) > 0 {
		stage = StageHasSources
	}
	for {
		r.out.Trace = append(r.out.Trace, stage)
		if stage == StageDone {
			break
		}
		next, err := r.step(stage)
		if err != nil {
			return Output{}, err
		}
		stage = next
	}
	r.out.Stage = stage
	return r.out, nil
}

func (r *registration) step(s Stage) (Stage, error) {
	switch s {
	case StageNoSources:
		return StageDone, nil
	case StageHasSources:
		return StageGenerated, r.generate()
	case StageGenerated:
		return StageCompiled, r.compile()
	case StageCompiled:
		return StageDone, nil
	}
	return s, builderr.New("registrar.Register", builderr.KindInternal, r.in.Label.String(), fmt.Errorf("no transition from stage %s", s))
}

func (r *registration) binPath(elem ...string) string {
	return path.Join(append([]string{r.env.BinDir, r.pkgDir}, elem...)...)
}

// GeneratedDir returns the directory the generator writes l's sources to.
func GeneratedDir(binDir string, l label.Label) string {
	return path.Join(binDir, protoinfo.PackageDir(l), "_"+OutputKind, l.Name)
}

func (r *registration) generate() error {
	const op = "registrar.generate"
	tc := r.env.Toolchain
	info := r.in.Info
	genDir := GeneratedDir(r.env.BinDir, r.in.Label)

	for _, s := range r.in.Sources {
		r.out.GeneratedFiles = append(r.out.GeneratedFiles, path.Join(genDir, strings.TrimSuffix(s.ImportPath, ".proto")+".pb.swift"))
	}

	args := []string{
		"--plugin=protoc-gen-swift=" + tc.SwiftPlugin,
		"--swift_out=" + genDir,
		"--swift_opt=FileNaming=FullPath",
		"--swift_opt=Visibility=Public",
	}
	var inputs []string

	if r.in.Mappings.HasEntriesBesides(r.in.ModuleName) {
		content, err := mapping.Marshal(r.in.Mappings)
		if err != nil {
			return builderr.New(op, builderr.KindInternal, r.in.Label.String(), err)
		}
		r.out.MappingFile = r.binPath(r.in.Label.Name + ".protoc_gen_swift_modules.asciipb")
		r.out.Writes = append(r.out.Writes, action.FileWrite{Owner: r.in.Label, Path: r.out.MappingFile, Content: content})
		args = append(args, "--swift_opt=ProtoPathModuleMappings="+r.out.MappingFile)
		inputs = append(inputs, r.out.MappingFile)
	}

	sourceMode := tc.FeatureEnabled(toolchain.FeatureGenerateFromRawProtoFiles)
	descriptors := info.TransitiveDescriptorSets.ToList()
	if sourceMode {
		descriptors = info.DepsDescriptorSets.ToList()
	}
	if len(descriptors) > 0 {
		args = append(args, "--descriptor_set_in="+strings.Join(descriptors, ":"))
		inputs = append(inputs, descriptors...)
	}

	if sourceMode {
		root := info.SourceRoot
		if root == "" {
			root = "."
		}
		args = append(args, "--proto_path="+root)
		for _, s := range r.in.Sources {
			args = append(args, "-I"+s.ImportPath+"="+s.Path)
			inputs = append(inputs, s.Path)
		}
	}

	for _, s := range r.in.Sources {
		args = append(args, s.ImportPath)
	}

	a := action.Action{
		Kind:       action.KindGenerate,
		Owner:      r.in.Label,
		Executable: tc.Protoc,
		Args:       args,
		Inputs:     inputs,
		Outputs:    append([]string(nil), r.out.GeneratedFiles...),
		Progress:   "Generating Swift sources for " + r.in.Label.String(),
	}
	a, w, err := action.WithParamFile(a, r.binPath(r.in.Label.Name+"."+OutputKind+".params"), action.ParamMultiline)
	if err != nil {
		return builderr.New(op, builderr.KindConfiguration, r.in.Label.String(), err)
	}
	r.out.Actions = append(r.out.Actions, a)
	r.out.Writes = append(r.out.Writes, w)
	return nil
}

func (r *registration) compile() error {
	const op = "registrar.compile"
	tc := r.env.Toolchain
	l := r.in.Label
	moduleDir := r.binPath(l.Name + ".swift")

	imports := make([]linking.CompiledModule, 0, len(r.in.DepModules)+len(tc.RuntimeLibraries))
	imports = append(imports, r.in.DepModules...)
	imports = append(imports, tc.SupportModules()...)

	req := toolchain.CompileRequest{
		Owner:      l,
		ModuleName: r.in.ModuleName,
		Sources:    r.out.GeneratedFiles,
		Imports:    imports,
		Outputs: toolchain.CompileOutputs{
			SwiftModule:    path.Join(moduleDir, r.in.ModuleName+".swiftmodule"),
			Library:        r.binPath("lib" + l.Name + ".swift.a"),
			SwiftInterface: path.Join(moduleDir, r.in.ModuleName+".swiftinterface"),
		},
		LibraryEvolution: tc.FeatureEnabled(toolchain.FeatureEnableLibraryEvolution),
		EmitInterface:    tc.FeatureEnabled(toolchain.FeatureEmitSwiftinterface),
		Options:          tc.EffectiveCompileOptions(),
	}
	cmd, outs := tc.CompilerOrDefault().CompileCommand(req)

	inputs := append([]string(nil), r.out.GeneratedFiles...)
	for _, m := range imports {
		inputs = append(inputs, m.SwiftModule)
	}

	a := action.Action{
		Kind:       action.KindCompile,
		Owner:      l,
		Executable: cmd.Executable,
		Args:       cmd.Args,
		Inputs:     inputs,
		Outputs:    outs.Paths(),
		Progress:   "Compiling Swift module " + r.in.ModuleName,
	}
	a, w, err := action.WithParamFile(a, r.binPath(l.Name+".swiftc.params"), action.ParamShell)
	if err != nil {
		return builderr.New(op, builderr.KindConfiguration, l.String(), err)
	}
	r.out.Actions = append(r.out.Actions, a)
	r.out.Writes = append(r.out.Writes, w)
	r.out.Module = &linking.CompiledModule{
		Owner:          l,
		ModuleName:     r.in.ModuleName,
		SwiftModule:    outs.SwiftModule,
		SwiftInterface: outs.SwiftInterface,
		Library:        outs.Library,
	}
	return nil
}
