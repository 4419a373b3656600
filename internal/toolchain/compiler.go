package toolchain

import (
	"path"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/label"
	"github.com/vk/protoswift/internal/linking"
)

// CompileOutputs are the files a compile action produces.
type CompileOutputs struct {
	SwiftModule    string
	Library        string
	SwiftInterface string
}

// Paths lists the non-empty outputs in a fixed order.
func (o CompileOutputs) Paths() []string {
	var out []string
	for _, p := range []string{o.SwiftModule, o.Library, o.SwiftInterface} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// CompileRequest is everything a compiler needs to build one module.
type CompileRequest struct {
	Owner      label.Label
	ModuleName string
	Sources    []string
	// Imports are the modules the sources may import: transitive
	// dependencies first, then runtime libraries.
	Imports []linking.CompiledModule
	Outputs CompileOutputs

	LibraryEvolution bool
	EmitInterface    bool
	Options          []string
}

// Compiler turns a compile request into a command line.
type Compiler interface {
	CompileCommand(req CompileRequest) (action.Command, CompileOutputs)
}

// Swiftc builds command lines for the swiftc driver.
type Swiftc struct {
	Path string
}

// CompileCommand implements Compiler. The interface output is dropped unless
// the request asks for one.
func (s *Swiftc) CompileCommand(req CompileRequest) (action.Command, CompileOutputs) {
	outs := req.Outputs
	if !req.EmitInterface {
		outs.SwiftInterface = ""
	}

	args := []string{
		"-parse-as-library",
		"-module-name", req.ModuleName,
		"-emit-module",
		"-emit-module-path", outs.SwiftModule,
		"-emit-library",
		"-static",
		"-o", outs.Library,
	}
	if req.LibraryEvolution {
		args = append(args, "-enable-library-evolution")
	}
	if outs.SwiftInterface != "" {
		args = append(args, "-emit-module-interface-path", outs.SwiftInterface)
	}

	seen := make(map[string]struct{})
	for _, m := range req.Imports {
		dir := path.Dir(m.SwiftModule)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		args = append(args, "-I", dir)
	}

	args = append(args, StripTestingOptions(req.Options)...)
	args = append(args, req.Sources...)
	return action.Command{Executable: s.Path, Args: args}, outs
}

// StripTestingOptions removes -enable-testing from opts. Generated modules
// are never built with testing support.
func StripTestingOptions(opts []string) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		if o == "-enable-testing" {
			continue
		}
		out = append(out, o)
	}
	return out
}
