package action

import (
	"fmt"

	"github.com/vk/protoswift/internal/label"
)

// Kind is the mnemonic of an action.
type Kind string

const (
	// KindDescriptorSet produces a schema library's binary descriptor set.
	KindDescriptorSet Kind = "ProtoDescriptorSet"
	// KindGenerate runs the code generator over a node's direct sources.
	KindGenerate Kind = "SwiftProtoGenerate"
	// KindCompile compiles a node's generated sources into a module.
	KindCompile Kind = "SwiftCompile"
)

// Command is an executable plus its arguments.
type Command struct {
	Executable string
	Args       []string
}

// Action is one registered tool invocation.
type Action struct {
	Kind  Kind
	Owner label.Label

	Executable string
	// Args are the arguments passed on the command line. When ParamFile is
	// set they consist of a single "@<ParamFile>" argument.
	Args      []string
	ParamFile string

	Inputs  []string
	Outputs []string

	// Progress is the human-readable message logged when the action starts.
	Progress string
}

// ID returns a stable identifier, unique per owner and kind.
func (a *Action) ID() string {
	return fmt.Sprintf("%s %s", a.Kind, a.Owner)
}

// Argv returns the full command line.
func (a *Action) Argv() []string {
	argv := make([]string, 0, len(a.Args)+1)
	argv = append(argv, a.Executable)
	return append(argv, a.Args...)
}

// FileWrite is a file with content known at analysis time.
type FileWrite struct {
	Owner   label.Label
	Path    string
	Content []byte
}
