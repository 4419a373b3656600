// Package plan renders the outcome of an analysis for humans and tools:
// the generated modules with their mapping tables, and the actions a build
// would run.
package plan

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/analysis"
	"github.com/vk/protoswift/internal/linking"
)

// Output formats accepted by Render.
const (
	FormatYAML = "yaml"
	FormatText = "text"
)

// Plan is the serializable view of an analysis.
type Plan struct {
	Targets    []string `yaml:"targets"`
	Modules    []Module `yaml:"modules"`
	Actions    []Action `yaml:"actions"`
	FileWrites []string `yaml:"file_writes,omitempty"`
}

// Module describes one evaluated node.
type Module struct {
	Label          string    `yaml:"label"`
	ModuleName     string    `yaml:"module_name"`
	Stage          string    `yaml:"stage"`
	Mappings       []Mapping `yaml:"mappings,omitempty"`
	GeneratedFiles []string  `yaml:"generated_files,omitempty"`
	Libraries      []string  `yaml:"libraries,omitempty"`
	// Interop is nil when the toolchain cannot link interop code.
	Interop []string `yaml:"interop,omitempty"`
}

// Mapping is one entry of a module-mapping table.
type Mapping struct {
	Module string   `yaml:"module"`
	Files  []string `yaml:"files"`
}

// Action is one tool invocation.
type Action struct {
	Kind      string   `yaml:"kind"`
	Owner     string   `yaml:"owner"`
	Argv      []string `yaml:"argv"`
	ParamFile string   `yaml:"param_file,omitempty"`
	Params    []string `yaml:"params,omitempty"`
	Inputs    []string `yaml:"inputs,omitempty"`
	Outputs   []string `yaml:"outputs"`
}

// New builds the plan of a. Modules appear in dependency order, actions in
// the order of the action graph.
func New(a *analysis.Analysis) *Plan {
	p := &Plan{}
	for _, t := range a.Targets {
		p.Targets = append(p.Targets, t.String())
	}

	for _, r := range a.Ordered() {
		m := Module{
			Label:          r.Label.String(),
			ModuleName:     r.ModuleName,
			Stage:          r.Stage.String(),
			GeneratedFiles: r.ModuleInfo.GeneratedFiles.ToList(),
		}
		for _, e := range r.ModuleInfo.Mappings.Entries() {
			m.Mappings = append(m.Mappings, Mapping{Module: e.ModuleName, Files: e.FilePaths})
		}
		for _, lib := range linking.UnwrapNative(r.Linking).Libraries.ToList() {
			m.Libraries = append(m.Libraries, lib.StaticLibrary)
		}
		if interop, ok := linking.UnwrapInterop(r.Linking); ok {
			m.Interop = []string{}
			for _, lib := range interop.Libraries.ToList() {
				m.Interop = append(m.Interop, lib.StaticLibrary)
			}
		}
		p.Modules = append(p.Modules, m)
	}

	for _, act := range a.Actions.Actions {
		p.Actions = append(p.Actions, newAction(a.Actions, act))
	}
	for _, w := range a.Actions.Writes {
		p.FileWrites = append(p.FileWrites, w.Path)
	}
	return p
}

func newAction(g *action.Graph, a *action.Action) Action {
	out := Action{
		Kind:      string(a.Kind),
		Owner:     a.Owner.String(),
		Argv:      a.Argv(),
		ParamFile: a.ParamFile,
		Inputs:    a.Inputs,
		Outputs:   a.Outputs,
	}
	if a.ParamFile == "" {
		return out
	}
	if w, ok := g.Write(a.ParamFile); ok {
		out.Params = action.DecodeMultiline(w.Content)
	}
	return out
}

// Render writes p to w in the given format.
func Render(w io.Writer, p *Plan, format string) error {
	switch format {
	case FormatYAML, "":
		return p.WriteYAML(w)
	case FormatText:
		return p.WriteText(w)
	default:
		return fmt.Errorf("unknown plan format %q: must be '%s' or '%s'", format, FormatYAML, FormatText)
	}
}

// WriteYAML encodes p as a YAML document.
func (p *Plan) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	return enc.Close()
}

// WriteText writes a compact listing of p meant for terminals.
func (p *Plan) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tMODULE\tSTAGE\tFILES")
	for _, m := range p.Modules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", m.Label, m.ModuleName, m.Stage, len(m.GeneratedFiles))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, m := range p.Modules {
		if len(m.Mappings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s mappings:\n", m.Label)
		for _, e := range m.Mappings {
			fmt.Fprintf(w, "  %s: %s\n", e.Module, strings.Join(e.Files, ", "))
		}
	}

	fmt.Fprintf(w, "\n%d actions, %d file writes\n", len(p.Actions), len(p.FileWrites))
	for _, a := range p.Actions {
		if _, err := fmt.Fprintf(w, "  [%s] %s -> %s\n", a.Kind, a.Owner, strings.Join(a.Outputs, " ")); err != nil {
			return err
		}
	}
	return nil
}
