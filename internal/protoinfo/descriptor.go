package protoinfo

import (
	"path"
	"strings"

	"github.com/vk/protoswift/internal/action"
	"github.com/vk/protoswift/internal/depset"
	"github.com/vk/protoswift/internal/label"
)

// Library is the declared form of a schema library.
type Library struct {
	Label             label.Label
	Srcs              []string
	StripImportPrefix string
	// DescriptorSet is an optional prebuilt descriptor set. When set, no
	// descriptor action is registered.
	DescriptorSet string
}

// Result is the outcome of analyzing one library.
type Result struct {
	Info    *Info
	Actions []action.Action
	Writes  []action.FileWrite
}

// DescriptorSetPath returns where the descriptor action of l writes.
func DescriptorSetPath(binDir string, l label.Label) string {
	return path.Join(binDir, PackageDir(l), l.Name+"-descriptor-set.proto.bin")
}

// Build computes lib's Info from its dependencies' Infos, registering a
// descriptor action when the library has sources and no prebuilt set.
func Build(lib Library, deps []*Info, protoc, binDir string) (Result, error) {
	root := SourceRoot(lib.Label, lib.StripImportPrefix)
	srcs, err := NewSources(lib.Label, lib.Srcs, root)
	if err != nil {
		return Result{}, err
	}

	depSets := make([]depset.Set[string], 0, len(deps))
	depSrcs := make([]depset.Set[Source], 0, len(deps))
	for _, d := range deps {
		depSets = append(depSets, d.TransitiveDescriptorSets)
		depSrcs = append(depSrcs, d.TransitiveSources)
	}

	info := &Info{
		Label:              lib.Label,
		Sources:            srcs,
		SourceRoot:         root,
		DepsDescriptorSets: depset.New(nil, depSets...),
		TransitiveSources:  depset.New(srcs, depSrcs...),
	}

	var res Result
	switch {
	case lib.DescriptorSet != "":
		info.DirectDescriptorSet = path.Join(repoDir(lib.Label), lib.DescriptorSet)
	case len(srcs) > 0:
		out := DescriptorSetPath(binDir, lib.Label)
		a, w, err := descriptorAction(info, protoc, out, binDir)
		if err != nil {
			return Result{}, err
		}
		info.DirectDescriptorSet = out
		res.Actions = append(res.Actions, a)
		res.Writes = append(res.Writes, w)
	}

	var direct []string
	if info.DirectDescriptorSet != "" {
		direct = []string{info.DirectDescriptorSet}
	}
	info.TransitiveDescriptorSets = depset.New(direct, depSets...)
	res.Info = info
	return res, nil
}

func descriptorAction(info *Info, protoc, out, binDir string) (action.Action, action.FileWrite, error) {
	protoPath := info.SourceRoot
	if protoPath == "" {
		protoPath = "."
	}
	args := []string{
		"--descriptor_set_out=" + out,
		"--include_source_info",
		"--proto_path=" + protoPath,
	}
	deps := info.DepsDescriptorSets.ToList()
	if len(deps) > 0 {
		args = append(args, "--descriptor_set_in="+strings.Join(deps, ":"))
	}
	args = append(args, info.ImportPaths()...)

	inputs := make([]string, 0, len(info.Sources)+len(deps))
	for _, s := range info.Sources {
		inputs = append(inputs, s.Path)
	}
	inputs = append(inputs, deps...)

	a := action.Action{
		Kind:       action.KindDescriptorSet,
		Owner:      info.Label,
		Executable: protoc,
		Args:       args,
		Inputs:     inputs,
		Outputs:    []string{out},
		Progress:   "Generating descriptor set " + info.Label.String(),
	}
	params := path.Join(binDir, PackageDir(info.Label), info.Label.Name+"-descriptor-set.params")
	return action.WithParamFile(a, params, action.ParamMultiline)
}
