// Package descriptorset reads binary FileDescriptorSet files, the format
// schema libraries hand to the code generator.
package descriptorset

import (
	"fmt"
	"io"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// FileSummary describes one file inside a descriptor set.
type FileSummary struct {
	Name         string   `yaml:"name"`
	Package      string   `yaml:"package,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Messages     int      `yaml:"messages"`
	Enums        int      `yaml:"enums"`
	Services     int      `yaml:"services"`
}

// Read decodes a descriptor set from r.
func Read(r io.Reader) (*descriptorpb.FileDescriptorSet, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor set: %w", err)
	}
	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(b, set); err != nil {
		return nil, fmt.Errorf("decoding descriptor set: %w", err)
	}
	return set, nil
}

// Load reads the descriptor set stored at path.
func Load(path string) (*descriptorpb.FileDescriptorSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Files returns the names of the files in set, in order.
func Files(set *descriptorpb.FileDescriptorSet) []string {
	out := make([]string, 0, len(set.GetFile()))
	for _, f := range set.GetFile() {
		out = append(out, f.GetName())
	}
	return out
}

// Summarize describes every file in set.
func Summarize(set *descriptorpb.FileDescriptorSet) []FileSummary {
	out := make([]FileSummary, 0, len(set.GetFile()))
	for _, f := range set.GetFile() {
		out = append(out, FileSummary{
			Name:         f.GetName(),
			Package:      f.GetPackage(),
			Dependencies: f.GetDependency(),
			Messages:     len(f.GetMessageType()),
			Enums:        len(f.GetEnumType()),
			Services:     len(f.GetService()),
		})
	}
	return out
}

// Resolve links the files of set into a registry, failing when an import is
// missing from the set.
func Resolve(set *descriptorpb.FileDescriptorSet) (*protoregistry.Files, error) {
	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, fmt.Errorf("resolving descriptor set: %w", err)
	}
	return files, nil
}
