// Package protoinfo computes the metadata a schema library exposes to its
// consumers: the import paths of its sources, its descriptor set and the
// transitive descriptor sets and sources of everything it depends on.
package protoinfo

import (
	"fmt"
	"path"
	"strings"

	"github.com/vk/protoswift/internal/builderr"
	"github.com/vk/protoswift/internal/depset"
	"github.com/vk/protoswift/internal/label"
)

// Source is one schema file.
type Source struct {
	// Path is the file's workspace-relative location on disk.
	Path string
	// ImportPath is the path other schema files use to import it, relative
	// to the library's source root.
	ImportPath string
}

// Info is the metadata of one schema library.
type Info struct {
	Label      label.Label
	Sources    []Source
	SourceRoot string

	// DirectDescriptorSet is the library's own descriptor set, empty when the
	// library has no sources.
	DirectDescriptorSet string
	// TransitiveDescriptorSets holds the library's own descriptor set
	// followed by its dependencies'.
	TransitiveDescriptorSets depset.Set[string]
	// DepsDescriptorSets holds only the dependencies' descriptor sets.
	DepsDescriptorSets depset.Set[string]
	TransitiveSources  depset.Set[Source]
}

// ImportPaths returns the import paths of the direct sources.
func (i *Info) ImportPaths() []string {
	out := make([]string, 0, len(i.Sources))
	for _, s := range i.Sources {
		out = append(out, s.ImportPath)
	}
	return out
}

// PackageDir returns the workspace-relative directory of l's package.
// Packages of external repositories live under external/<repo>.
func PackageDir(l label.Label) string {
	return path.Join(repoDir(l), l.Package)
}

func repoDir(l label.Label) string {
	if l.Repo == "" {
		return ""
	}
	return path.Join("external", l.Repo)
}

// SourceRoot resolves a strip_import_prefix attribute. An empty prefix keeps
// import paths relative to the repository root, a prefix starting with '/'
// is repository-relative and any other prefix is relative to l's package.
func SourceRoot(l label.Label, stripImportPrefix string) string {
	switch {
	case stripImportPrefix == "":
		return repoDir(l)
	case strings.HasPrefix(stripImportPrefix, "/"):
		return path.Join(repoDir(l), strings.TrimPrefix(stripImportPrefix, "/"))
	default:
		return path.Join(PackageDir(l), stripImportPrefix)
	}
}

// ImportPath returns p relative to root.
func ImportPath(p, root string) (string, error) {
	if root == "" || root == "." {
		return p, nil
	}
	rel, ok := strings.CutPrefix(p, root+"/")
	if !ok || rel == "" {
		return "", fmt.Errorf("%q is not under source root %q", p, root)
	}
	return rel, nil
}

// NewSources resolves the package-relative srcs of l against root.
func NewSources(l label.Label, srcs []string, root string) ([]Source, error) {
	out := make([]Source, 0, len(srcs))
	seen := make(map[string]struct{}, len(srcs))
	for _, src := range srcs {
		if src == "" || path.IsAbs(src) || strings.HasPrefix(path.Clean(src), "..") {
			return nil, builderr.Configf("protoinfo.NewSources", l.String(), "invalid source %q", src)
		}
		if !strings.HasSuffix(src, ".proto") {
			return nil, builderr.Configf("protoinfo.NewSources", l.String(), "source %q is not a .proto file", src)
		}
		p := path.Join(PackageDir(l), src)
		if _, dup := seen[p]; dup {
			return nil, builderr.Configf("protoinfo.NewSources", l.String(), "source %q listed twice", src)
		}
		seen[p] = struct{}{}

		imp, err := ImportPath(p, root)
		if err != nil {
			return nil, builderr.Configf("protoinfo.NewSources", l.String(), "%w", err)
		}
		out = append(out, Source{Path: p, ImportPath: imp})
	}
	return out, nil
}
