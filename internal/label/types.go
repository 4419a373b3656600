package label

// Label is the structured representation of a unique target identifier.
type Label struct {
	// Repo is the external repository name without the leading '@'.
	// Empty for the main workspace.
	Repo string
	// Package is the slash-separated package path, without leading '//'.
	// Empty for the workspace root package.
	Package string
	// Name is the target name inside the package.
	Name string
}

// New creates a label in the main workspace.
func New(pkg, name string) Label {
	return Label{Package: pkg, Name: name}
}

// IsZero reports whether the label is the zero value.
func (l Label) IsZero() bool {
	return l == Label{}
}

// IsExternal reports whether the label points into an external repository.
func (l Label) IsExternal() bool {
	return l.Repo != ""
}
