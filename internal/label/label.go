package label

import (
	"strings"
)

// String serializes the label into its canonical string representation.
func (l Label) String() string {
	if l.IsZero() {
		return ""
	}

	var sb strings.Builder
	if l.Repo != "" {
		sb.WriteRune('@')
		sb.WriteString(l.Repo)
	}
	sb.WriteString("//")
	sb.WriteString(l.Package)
	sb.WriteRune(':')
	sb.WriteString(l.Name)
	return sb.String()
}

// ModuleName derives the generated module name for the target. The package
// path and the target name are joined with '_', every byte that is not an
// ASCII letter, digit or '_' becomes '_', and a leading digit gets a '_'
// prefix. Targets in external repositories are prefixed with the repository
// name in the same way.
//
// The result is deterministic: the same label always yields the same name.
func (l Label) ModuleName() string {
	var parts []string
	if l.Repo != "" {
		parts = append(parts, l.Repo)
	}
	if l.Package != "" {
		parts = append(parts, l.Package)
	}
	parts = append(parts, l.Name)

	raw := strings.Join(parts, "_")
	out := make([]byte, 0, len(raw)+1)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) > 0 && out[0] >= '0' && out[0] <= '9' {
		out = append([]byte{'_'}, out...)
	}
	return string(out)
}

// Less orders labels by their canonical string form.
func Less(a, b Label) bool {
	return a.String() < b.String()
}
