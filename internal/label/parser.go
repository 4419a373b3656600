package label

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	repoRegex    = regexp.MustCompile(`^[a-zA-Z0-9_.\-~+]+$`)
	segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-+@]+$`)
	nameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_.\-+@/]+$`)
)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	return name != "." && name != ".."
}

// Parse creates a Label from its canonical string representation. Only
// absolute labels are accepted; use ParseRelative for `:name` forms.
func Parse(raw string) (Label, error) {
	if raw == "" {
		return Label{}, fmt.Errorf("label cannot be empty")
	}

	var l Label
	rest := raw
	if strings.HasPrefix(rest, "@") {
		idx := strings.Index(rest, "//")
		if idx < 0 {
			return Label{}, fmt.Errorf("invalid label %q: repository must be followed by '//'", raw)
		}
		l.Repo = rest[1:idx]
		if !repoRegex.MatchString(l.Repo) {
			return Label{}, fmt.Errorf("invalid label %q: bad repository name %q", raw, l.Repo)
		}
		rest = rest[idx:]
	}
	if !strings.HasPrefix(rest, "//") {
		return Label{}, fmt.Errorf("invalid label %q: must start with '//' or '@repo//'", raw)
	}
	rest = rest[2:]

	pkg, name, hasName := strings.Cut(rest, ":")
	if err := validatePackage(pkg); err != nil {
		return Label{}, fmt.Errorf("invalid label %q: %w", raw, err)
	}
	l.Package = pkg

	if !hasName {
		if pkg == "" {
			return Label{}, fmt.Errorf("invalid label %q: root package label needs an explicit name", raw)
		}
		name = pkg[strings.LastIndex(pkg, "/")+1:]
	}
	if err := validateName(name); err != nil {
		return Label{}, fmt.Errorf("invalid label %q: %w", raw, err)
	}
	l.Name = name

	return l, nil
}

// ParseRelative parses raw, resolving the `:name` and `name` shorthands
// against the package of from.
func ParseRelative(raw string, from Label) (Label, error) {
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "@") {
		return Parse(raw)
	}
	name := strings.TrimPrefix(raw, ":")
	if err := validateName(name); err != nil {
		return Label{}, fmt.Errorf("invalid label %q relative to %s: %w", raw, from, err)
	}
	return Label{Repo: from.Repo, Package: from.Package, Name: name}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static tables.
func MustParse(raw string) Label {
	l, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return l
}

func validatePackage(pkg string) error {
	if pkg == "" {
		return nil
	}
	for _, segment := range strings.Split(pkg, "/") {
		if segment == "" {
			return fmt.Errorf("package path contains empty segment")
		}
		if !segmentRegex.MatchString(segment) || !isValidSegmentName(segment) {
			return fmt.Errorf("invalid package segment %q", segment)
		}
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid target name %q", name)
	}
	for _, segment := range strings.Split(name, "/") {
		if segment == "" || !isValidSegmentName(segment) {
			return fmt.Errorf("invalid target name %q", name)
		}
	}
	return nil
}
