// Package mapping builds the tables that tell the code generator which
// module owns which schema file, so generated code imports the right module
// for types defined in dependencies.
package mapping

import (
	"github.com/vk/protoswift/internal/label"
)

// ModuleMapping assigns schema files to a module.
type ModuleMapping struct {
	ModuleName string
	FilePaths  []string
}

// Table is an ordered list of mappings with unique module names. Tables are
// immutable once built.
type Table struct {
	entries []ModuleMapping
}

// BuildDirect returns the mapping of a node's own filtered sources. It
// reports false when there are none, since a module without sources is not
// emitted.
func BuildDirect(l label.Label, importPaths []string) (ModuleMapping, bool) {
	if len(importPaths) == 0 {
		return ModuleMapping{}, false
	}
	return ModuleMapping{
		ModuleName: l.ModuleName(),
		FilePaths:  append([]string(nil), importPaths...),
	}, true
}

// Aggregate concatenates tables in the given order, keeping the first entry
// seen for each module name. Later entries with the same name are dropped
// without comparing their file lists.
func Aggregate(tables ...Table) Table {
	var out []ModuleMapping
	seen := make(map[string]struct{})
	for _, t := range tables {
		for _, e := range t.entries {
			if _, ok := seen[e.ModuleName]; ok {
				continue
			}
			seen[e.ModuleName] = struct{}{}
			out = append(out, e)
		}
	}
	return Table{entries: out}
}

// NewTable returns a node's table: its direct mapping, if any, followed by
// the aggregate of its dependencies' tables in declared order.
func NewTable(direct *ModuleMapping, deps ...Table) Table {
	tables := make([]Table, 0, len(deps)+1)
	if direct != nil {
		tables = append(tables, Table{entries: []ModuleMapping{*direct}})
	}
	return Aggregate(append(tables, deps...)...)
}

// Entries returns a copy of the table's mappings in order.
func (t Table) Entries() []ModuleMapping {
	out := make([]ModuleMapping, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of mappings.
func (t Table) Len() int {
	return len(t.entries)
}

// Lookup returns the mapping for moduleName.
func (t Table) Lookup(moduleName string) (ModuleMapping, bool) {
	for _, e := range t.entries {
		if e.ModuleName == moduleName {
			return e, true
		}
	}
	return ModuleMapping{}, false
}

// HasEntriesBesides reports whether the table maps any module other than
// moduleName.
func (t Table) HasEntriesBesides(moduleName string) bool {
	for _, e := range t.entries {
		if e.ModuleName != moduleName {
			return true
		}
	}
	return false
}

// ModuleNames returns the module names in order.
func (t Table) ModuleNames() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.ModuleName)
	}
	return out
}
