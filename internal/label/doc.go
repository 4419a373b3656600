/*
Package label provides a structured, type-safe representation of build
target identities, based on the canonical format `@repo//package/path:name`.

The repository part is optional and omitted for targets in the main
workspace. A label without an explicit `:name` names the target that shares
the last package segment, so `//foo/bar` is `//foo/bar:bar`.

This package owns all label parsing and formatting, and derives the
generated module name of a schema library from its label.
*/
package label
