// Package config defines the format-agnostic model of a workspace's build
// files: the toolchain, the runtime libraries it ships, the schema libraries
// and the Swift consumer targets that depend on them, along with the Loader
// interface that reads it from disk.
//
// The `config.Model` is the single source of truth for the `dag` and
// `analysis` packages. Concrete loaders, such as the HCL one, live in
// separate packages.
package config
