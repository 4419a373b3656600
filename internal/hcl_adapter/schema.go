package hcl_adapter

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Toolchains          []*Toolchain         `hcl:"toolchain,block"`
	ProtoLibraries      []*ProtoLibrary      `hcl:"proto_library,block"`
	SwiftProtoLibraries []*SwiftProtoLibrary `hcl:"swift_proto_library,block"`
}

// Toolchain is the HCL schema of a `toolchain` block.
type Toolchain struct {
	Label               string            `hcl:"label,label"`
	Protoc              string            `hcl:"protoc"`
	SwiftPlugin         string            `hcl:"swift_plugin"`
	Swiftc              string            `hcl:"swiftc,optional"`
	SupportsInterop     bool              `hcl:"supports_interop,optional"`
	Features            []string          `hcl:"features,optional"`
	CompileOptions      []string          `hcl:"compile_options,optional"`
	ImplicitInteropDeps []string          `hcl:"implicit_interop_deps,optional"`
	RuntimeLibraries    []*RuntimeLibrary `hcl:"runtime_library,block"`
}

// RuntimeLibrary is the HCL schema of a `runtime_library` block.
type RuntimeLibrary struct {
	Label       string   `hcl:"label,label"`
	Module      string   `hcl:"module"`
	SwiftModule string   `hcl:"swiftmodule"`
	Library     string   `hcl:"library,optional"`
	Linkopts    []string `hcl:"linkopts,optional"`
	Interop     bool     `hcl:"interop,optional"`
}

// ProtoLibrary is the HCL schema of a `proto_library` block.
type ProtoLibrary struct {
	Label             string   `hcl:"label,label"`
	Srcs              []string `hcl:"srcs,optional"`
	Deps              []string `hcl:"deps,optional"`
	StripImportPrefix string   `hcl:"strip_import_prefix,optional"`
	DescriptorSet     string   `hcl:"descriptor_set,optional"`
}

// SwiftProtoLibrary is the HCL schema of a `swift_proto_library` block.
type SwiftProtoLibrary struct {
	Label string   `hcl:"label,label"`
	Deps  []string `hcl:"deps"`
}
