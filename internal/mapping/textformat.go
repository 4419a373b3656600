package mapping

import (
	"fmt"
	"io"
	"sync"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// The generator reads its module mappings as a text-format
// swift_protobuf.ModuleMappings message. The schema is small and fixed, so
// its descriptor is assembled here instead of depending on generated code.
var (
	schemaOnce sync.Once
	schemaErr  error

	mappingsDesc    protoreflect.MessageDescriptor
	mappingField    protoreflect.FieldDescriptor
	moduleNameField protoreflect.FieldDescriptor
	filePathField   protoreflect.FieldDescriptor
)

func loadSchema() error {
	schemaOnce.Do(func() {
		fdp := &descriptorpb.FileDescriptorProto{
			Name:    proto.String("swift_protobuf_module_mappings.proto"),
			Package: proto.String("swift_protobuf"),
			Syntax:  proto.String("proto3"),
			MessageType: []*descriptorpb.DescriptorProto{{
				Name: proto.String("ModuleMappings"),
				Field: []*descriptorpb.FieldDescriptorProto{{
					Name:     proto.String("mapping"),
					JsonName: proto.String("mapping"),
					Number:   proto.Int32(1),
					Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
					Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
					TypeName: proto.String(".swift_protobuf.ModuleMappings.Entry"),
				}},
				NestedType: []*descriptorpb.DescriptorProto{{
					Name: proto.String("Entry"),
					Field: []*descriptorpb.FieldDescriptorProto{
						{
							Name:     proto.String("module_name"),
							JsonName: proto.String("moduleName"),
							Number:   proto.Int32(1),
							Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
							Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
						},
						{
							Name:     proto.String("proto_file_path"),
							JsonName: proto.String("protoFilePath"),
							Number:   proto.Int32(2),
							Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
							Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
						},
					},
				}},
			}},
		}

		fd, err := protodesc.NewFile(fdp, new(protoregistry.Files))
		if err != nil {
			schemaErr = fmt.Errorf("building module mappings schema: %w", err)
			return
		}
		mappingsDesc = fd.Messages().ByName("ModuleMappings")
		mappingField = mappingsDesc.Fields().ByName("mapping")
		entry := mappingsDesc.Messages().ByName("Entry")
		moduleNameField = entry.Fields().ByName("module_name")
		filePathField = entry.Fields().ByName("proto_file_path")
	})
	return schemaErr
}

// Marshal encodes t in the generator's text format.
func Marshal(t Table) ([]byte, error) {
	if err := loadSchema(); err != nil {
		return nil, err
	}

	msg := dynamicpb.NewMessage(mappingsDesc)
	list := msg.Mutable(mappingField).List()
	for _, e := range t.entries {
		entry := list.NewElement().Message()
		entry.Set(moduleNameField, protoreflect.ValueOfString(e.ModuleName))
		paths := entry.Mutable(filePathField).List()
		for _, p := range e.FilePaths {
			paths.Append(protoreflect.ValueOfString(p))
		}
		list.Append(protoreflect.ValueOfMessage(entry))
	}

	out, err := prototext.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding module mappings: %w", err)
	}
	return out, nil
}

// Unmarshal decodes a text-format mapping file.
func Unmarshal(content []byte) (Table, error) {
	if err := loadSchema(); err != nil {
		return Table{}, err
	}

	msg := dynamicpb.NewMessage(mappingsDesc)
	if err := prototext.Unmarshal(content, msg); err != nil {
		return Table{}, fmt.Errorf("decoding module mappings: %w", err)
	}

	list := msg.Get(mappingField).List()
	entries := make([]ModuleMapping, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		entry := list.Get(i).Message()
		paths := entry.Get(filePathField).List()
		m := ModuleMapping{ModuleName: entry.Get(moduleNameField).String()}
		for j := 0; j < paths.Len(); j++ {
			m.FilePaths = append(m.FilePaths, paths.Get(j).String())
		}
		entries = append(entries, m)
	}
	return Table{entries: entries}, nil
}

// WriteFile writes t to w in text format.
func WriteFile(w io.Writer, t Table) error {
	b, err := Marshal(t)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ParseFile reads a text-format mapping file from r.
func ParseFile(r io.Reader) (Table, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("reading module mappings: %w", err)
	}
	return Unmarshal(b)
}
