package r2a

import "github.com/apache/arrow-go/v18/arrow"

// Metadata keys attached to Arrow schemas and fields produced by this
// package.
const (
	MetaTypeName    = "r2a.type_name"
	MetaSourceType  = "r2a.source_type"
	MetaCardinality = "r2a.cardinality"
	MetaVersion     = "r2a.version"

	FormatVersion = "1"
)

// MessageStructColumn is the column name that binds the whole message as a
// single struct column.
const MessageStructColumn = "message_struct"

func schemaMetadata(s *SchemaDescriptor) *arrow.Metadata {
	md := arrow.NewMetadata(
		[]string{MetaTypeName, MetaVersion},
		[]string{s.name, FormatVersion},
	)
	return &md
}

func fieldMetadata(f *FieldDescriptor) arrow.Metadata {
	return arrow.NewMetadata(
		[]string{MetaSourceType, MetaCardinality},
		[]string{f.SourceType(), f.card.String()},
	)
}
