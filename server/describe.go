// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"

	"github.com/istvan-fodor/r2a/r2a"
)

// Describe metadata keys.
const (
	MetaDescribeVersion = "r2a.describe_version"
	DescribeVersion     = "1"
)

// describeSchema is the schema of the describe batch: one row per
// registered type.
var describeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "type", Type: arrow.BinaryTypes.String},
	{Name: "num_fields", Type: arrow.PrimitiveTypes.Int32},
	{Name: "fields_json", Type: arrow.BinaryTypes.String},
	{Name: "flat_fields", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "schema_ipc", Type: arrow.BinaryTypes.Binary},
}, nil)

// FieldDescription describes one field of a message type.
type FieldDescription struct {
	Name       string              `json:"name" yaml:"name"`
	SourceType string              `json:"source_type" yaml:"source_type"`
	ArrowType  string              `json:"arrow_type" yaml:"arrow_type"`
	Nullable   bool                `json:"nullable" yaml:"nullable"`
	Nested     []*FieldDescription `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// TypeDescription describes a registered message type.
type TypeDescription struct {
	Type       string              `json:"type" yaml:"type"`
	Fields     []*FieldDescription `json:"fields" yaml:"fields"`
	FlatFields []string            `json:"flat_fields" yaml:"flat_fields"`
}

// Describe summarizes a schema descriptor, recursing into composite fields.
func Describe(s *r2a.SchemaDescriptor) *TypeDescription {
	return &TypeDescription{
		Type:       s.Name(),
		Fields:     describeFields(s),
		FlatFields: s.FlatFieldNames(),
	}
}

func describeFields(s *r2a.SchemaDescriptor) []*FieldDescription {
	out := make([]*FieldDescription, 0, s.NumFields())
	for _, f := range s.Fields() {
		d := &FieldDescription{
			Name:       f.Name(),
			SourceType: f.SourceType(),
			ArrowType:  f.Type().String(),
			Nullable:   f.Nullable(),
		}
		if f.Nested() != nil {
			d.Nested = describeFields(f.Nested())
		}
		out = append(out, d)
	}
	return out
}

// SerializeSchema serializes an Arrow schema to IPC stream bytes.
func SerializeSchema(schema *arrow.Schema) []byte {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	_ = w.Close()
	return buf.Bytes()
}

// DescribeBatch builds the describe record batch for the given types, in
// order.
func DescribeBatch(reg *r2a.Registry, types []string) (arrow.RecordBatch, error) {
	mem := memory.NewGoAllocator()

	nameBuilder := array.NewStringBuilder(mem)
	defer nameBuilder.Release()
	numFieldsBuilder := array.NewInt32Builder(mem)
	defer numFieldsBuilder.Release()
	fieldsBuilder := array.NewStringBuilder(mem)
	defer fieldsBuilder.Release()
	flatBuilder := array.NewListBuilder(mem, arrow.BinaryTypes.String)
	defer flatBuilder.Release()
	flatValues := flatBuilder.ValueBuilder().(*array.StringBuilder)
	schemaBuilder := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer schemaBuilder.Release()

	for _, name := range types {
		s, err := reg.SchemaFor(name)
		if err != nil {
			return nil, err
		}
		desc := Describe(s)
		fieldsJSON, err := json.Marshal(desc.Fields)
		if err != nil {
			return nil, err
		}

		nameBuilder.Append(name)
		numFieldsBuilder.Append(int32(s.NumFields()))
		fieldsBuilder.Append(string(fieldsJSON))
		flatBuilder.Append(true)
		flatValues.AppendValues(desc.FlatFields, nil)
		schemaBuilder.Append(SerializeSchema(s.ArrowSchema(false)))
	}

	cols := []arrow.Array{
		nameBuilder.NewArray(),
		numFieldsBuilder.NewArray(),
		fieldsBuilder.NewArray(),
		flatBuilder.NewArray(),
		schemaBuilder.NewArray(),
	}
	for _, c := range cols {
		defer c.Release()
	}

	meta := arrow.NewMetadata([]string{MetaDescribeVersion}, []string{DescribeVersion})
	schema := arrow.NewSchema(describeSchema.Fields(), &meta)
	return array.NewRecordBatch(schema, cols, int64(len(types))), nil
}
