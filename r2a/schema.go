// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"reflect"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// PathSeparator joins nested field names in builder column names.
const PathSeparator = "."

// FieldDescriptor describes one field of a message type. It is immutable.
type FieldDescriptor struct {
	name        string
	index       int
	base        BaseType
	stringBound int
	card        Cardinality
	dtype       arrow.DataType
	nullable    bool
	nested      *SchemaDescriptor

	// goIndex is the struct field index when the owning schema was
	// reflected from a Go type, -1 otherwise.
	goIndex int
}

// Name returns the field name, unique within its schema.
func (f *FieldDescriptor) Name() string { return f.name }

// Index returns the declaration position of the field.
func (f *FieldDescriptor) Index() int { return f.index }

// SourceType returns the IDL spelling of the field type.
func (f *FieldDescriptor) SourceType() string { return f.fieldType().String() }

// Base returns the element type before cardinality.
func (f *FieldDescriptor) Base() BaseType { return f.base }

// Type returns the Arrow type of the field.
func (f *FieldDescriptor) Type() arrow.DataType { return f.dtype }

// Cardinality returns the field's array shape.
func (f *FieldDescriptor) Cardinality() Cardinality { return f.card }

// StringBound returns N for string<=N fields, 0 otherwise.
func (f *FieldDescriptor) StringBound() int { return f.stringBound }

// Nullable reports whether the column may contain nulls.
func (f *FieldDescriptor) Nullable() bool { return f.nullable }

// Nested returns the schema of a composite field, or nil.
func (f *FieldDescriptor) Nested() *SchemaDescriptor { return f.nested }

// ArrowField returns the field as an Arrow field, carrying the source type
// and cardinality as field metadata.
func (f *FieldDescriptor) ArrowField() arrow.Field {
	return arrow.Field{
		Name:     f.name,
		Type:     f.dtype,
		Nullable: f.nullable,
		Metadata: fieldMetadata(f),
	}
}

// minElemSize is the smallest CDR encoding of one element of the field,
// ignoring alignment. Nested schemas are built before their parents.
func (f *FieldDescriptor) minElemSize() int {
	switch f.base {
	case TypeString, TypeWString:
		return 4
	case TypeComposite:
		return f.nested.minSize
	}
	return f.base.size()
}

func (f *FieldDescriptor) minEncodedSize() int {
	switch f.card.Kind {
	case Scalar:
		return f.minElemSize()
	case Fixed:
		return f.card.N * f.minElemSize()
	}
	return 4
}

func (f *FieldDescriptor) fieldType() FieldType {
	return FieldType{Base: f.base, Nested: f.nested, StringBound: f.stringBound, Cardinality: f.card}
}

// SchemaDescriptor is the ordered, immutable field list of a message type.
// Descriptors are built by a Registry and shared read-only.
type SchemaDescriptor struct {
	name   string
	fields []*FieldDescriptor
	index  map[string]int
	goType reflect.Type
	st     *arrow.StructType
	// minSize is a lower bound on the CDR size of one message, used to
	// reject sequence counts that cannot fit in a frame.
	minSize int
}

func newSchemaDescriptor(name string, goType reflect.Type, fields []*FieldDescriptor) *SchemaDescriptor {
	s := &SchemaDescriptor{
		name:   name,
		fields: fields,
		index:  make(map[string]int, len(fields)),
		goType: goType,
	}
	arrowFields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		f.index = i
		s.index[f.name] = i
		arrowFields[i] = f.ArrowField()
		s.minSize += f.minEncodedSize()
	}
	s.minSize = max(s.minSize, 1)
	s.st = arrow.StructOf(arrowFields...)
	return s
}

// Name returns the message type id, e.g. "std_msgs/msg/Header".
func (s *SchemaDescriptor) Name() string { return s.name }

// NumFields returns the number of top-level fields.
func (s *SchemaDescriptor) NumFields() int { return len(s.fields) }

// Field returns the i-th field in declaration order.
func (s *SchemaDescriptor) Field(i int) *FieldDescriptor { return s.fields[i] }

// Fields returns the fields in declaration order. The slice is a copy.
func (s *SchemaDescriptor) Fields() []*FieldDescriptor {
	out := make([]*FieldDescriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldNames returns the top-level field names in declaration order.
func (s *SchemaDescriptor) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// FieldByName returns the top-level field with the given name.
func (s *SchemaDescriptor) FieldByName(name string) (*FieldDescriptor, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// GoType returns the Go struct type the schema was reflected from, or nil
// for schemas built from message definitions.
func (s *SchemaDescriptor) GoType() reflect.Type { return s.goType }

// StructType returns the Arrow struct type with one child per field.
func (s *SchemaDescriptor) StructType() *arrow.StructType { return s.st }

// ArrowFields returns one Arrow field per top-level field.
func (s *SchemaDescriptor) ArrowFields() []arrow.Field {
	out := make([]arrow.Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.ArrowField()
	}
	return out
}

// ArrowSchema returns the nested Arrow schema of the message type. When
// includeMessageStruct is set, a trailing "message_struct" column holding
// the whole message is added.
func (s *SchemaDescriptor) ArrowSchema(includeMessageStruct bool) *arrow.Schema {
	fields := s.ArrowFields()
	if includeMessageStruct {
		fields = append(fields, s.messageStructField())
	}
	return arrow.NewSchema(fields, schemaMetadata(s))
}

// FlatArrowSchema returns a schema with one column per FlatFieldNames entry.
func (s *SchemaDescriptor) FlatArrowSchema() *arrow.Schema {
	names := s.FlatFieldNames()
	fields := make([]arrow.Field, 0, len(names))
	for _, name := range names {
		path, err := s.Lookup(name)
		if err != nil {
			panic("r2a: flat field lookup failed: " + err.Error())
		}
		fields = append(fields, pathField(name, path))
	}
	return arrow.NewSchema(fields, schemaMetadata(s))
}

func (s *SchemaDescriptor) messageStructField() arrow.Field {
	return arrow.Field{Name: MessageStructColumn, Type: s.st, Nullable: false}
}

// Lookup resolves a dotted path such as "header.stamp.sec" into the chain
// of field descriptors from this schema to the leaf. Paths may only
// descend through scalar composite fields.
func (s *SchemaDescriptor) Lookup(path string) ([]*FieldDescriptor, error) {
	if path == "" {
		return nil, newError(KindConfiguration, "empty field name")
	}
	var chain []*FieldDescriptor
	cur := s
	parts := strings.Split(path, PathSeparator)
	for i, part := range parts {
		if cur == nil {
			return nil, &Error{
				Kind:    KindConfiguration,
				Type:    s.name,
				Field:   path,
				Message: "cannot descend into non-composite field " + strings.Join(parts[:i], PathSeparator),
			}
		}
		f, ok := cur.FieldByName(part)
		if !ok {
			return nil, &Error{Kind: KindConfiguration, Type: s.name, Field: path, Message: "unknown field"}
		}
		chain = append(chain, f)
		if i < len(parts)-1 && f.card.IsArray() {
			return nil, &Error{
				Kind:    KindConfiguration,
				Type:    s.name,
				Field:   path,
				Message: "cannot descend into array field " + strings.Join(parts[:i+1], PathSeparator),
			}
		}
		cur = f.nested
	}
	return chain, nil
}

// FlatFieldNames lists every leaf reachable through scalar composite
// fields, depth first in declaration order. Arrays of composites are
// leaves.
func (s *SchemaDescriptor) FlatFieldNames() []string {
	var names []string
	var walk func(prefix string, sd *SchemaDescriptor)
	walk = func(prefix string, sd *SchemaDescriptor) {
		for _, f := range sd.fields {
			name := prefix + f.name
			if f.nested != nil && !f.card.IsArray() {
				walk(name+PathSeparator, f.nested)
				continue
			}
			names = append(names, name)
		}
	}
	walk("", s)
	return names
}

// pathField returns the Arrow field for a column bound to path. The column
// is nullable when any field along the path is.
func pathField(name string, path []*FieldDescriptor) arrow.Field {
	leaf := path[len(path)-1]
	nullable := false
	for _, f := range path {
		nullable = nullable || f.nullable
	}
	return arrow.Field{Name: name, Type: leaf.dtype, Nullable: nullable, Metadata: fieldMetadata(leaf)}
}
