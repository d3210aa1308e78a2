// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

const defaultInitialCapacity = 64

// BuilderOption configures a RowBuilder.
type BuilderOption func(*builderConfig)

type builderConfig struct {
	mem      memory.Allocator
	capacity int
}

// WithAllocator sets the allocator used for column buffers.
func WithAllocator(mem memory.Allocator) BuilderOption {
	return func(c *builderConfig) { c.mem = mem }
}

// WithInitialCapacity sets the number of rows reserved up front.
func WithInitialCapacity(rows int) BuilderOption {
	return func(c *builderConfig) {
		if rows > 0 {
			c.capacity = rows
		}
	}
}

// column binds one caller-selected field path to an Arrow builder.
// A nil path binds the whole message.
type column struct {
	field   arrow.Field
	path    []*FieldDescriptor
	builder array.Builder
}

// FinalizedColumn is one output column of a RowBuilder. The caller owns
// Array and must Release it.
type FinalizedColumn struct {
	Field arrow.Field
	Array arrow.Array
}

// Release releases the column's array.
func (c FinalizedColumn) Release() {
	if c.Array != nil {
		c.Array.Release()
	}
}

// RowBuilder accumulates message instances row by row into one Arrow
// column per selected field. A RowBuilder is not safe for concurrent use.
type RowBuilder struct {
	schema    *SchemaDescriptor
	mem       memory.Allocator
	cols      []*column
	rows      int
	capacity  int
	finalized bool
}

// NewRowBuilder creates a builder for the given field names of schema, in
// the given order. Names may be dotted paths through scalar composite
// fields. MessageStructColumn binds the whole message unless the schema
// has a field of that name. An empty list selects every top-level field.
func NewRowBuilder(schema *SchemaDescriptor, fields []string, opts ...BuilderOption) (*RowBuilder, error) {
	cfg := builderConfig{mem: memory.DefaultAllocator, capacity: defaultInitialCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(fields) == 0 {
		fields = schema.FieldNames()
	}

	rb := &RowBuilder{schema: schema, mem: cfg.mem, capacity: cfg.capacity}
	seen := make(map[string]bool, len(fields))
	for _, name := range fields {
		if seen[name] {
			rb.release()
			return nil, &Error{Kind: KindConfiguration, Type: schema.name, Field: name, Message: "duplicate field"}
		}
		seen[name] = true

		col, err := rb.bind(name)
		if err != nil {
			rb.release()
			return nil, err
		}
		col.builder.Reserve(cfg.capacity)
		rb.cols = append(rb.cols, col)
	}
	return rb, nil
}

func (rb *RowBuilder) bind(name string) (*column, error) {
	if _, ok := rb.schema.index[name]; !ok && name == MessageStructColumn {
		f := rb.schema.messageStructField()
		return &column{field: f, builder: array.NewBuilder(rb.mem, f.Type)}, nil
	}
	path, err := rb.schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	f := pathField(name, path)
	return &column{field: f, path: path, builder: array.NewBuilder(rb.mem, f.Type)}, nil
}

// Schema returns the Arrow schema of the bound columns.
func (rb *RowBuilder) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(rb.cols))
	for i, c := range rb.cols {
		fields[i] = c.field
	}
	return arrow.NewSchema(fields, schemaMetadata(rb.schema))
}

// Descriptor returns the schema descriptor the builder reads messages with.
func (rb *RowBuilder) Descriptor() *SchemaDescriptor { return rb.schema }

// RowCount returns the number of rows appended so far.
func (rb *RowBuilder) RowCount() int { return rb.rows }

// Append adds one message as a row. msg is a value or pointer of the
// registered Go type, a *DynamicMessage, or a map keyed by field name.
//
// Every bound value is validated before any column is touched: on error
// no column grows.
func (rb *RowBuilder) Append(msg any) error {
	if rb.finalized {
		return &Error{Kind: KindState, Type: rb.schema.name, Message: "append after finalize"}
	}
	root := deref(reflect.ValueOf(msg))
	if !root.IsValid() {
		return &Error{Kind: KindSchemaMismatch, Type: rb.schema.name, Message: "nil message"}
	}
	if err := checkMessage(rb.schema, root); err != nil {
		return ofType(err, rb.schema.name)
	}

	staged := make([]any, len(rb.cols))
	for i, c := range rb.cols {
		var (
			v   any
			err error
		)
		if c.path == nil {
			v, err = stageMessage(rb.schema, root)
		} else {
			v, err = stagePath(rb.schema, root, c.path)
			if err != nil {
				err = atField(err, c.field.Name)
			}
		}
		if err != nil {
			return ofType(err, rb.schema.name)
		}
		staged[i] = v
	}

	rb.grow()
	for i, c := range rb.cols {
		commit(c.builder, staged[i])
	}
	rb.rows++
	for _, c := range rb.cols {
		if c.builder.Len() != rb.rows {
			panic(fmt.Sprintf("r2a: column %q has %d rows, builder has %d", c.field.Name, c.builder.Len(), rb.rows))
		}
	}
	return nil
}

// AppendRaw decodes one CDR-serialized message and appends it.
func (rb *RowBuilder) AppendRaw(data []byte) error {
	if rb.finalized {
		return &Error{Kind: KindState, Type: rb.schema.name, Message: "append after finalize"}
	}
	msg, err := DecodeCDR(rb.schema, data)
	if err != nil {
		return err
	}
	return rb.Append(msg)
}

// grow doubles the reserved capacity of every column when full.
func (rb *RowBuilder) grow() {
	if rb.rows < rb.capacity {
		return
	}
	extra := rb.capacity
	if extra == 0 {
		extra = defaultInitialCapacity
	}
	for _, c := range rb.cols {
		c.builder.Reserve(extra)
	}
	rb.capacity += extra
}

// Finalize returns one column per bound field, in bound order. The builder
// cannot be used afterwards; a second call returns a StateError.
func (rb *RowBuilder) Finalize() ([]FinalizedColumn, error) {
	if rb.finalized {
		return nil, &Error{Kind: KindState, Type: rb.schema.name, Message: "builder already finalized"}
	}
	rb.finalized = true

	out := make([]FinalizedColumn, len(rb.cols))
	for i, c := range rb.cols {
		arr := c.builder.NewArray()
		if arr.Len() != rb.rows {
			panic(fmt.Sprintf("r2a: column %q finalized with %d rows, expected %d", c.field.Name, arr.Len(), rb.rows))
		}
		out[i] = FinalizedColumn{Field: c.field, Array: arr}
	}
	rb.release()
	Logger().Debug("finalized row builder",
		zap.String("type", rb.schema.name),
		zap.Int("rows", rb.rows),
		zap.Int("columns", len(out)),
	)
	return out, nil
}

// Release frees the column buffers of a builder that will not be
// finalized. It is a no-op after Finalize.
func (rb *RowBuilder) Release() {
	if rb.finalized {
		return
	}
	rb.finalized = true
	rb.release()
}

func (rb *RowBuilder) release() {
	for _, c := range rb.cols {
		if c.builder != nil {
			c.builder.Release()
			c.builder = nil
		}
	}
}

// ReleaseColumns releases every array in cols.
func ReleaseColumns(cols []FinalizedColumn) {
	for _, c := range cols {
		c.Release()
	}
}

// NewRecordBatch assembles finalized columns into a record batch. The
// batch holds its own references; the caller still owns cols.
func NewRecordBatch(cols []FinalizedColumn, md *arrow.Metadata) arrow.RecordBatch {
	fields := make([]arrow.Field, len(cols))
	arrs := make([]arrow.Array, len(cols))
	rows := int64(0)
	for i, c := range cols {
		fields[i] = c.Field
		arrs[i] = c.Array
		rows = int64(c.Array.Len())
	}
	return array.NewRecordBatch(arrow.NewSchema(fields, md), arrs, rows)
}

// ConcatColumns joins column sets that share the same fields, in order.
// The inputs are not released.
func ConcatColumns(mem memory.Allocator, parts ...[]FinalizedColumn) ([]FinalizedColumn, error) {
	if len(parts) == 0 {
		return nil, nil
	}
	n := len(parts[0])
	for j, p := range parts {
		if len(p) != n {
			return nil, newError(KindConfiguration, "column set %d has %d columns, want %d", j, len(p), n)
		}
	}
	out := make([]FinalizedColumn, 0, n)
	for i := range n {
		arrs := make([]arrow.Array, len(parts))
		for j, p := range parts {
			if !p[i].Field.Equal(parts[0][i].Field) {
				ReleaseColumns(out)
				return nil, newError(KindConfiguration, "column sets differ at column %d", i)
			}
			arrs[j] = p[i].Array
		}
		arr, err := array.Concatenate(arrs, mem)
		if err != nil {
			ReleaseColumns(out)
			return nil, fmt.Errorf("r2a: concatenating column %q: %w", parts[0][i].Field.Name, err)
		}
		out = append(out, FinalizedColumn{Field: parts[0][i].Field, Array: arr})
	}
	return out, nil
}
