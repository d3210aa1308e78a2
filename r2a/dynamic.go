// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import "reflect"

// DynamicMessage is a message instance whose shape is only known at run
// time, such as one decoded from CDR against a definition-built schema.
//
// Values are stored as plain Go values: integers and floats of the field's
// exact width, string, []byte for byte sequences, typed slices (e.g.
// []float32) or []any for other sequences, and *DynamicMessage for nested
// composites. An unset field reads as nil.
type DynamicMessage struct {
	schema *SchemaDescriptor
	values []any
}

var dynamicMessageType = reflect.TypeOf((*DynamicMessage)(nil))

// NewDynamicMessage creates an empty message of the given schema.
func NewDynamicMessage(schema *SchemaDescriptor) *DynamicMessage {
	return &DynamicMessage{schema: schema, values: make([]any, schema.NumFields())}
}

// Schema returns the schema the message was created for.
func (m *DynamicMessage) Schema() *SchemaDescriptor { return m.schema }

// MessageType returns the message type id.
func (m *DynamicMessage) MessageType() string { return m.schema.name }

// Get returns the value of a top-level field. ok is false when the schema
// has no such field.
func (m *DynamicMessage) Get(name string) (value any, ok bool) {
	i, ok := m.schema.index[name]
	if !ok {
		return nil, false
	}
	return m.values[i], true
}

// Set assigns a top-level field. Values are validated on append, not here.
func (m *DynamicMessage) Set(name string, value any) error {
	i, ok := m.schema.index[name]
	if !ok {
		return &Error{Kind: KindConfiguration, Type: m.schema.name, Field: name, Message: "unknown field"}
	}
	m.values[i] = value
	return nil
}

// Value returns the i-th field value in declaration order.
func (m *DynamicMessage) Value(i int) any { return m.values[i] }

// SetValue assigns the i-th field value in declaration order.
func (m *DynamicMessage) SetValue(i int, value any) { m.values[i] = value }
