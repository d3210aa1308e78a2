// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import "github.com/apache/arrow-go/v18/arrow"

// ArrowSupport is the capability of a registered message type: its schema
// and a way to build Arrow columns from its instances.
type ArrowSupport interface {
	// TypeName returns the registered type id.
	TypeName() string
	// FieldDescriptors returns the shared, immutable schema descriptor.
	FieldDescriptors() *SchemaDescriptor
	// NewRowBuilder creates a builder bound to the named fields, in order.
	// No names selects every top-level field.
	NewRowBuilder(fields ...string) (*RowBuilder, error)
	// NewRowBuilderWith is NewRowBuilder with builder options.
	NewRowBuilderWith(fields []string, opts ...BuilderOption) (*RowBuilder, error)
	// NewFlatRowBuilder binds every leaf listed by FlatFieldNames.
	NewFlatRowBuilder(opts ...BuilderOption) (*RowBuilder, error)
	// ArrowSchema returns the nested Arrow schema of the type.
	ArrowSchema(includeMessageStruct bool) *arrow.Schema
	// FlatFieldNames lists the dotted leaf paths of the type.
	FlatFieldNames() []string
}

// support is the ArrowSupport of one registry entry.
type support struct {
	entry *entry
}

func (s *support) TypeName() string { return s.entry.schema.name }

func (s *support) FieldDescriptors() *SchemaDescriptor { return s.entry.schema }

func (s *support) NewRowBuilder(fields ...string) (*RowBuilder, error) {
	return s.entry.factory(s.entry.schema, fields)
}

func (s *support) NewRowBuilderWith(fields []string, opts ...BuilderOption) (*RowBuilder, error) {
	return s.entry.factory(s.entry.schema, fields, opts...)
}

func (s *support) NewFlatRowBuilder(opts ...BuilderOption) (*RowBuilder, error) {
	return s.entry.factory(s.entry.schema, s.entry.schema.FlatFieldNames(), opts...)
}

func (s *support) ArrowSchema(includeMessageStruct bool) *arrow.Schema {
	return s.entry.schema.ArrowSchema(includeMessageStruct)
}

func (s *support) FlatFieldNames() []string { return s.entry.schema.FlatFieldNames() }
