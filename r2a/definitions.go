// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/istvan-fodor/r2a/msgdef"
)

// RegisterDefinitions builds schemas from parsed message definitions and
// registers them. Composite field types are resolved against the given
// definitions first and then against types already in the registry.
// Either every definition is registered or none is.
//
// Fields of definition-built schemas are nullable: a DynamicMessage may
// leave a field unset, which appends a null.
func (r *Registry) RegisterDefinitions(defs ...*msgdef.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := make(map[string]*msgdef.Definition, len(defs))
	for _, d := range defs {
		name := d.FullName()
		if _, ok := r.entries[name]; ok {
			return &Error{Kind: KindConfiguration, Type: name, Message: "type id already registered"}
		}
		if _, ok := pending[name]; ok {
			return &Error{Kind: KindConfiguration, Type: name, Message: "duplicate definition"}
		}
		pending[name] = d
	}

	b := &defBuilder{r: r, pending: pending, built: make(map[string]*SchemaDescriptor), building: make(map[string]bool)}
	for _, d := range defs {
		if _, err := b.build(d.FullName()); err != nil {
			return err
		}
	}
	for _, d := range defs {
		name := d.FullName()
		r.entries[name] = &entry{schema: b.built[name], factory: NewRowBuilder}
		Logger().Debug("registered message definition",
			zap.String("type", name),
			zap.Int("fields", len(d.Fields)),
		)
	}
	return nil
}

type defBuilder struct {
	r        *Registry
	pending  map[string]*msgdef.Definition
	built    map[string]*SchemaDescriptor
	building map[string]bool
}

func (b *defBuilder) build(name string) (*SchemaDescriptor, error) {
	if s, ok := b.built[name]; ok {
		return s, nil
	}
	if e, ok := b.r.entries[name]; ok {
		return e.schema, nil
	}
	def, ok := b.pending[name]
	if !ok {
		return nil, &Error{Kind: KindUnsupportedType, Type: name, Message: "unknown message type"}
	}
	if b.building[name] {
		return nil, &Error{Kind: KindUnsupportedType, Type: name, Message: "recursive message type"}
	}
	b.building[name] = true
	defer delete(b.building, name)

	fields := make([]*FieldDescriptor, 0, len(def.Fields))
	for _, f := range def.Fields {
		fd, err := b.field(f)
		if err != nil {
			return nil, ofType(atField(err, f.Name), name)
		}
		fields = append(fields, fd)
	}
	s := newSchemaDescriptor(name, nil, fields)
	b.built[name] = s
	return s, nil
}

func (b *defBuilder) field(f msgdef.Field) (*FieldDescriptor, error) {
	fd := &FieldDescriptor{name: f.Name, nullable: true, goIndex: -1, stringBound: f.Type.StringBound}

	if f.Type.IsPrimitive() {
		base, ok := baseTypeByName(f.Type.Name)
		if !ok {
			return nil, newError(KindUnsupportedType, "no Arrow type for %q", f.Type.Name)
		}
		fd.base = base
	} else {
		nested, err := b.build(f.Type.FullName())
		if err != nil {
			return nil, err
		}
		fd.base, fd.nested = TypeComposite, nested
	}

	card, err := cardinalityOf(f.Type)
	if err != nil {
		return nil, err
	}
	dtype, card, err := MapType(FieldType{Base: fd.base, Nested: fd.nested, StringBound: fd.stringBound, Cardinality: card})
	if err != nil {
		return nil, err
	}
	fd.dtype, fd.card = dtype, card
	return fd, nil
}

func cardinalityOf(t msgdef.Type) (Cardinality, error) {
	switch t.Array {
	case msgdef.NotArray:
		return Cardinality{Kind: Scalar}, nil
	case msgdef.FixedArray:
		return Cardinality{Kind: Fixed, N: t.Size}, nil
	case msgdef.BoundedArray:
		return Cardinality{Kind: Bounded, N: t.Size}, nil
	case msgdef.UnboundedArray:
		return Cardinality{Kind: Unbounded}, nil
	}
	return Cardinality{}, newError(KindUnsupportedType, "unknown array kind %v", fmt.Sprint(t.Array))
}
