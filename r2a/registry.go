// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// BuilderFactory constructs a RowBuilder for a schema. It is the second
// half of a registry entry, next to the schema itself.
type BuilderFactory func(schema *SchemaDescriptor, fields []string, opts ...BuilderOption) (*RowBuilder, error)

// entry is one row of the capability table.
type entry struct {
	schema  *SchemaDescriptor
	factory BuilderFactory
}

// Registry maps message type ids to their schema and builder factory.
// Registration is expected to happen at startup; lookups are safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	goTypes map[reflect.Type]*SchemaDescriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		goTypes: make(map[reflect.Type]*SchemaDescriptor),
	}
}

// Default is the process-wide registry used by package-level helpers.
var Default = NewRegistry()

// Register reflects the Go message type T, which must implement Message,
// and registers it under T's MessageType().
func Register[T any](r *Registry) (ArrowSupport, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if !t.Implements(messageInterface) && !reflect.PointerTo(t).Implements(messageInterface) {
		return nil, newError(KindConfiguration, "%v does not implement r2a.Message; use RegisterAs", t)
	}
	return r.registerGoType(goTypeName(t), t)
}

// RegisterAs reflects the Go struct type T and registers it under typeID.
func RegisterAs[T any](r *Registry, typeID string) (ArrowSupport, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return r.registerGoType(typeID, t)
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry) ArrowSupport {
	s, err := Register[T](r)
	if err != nil {
		panic(fmt.Sprintf("r2a: registering %v: %v", reflect.TypeFor[T](), err))
	}
	return s
}

func (r *Registry) registerGoType(typeID string, t reflect.Type) (ArrowSupport, error) {
	if typeID == "" {
		return nil, newError(KindConfiguration, "empty type id for %v", t)
	}
	if t.Kind() != reflect.Struct {
		return nil, &Error{Kind: KindUnsupportedType, Type: typeID, Message: fmt.Sprintf("expected struct type, got %v", t.Kind())}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[typeID]; ok {
		if e.schema.goType == t {
			return &support{entry: e}, nil
		}
		return nil, &Error{Kind: KindConfiguration, Type: typeID, Message: "type id already registered"}
	}

	schema, err := r.reflectStruct(t, make(map[reflect.Type]bool))
	if err != nil {
		return nil, ofType(err, typeID)
	}
	if schema.name != typeID {
		// Registered under an explicit id: keep the reflected fields but
		// publish the descriptor under the requested name.
		schema = newSchemaDescriptor(typeID, t, schema.fields)
	}
	e := &entry{schema: schema, factory: NewRowBuilder}
	r.entries[typeID] = e
	Logger().Debug("registered message type",
		zap.String("type", typeID),
		zap.Stringer("go_type", t),
		zap.Int("fields", schema.NumFields()),
	)
	return &support{entry: e}, nil
}

// SchemaFor returns the schema registered under typeID.
func (r *Registry) SchemaFor(typeID string) (*SchemaDescriptor, error) {
	e, err := r.lookup(typeID)
	if err != nil {
		return nil, err
	}
	return e.schema, nil
}

// Support returns the capability of the type registered under typeID.
func (r *Registry) Support(typeID string) (ArrowSupport, error) {
	e, err := r.lookup(typeID)
	if err != nil {
		return nil, err
	}
	return &support{entry: e}, nil
}

// SupportFor returns the capability of the registered Go type T.
func SupportFor[T any](r *Registry) (ArrowSupport, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.schema.goType == t {
			return &support{entry: e}, nil
		}
	}
	return nil, newError(KindConfiguration, "Go type %v is not registered", t)
}

// SupportedSchemas returns the registered type ids in sorted order.
func (r *Registry) SupportedSchemas() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(typeID string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[typeID]
	r.mu.RUnlock()
	if !ok {
		return nil, &Error{Kind: KindConfiguration, Type: typeID, Message: "unknown message type"}
	}
	return e, nil
}
