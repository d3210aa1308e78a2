// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// Message is implemented by Go message types that know their ROS type id,
// e.g. "std_msgs/msg/Header".
type Message interface {
	MessageType() string
}

var messageInterface = reflect.TypeOf((*Message)(nil)).Elem()

// tagInfo holds parsed information from an `r2a` struct tag.
type tagInfo struct {
	Name  string
	Bound int // bound=N: sequence bound for slices, length bound for strings
	Skip  bool
}

// parseTag parses an r2a struct tag like "name", "name,bound=8", ",bound=8" or "-".
func parseTag(sf reflect.StructField) (tagInfo, error) {
	tag, ok := sf.Tag.Lookup("r2a")
	if tag == "-" {
		return tagInfo{Skip: true}, nil
	}
	var info tagInfo
	if ok {
		parts := strings.Split(tag, ",")
		info.Name = parts[0]
		for _, part := range parts[1:] {
			val, found := strings.CutPrefix(part, "bound=")
			if !found {
				return info, newError(KindUnsupportedType, "unknown tag option %q", part)
			}
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return info, newError(KindUnsupportedType, "invalid bound %q", val)
			}
			info.Bound = n
		}
	}
	if info.Name == "" {
		info.Name = snakeCase(sf.Name)
	}
	return info, nil
}

// goTypeName returns the type id of a Go message type: its MessageType()
// when implemented, otherwise the qualified Go type name.
func goTypeName(t reflect.Type) string {
	if t.Implements(messageInterface) {
		return reflect.Zero(t).Interface().(Message).MessageType()
	}
	if reflect.PointerTo(t).Implements(messageInterface) {
		return reflect.New(t).Interface().(Message).MessageType()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// reflectStruct builds the descriptor of a Go struct type. Nested struct
// types are built first and cached by type; building is the set of types
// currently being built, used to reject recursive types. Callers hold the
// registry's write lock.
func (r *Registry) reflectStruct(t reflect.Type, building map[reflect.Type]bool) (*SchemaDescriptor, error) {
	if s, ok := r.goTypes[t]; ok {
		return s, nil
	}
	name := goTypeName(t)
	if building[t] {
		return nil, &Error{Kind: KindUnsupportedType, Type: name, Message: "recursive message type"}
	}
	building[t] = true
	defer delete(building, t)

	var fields []*FieldDescriptor
	seen := make(map[string]bool)
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, err := parseTag(sf)
		if err != nil {
			return nil, ofType(atField(err, sf.Name), name)
		}
		if tag.Skip {
			continue
		}
		if seen[tag.Name] {
			return nil, &Error{Kind: KindConfiguration, Type: name, Field: tag.Name, Message: "duplicate field name"}
		}
		seen[tag.Name] = true

		fd, err := r.reflectField(sf.Type, tag, building)
		if err != nil {
			return nil, ofType(atField(err, tag.Name), name)
		}
		fd.goIndex = i
		fields = append(fields, fd)
	}

	s := newSchemaDescriptor(name, t, fields)
	r.goTypes[t] = s
	return s, nil
}

func (r *Registry) reflectField(t reflect.Type, tag tagInfo, building map[reflect.Type]bool) (*FieldDescriptor, error) {
	fd := &FieldDescriptor{name: tag.Name, goIndex: -1}

	// Handle pointer types (optional/nullable)
	if t.Kind() == reflect.Ptr {
		fd.nullable = true
		t = t.Elem()
	}

	card := Cardinality{Kind: Scalar}
	switch t.Kind() {
	case reflect.Slice:
		card = Cardinality{Kind: Unbounded}
		if tag.Bound > 0 {
			card = Cardinality{Kind: Bounded, N: tag.Bound}
		}
		t = t.Elem()
	case reflect.Array:
		card = Cardinality{Kind: Fixed, N: t.Len()}
		t = t.Elem()
	case reflect.String:
		fd.stringBound = tag.Bound
	}

	base, nested, err := r.reflectBase(t, building)
	if err != nil {
		return nil, err
	}
	fd.base, fd.nested = base, nested

	dtype, card, err := MapType(FieldType{Base: base, Nested: nested, StringBound: fd.stringBound, Cardinality: card})
	if err != nil {
		return nil, err
	}
	fd.dtype, fd.card = dtype, card
	return fd, nil
}

// reflectBase maps a Go element type to a BaseType.
func (r *Registry) reflectBase(t reflect.Type, building map[reflect.Type]bool) (BaseType, *SchemaDescriptor, error) {
	switch t.Kind() {
	case reflect.Bool:
		return TypeBool, nil, nil
	case reflect.Int8:
		return TypeInt8, nil, nil
	case reflect.Int16:
		return TypeInt16, nil, nil
	case reflect.Int32:
		return TypeInt32, nil, nil
	case reflect.Int64, reflect.Int:
		return TypeInt64, nil, nil
	case reflect.Uint8:
		return TypeUint8, nil, nil
	case reflect.Uint16:
		return TypeUint16, nil, nil
	case reflect.Uint32:
		return TypeUint32, nil, nil
	case reflect.Uint64, reflect.Uint:
		return TypeUint64, nil, nil
	case reflect.Float32:
		return TypeFloat32, nil, nil
	case reflect.Float64:
		return TypeFloat64, nil, nil
	case reflect.String:
		return TypeString, nil, nil
	case reflect.Struct:
		nested, err := r.reflectStruct(t, building)
		if err != nil {
			return TypeInvalid, nil, err
		}
		return TypeComposite, nested, nil
	default:
		return TypeInvalid, nil, newError(KindUnsupportedType, "unsupported Go type: %v (kind: %v)", t, t.Kind())
	}
}

// snakeCase converts a Go field name to a ROS field name: "FrameID" becomes
// "frame_id", "AngleMin" becomes "angle_min".
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, c := range runes {
		if unicode.IsUpper(c) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || unicode.IsUpper(prev) && nextLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
