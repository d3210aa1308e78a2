// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// Staged values are the validated, builder-ready form of one row:
//
//	nil                      null
//	bool, int8 ... float64   primitive of the column's exact Go type
//	string, []byte           text and binary
//	[]T (T primitive)        whole primitive sequence, appended in bulk
//	stagedList               sequence of staged elements
//	stagedStruct             staged children in field order
//
// Staging never touches a builder; commit never fails.
type (
	stagedList   []any
	stagedStruct []any
)

// primitiveSliceTypes lists slice types that can be appended to a child
// builder without per-element conversion.
var primitiveSliceTypes = map[BaseType]reflect.Type{
	TypeBool:    reflect.TypeOf([]bool(nil)),
	TypeInt8:    reflect.TypeOf([]int8(nil)),
	TypeUint8:   reflect.TypeOf([]uint8(nil)),
	TypeByte:    reflect.TypeOf([]uint8(nil)),
	TypeChar:    reflect.TypeOf([]uint8(nil)),
	TypeInt16:   reflect.TypeOf([]int16(nil)),
	TypeUint16:  reflect.TypeOf([]uint16(nil)),
	TypeInt32:   reflect.TypeOf([]int32(nil)),
	TypeUint32:  reflect.TypeOf([]uint32(nil)),
	TypeInt64:   reflect.TypeOf([]int64(nil)),
	TypeUint64:  reflect.TypeOf([]uint64(nil)),
	TypeFloat32: reflect.TypeOf([]float32(nil)),
	TypeFloat64: reflect.TypeOf([]float64(nil)),
}

func mismatch(format string, args ...any) error {
	return newError(KindSchemaMismatch, format, args...)
}

func conversion(format string, args ...any) error {
	return newError(KindConversion, format, args...)
}

// deref follows pointers and interfaces down to a concrete value. It stops
// at *DynamicMessage. A nil pointer or interface yields the zero Value.
func deref(v reflect.Value) reflect.Value {
	for v.IsValid() {
		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}
			}
			v = v.Elem()
		case reflect.Ptr:
			if v.IsNil() {
				return reflect.Value{}
			}
			if v.Type() == dynamicMessageType {
				return v
			}
			v = v.Elem()
		default:
			return v
		}
	}
	return v
}

// structFieldIndexes caches, per Go struct type, the field index of each
// r2a field name. Used to read Go structs against definition-built schemas.
var structFieldIndexes sync.Map // reflect.Type -> map[string]int

func structFieldIndex(t reflect.Type) map[string]int {
	if cached, ok := structFieldIndexes.Load(t); ok {
		return cached.(map[string]int)
	}
	idx := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, err := parseTag(sf)
		if err != nil || tag.Skip {
			continue
		}
		idx[tag.Name] = i
	}
	actual, _ := structFieldIndexes.LoadOrStore(t, idx)
	return actual.(map[string]int)
}

// checkMessage verifies that v can be read as a message of schema s.
// v must already be dereferenced and valid.
func checkMessage(s *SchemaDescriptor, v reflect.Value) error {
	switch {
	case v.Type() == dynamicMessageType:
		dm := v.Interface().(*DynamicMessage)
		if dm.schema != s && dm.schema.name != s.name {
			return mismatch("expected message %s, got %s", s.name, dm.schema.name)
		}
		if len(dm.values) != len(s.fields) {
			return mismatch("message %s has %d fields, schema has %d", s.name, len(dm.values), len(s.fields))
		}
	case v.Kind() == reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return mismatch("expected map with string keys, got %v", v.Type())
		}
	case v.Kind() == reflect.Struct:
		if s.goType != nil && v.Type() != s.goType {
			return mismatch("expected Go type %v, got %v", s.goType, v.Type())
		}
	default:
		return mismatch("expected message %s, got %v", s.name, v.Type())
	}
	return nil
}

// fieldValue reads field fd from a message value accepted by checkMessage.
// A missing field yields the zero Value.
func fieldValue(s *SchemaDescriptor, v reflect.Value, fd *FieldDescriptor) reflect.Value {
	switch {
	case v.Type() == dynamicMessageType:
		dm := v.Interface().(*DynamicMessage)
		if dm.schema == s {
			return reflect.ValueOf(dm.values[fd.index])
		}
		x, _ := dm.Get(fd.name)
		return reflect.ValueOf(x)
	case v.Kind() == reflect.Map:
		return v.MapIndex(reflect.ValueOf(fd.name).Convert(v.Type().Key()))
	case s.goType != nil && fd.goIndex >= 0:
		return v.Field(fd.goIndex)
	default:
		i, ok := structFieldIndex(v.Type())[fd.name]
		if !ok {
			return reflect.Value{}
		}
		return v.Field(i)
	}
}

// stageMessage stages every field of a message as a struct value.
func stageMessage(s *SchemaDescriptor, v reflect.Value) (stagedStruct, error) {
	if err := checkMessage(s, v); err != nil {
		return nil, err
	}
	out := make(stagedStruct, len(s.fields))
	for i, fd := range s.fields {
		staged, err := stageField(fd, fieldValue(s, v, fd))
		if err != nil {
			return nil, atField(err, fd.name)
		}
		out[i] = staged
	}
	return out, nil
}

// stagePath stages the value found by walking path from a root message.
// A nil value anywhere along a nullable path stages a null. Errors are
// reported against the column, not the intermediate fields.
func stagePath(s *SchemaDescriptor, root reflect.Value, path []*FieldDescriptor) (any, error) {
	v := root
	for i, fd := range path {
		fv := fieldValue(s, v, fd)
		if i == len(path)-1 {
			return stageField(fd, fv)
		}
		fv = deref(fv)
		if !fv.IsValid() {
			if fd.nullable {
				return nil, nil
			}
			return nil, mismatch("missing value for %s", fd.name)
		}
		if err := checkMessage(fd.nested, fv); err != nil {
			return nil, err
		}
		v, s = fv, fd.nested
	}
	panic("r2a: empty field path")
}

// stageField validates and converts one field value.
func stageField(fd *FieldDescriptor, v reflect.Value) (any, error) {
	v = deref(v)
	if !v.IsValid() {
		if fd.nullable {
			return nil, nil
		}
		return nil, mismatch("missing value")
	}
	if !fd.card.IsArray() {
		return stageElem(fd, v)
	}

	if fd.base.isByteLike() && fd.card.Kind != Fixed {
		return stageBytes(fd, v)
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, mismatch("expected sequence, got %v", v.Type())
	}
	n := v.Len()
	if err := checkLength(fd.card, n); err != nil {
		return nil, err
	}
	if v.Kind() == reflect.Slice && v.Type() == primitiveSliceTypes[fd.base] && v.CanInterface() {
		return v.Interface(), nil
	}
	out := make(stagedList, n)
	for i := range n {
		e, err := stageElem(fd, deref(v.Index(i)))
		if err != nil {
			return nil, atField(err, "["+strconv.Itoa(i)+"]")
		}
		out[i] = e
	}
	return out, nil
}

func checkLength(c Cardinality, n int) error {
	switch c.Kind {
	case Fixed:
		if n != c.N {
			return mismatch("fixed array needs %d elements, got %d", c.N, n)
		}
	case Bounded:
		if n > c.N {
			return mismatch("sequence of %d elements exceeds bound %d", n, c.N)
		}
	}
	return nil
}

func stageBytes(fd *FieldDescriptor, v reflect.Value) (any, error) {
	var b []byte
	switch {
	case v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8:
		b = v.Bytes()
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
		b = make([]byte, v.Len())
		for i := range b {
			e, err := stageElem(fd, deref(v.Index(i)))
			if err != nil {
				return nil, atField(err, "["+strconv.Itoa(i)+"]")
			}
			b[i] = e.(uint8)
		}
	default:
		return nil, mismatch("expected byte sequence, got %v", v.Type())
	}
	if err := checkLength(fd.card, len(b)); err != nil {
		return nil, err
	}
	return b, nil
}

// stageElem converts a single (non-sequence) value to the field's base type.
func stageElem(fd *FieldDescriptor, v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, mismatch("missing value")
	}
	switch fd.base {
	case TypeBool:
		if v.Kind() != reflect.Bool {
			return nil, mismatch("expected bool, got %v", v.Type())
		}
		return v.Bool(), nil
	case TypeInt8:
		n, err := toInt(v, math.MinInt8, math.MaxInt8)
		return int8(n), err
	case TypeInt16:
		n, err := toInt(v, math.MinInt16, math.MaxInt16)
		return int16(n), err
	case TypeInt32:
		n, err := toInt(v, math.MinInt32, math.MaxInt32)
		return int32(n), err
	case TypeInt64:
		return toInt(v, math.MinInt64, math.MaxInt64)
	case TypeUint8, TypeByte, TypeChar:
		n, err := toUint(v, math.MaxUint8)
		return uint8(n), err
	case TypeUint16:
		n, err := toUint(v, math.MaxUint16)
		return uint16(n), err
	case TypeUint32:
		n, err := toUint(v, math.MaxUint32)
		return uint32(n), err
	case TypeUint64:
		return toUint(v, math.MaxUint64)
	case TypeFloat32:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) {
			if math.Abs(f) > math.MaxFloat32 {
				return nil, conversion("value %g overflows float32", f)
			}
			if float64(float32(f)) != f {
				return nil, conversion("value %g is not exactly representable as float32", f)
			}
		}
		return float32(f), nil
	case TypeFloat64:
		return toFloat(v)
	case TypeString, TypeWString:
		if v.Kind() != reflect.String {
			return nil, mismatch("expected string, got %v", v.Type())
		}
		s := v.String()
		if !utf8.ValidString(s) {
			return nil, conversion("invalid UTF-8 in string")
		}
		if fd.stringBound > 0 {
			if fd.base == TypeWString {
				if n := utf16Len(s); n > fd.stringBound {
					return nil, mismatch("wstring of %d UTF-16 code units exceeds bound %d", n, fd.stringBound)
				}
			} else if len(s) > fd.stringBound {
				return nil, mismatch("string of %d bytes exceeds bound %d", len(s), fd.stringBound)
			}
		}
		return s, nil
	case TypeComposite:
		return stageMessage(fd.nested, v)
	}
	panic(fmt.Sprintf("r2a: no staging for base type %v", fd.base))
}

func toInt(v reflect.Value, lo, hi int64) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < lo || n > hi {
			return 0, conversion("value %d out of range [%d, %d]", n, lo, hi)
		}
		return n, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > uint64(hi) {
			return 0, conversion("value %d out of range [%d, %d]", u, lo, hi)
		}
		return int64(u), nil
	}
	return 0, mismatch("expected integer, got %v", v.Type())
}

func toUint(v reflect.Value, hi uint64) (uint64, error) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > hi {
			return 0, conversion("value %d out of range [0, %d]", u, hi)
		}
		return u, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		if n < 0 || uint64(n) > hi {
			return 0, conversion("value %d out of range [0, %d]", n, hi)
		}
		return uint64(n), nil
	}
	return 0, mismatch("expected unsigned integer, got %v", v.Type())
}

func toFloat(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := v.Int()
		f := float64(n)
		if f >= math.MaxInt64 || int64(f) != n {
			return 0, conversion("integer %d is not exactly representable as float64", n)
		}
		return f, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		f := float64(u)
		if f >= math.MaxUint64 || uint64(f) != u {
			return 0, conversion("integer %d is not exactly representable as float64", u)
		}
		return f, nil
	}
	return 0, mismatch("expected float, got %v", v.Type())
}

// utf16Len returns the number of UTF-16 code units needed to encode s.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// commit appends one staged value to a builder. Staged values always match
// the builder they were staged for; a mismatch is a bug and panics.
func commit(b array.Builder, val any) {
	if val == nil {
		b.AppendNull()
		return
	}
	switch b := b.(type) {
	case *array.BooleanBuilder:
		b.Append(val.(bool))
	case *array.Int8Builder:
		b.Append(val.(int8))
	case *array.Int16Builder:
		b.Append(val.(int16))
	case *array.Int32Builder:
		b.Append(val.(int32))
	case *array.Int64Builder:
		b.Append(val.(int64))
	case *array.Uint8Builder:
		b.Append(val.(uint8))
	case *array.Uint16Builder:
		b.Append(val.(uint16))
	case *array.Uint32Builder:
		b.Append(val.(uint32))
	case *array.Uint64Builder:
		b.Append(val.(uint64))
	case *array.Float32Builder:
		b.Append(val.(float32))
	case *array.Float64Builder:
		b.Append(val.(float64))
	case *array.StringBuilder:
		b.Append(val.(string))
	case *array.BinaryBuilder:
		b.Append(val.([]byte))
	case *array.FixedSizeListBuilder:
		b.Append(true)
		commitValues(b.ValueBuilder(), val)
	case *array.LargeListBuilder:
		b.Append(true)
		commitValues(b.ValueBuilder(), val)
	case *array.StructBuilder:
		b.Append(true)
		for i, child := range val.(stagedStruct) {
			commit(b.FieldBuilder(i), child)
		}
	default:
		panic(fmt.Sprintf("r2a: no commit path for %T", b))
	}
}

// commitValues appends the elements of a staged sequence to a list's
// value builder.
func commitValues(vb array.Builder, val any) {
	switch vals := val.(type) {
	case stagedList:
		for _, e := range vals {
			commit(vb, e)
		}
	case []bool:
		vb.(*array.BooleanBuilder).AppendValues(vals, nil)
	case []int8:
		vb.(*array.Int8Builder).AppendValues(vals, nil)
	case []int16:
		vb.(*array.Int16Builder).AppendValues(vals, nil)
	case []int32:
		vb.(*array.Int32Builder).AppendValues(vals, nil)
	case []int64:
		vb.(*array.Int64Builder).AppendValues(vals, nil)
	case []uint8:
		vb.(*array.Uint8Builder).AppendValues(vals, nil)
	case []uint16:
		vb.(*array.Uint16Builder).AppendValues(vals, nil)
	case []uint32:
		vb.(*array.Uint32Builder).AppendValues(vals, nil)
	case []uint64:
		vb.(*array.Uint64Builder).AppendValues(vals, nil)
	case []float32:
		vb.(*array.Float32Builder).AppendValues(vals, nil)
	case []float64:
		vb.(*array.Float64Builder).AppendValues(vals, nil)
	default:
		panic(fmt.Sprintf("r2a: no sequence commit path for %T", val))
	}
}
