// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// BaseType is the element type of a message field, before cardinality.
type BaseType int

const (
	TypeInvalid BaseType = iota
	TypeBool
	TypeByte
	TypeChar
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeString
	TypeWString
	TypeComposite
)

var baseTypeNames = map[BaseType]string{
	TypeBool:    "bool",
	TypeByte:    "byte",
	TypeChar:    "char",
	TypeInt8:    "int8",
	TypeUint8:   "uint8",
	TypeInt16:   "int16",
	TypeUint16:  "uint16",
	TypeInt32:   "int32",
	TypeUint32:  "uint32",
	TypeInt64:   "int64",
	TypeUint64:  "uint64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeString:  "string",
	TypeWString: "wstring",
}

func (t BaseType) String() string {
	if t == TypeComposite {
		return "composite"
	}
	if s, ok := baseTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("BaseType(%d)", int(t))
}

// baseTypeByName resolves a primitive IDL type name.
func baseTypeByName(name string) (BaseType, bool) {
	for t, n := range baseTypeNames {
		if n == name {
			return t, true
		}
	}
	return TypeInvalid, false
}

// isByteLike reports whether sequences of t are stored as binary.
func (t BaseType) isByteLike() bool {
	return t == TypeUint8 || t == TypeByte
}

// size returns the CDR size of a primitive, 0 for strings and composites.
func (t BaseType) size() int {
	switch t {
	case TypeBool, TypeByte, TypeChar, TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	}
	return 0
}

// CardinalityKind says how many values a field holds per message.
type CardinalityKind int

const (
	Scalar    CardinalityKind = iota // exactly one value
	Fixed                            // exactly N values
	Bounded                          // 0..N values
	Unbounded                        // any number of values
)

// Cardinality is a CardinalityKind with its N, where one applies.
type Cardinality struct {
	Kind CardinalityKind
	N    int
}

// IsArray reports whether the field holds a sequence.
func (c Cardinality) IsArray() bool { return c.Kind != Scalar }

func (c Cardinality) String() string {
	switch c.Kind {
	case Scalar:
		return "scalar"
	case Fixed:
		return fmt.Sprintf("fixed(%d)", c.N)
	case Bounded:
		return fmt.Sprintf("bounded(%d)", c.N)
	case Unbounded:
		return "unbounded"
	}
	return fmt.Sprintf("Cardinality(%d)", int(c.Kind))
}

// suffix returns the IDL array suffix for c.
func (c Cardinality) suffix() string {
	switch c.Kind {
	case Fixed:
		return fmt.Sprintf("[%d]", c.N)
	case Bounded:
		return fmt.Sprintf("[<=%d]", c.N)
	case Unbounded:
		return "[]"
	}
	return ""
}

// FieldType is the input of the type mapper: a source field type.
type FieldType struct {
	Base        BaseType
	Nested      *SchemaDescriptor // element schema when Base is TypeComposite
	StringBound int               // N for string<=N
	Cardinality Cardinality
}

// String returns the IDL spelling of ft, e.g. "float32[]" or
// "geometry_msgs/msg/Point[3]".
func (ft FieldType) String() string {
	var s string
	switch {
	case ft.Base == TypeComposite && ft.Nested != nil:
		s = ft.Nested.Name()
	case ft.StringBound > 0:
		s = fmt.Sprintf("%s<=%d", ft.Base, ft.StringBound)
	default:
		s = ft.Base.String()
	}
	return s + ft.Cardinality.suffix()
}

// MapType maps a source field type to its Arrow type. The cardinality is
// returned unchanged so callers can carry both in a FieldDescriptor.
//
// Sequences of bytes become LargeBinary; other bounded and unbounded
// sequences become LargeList; fixed arrays become FixedSizeList; composites
// become Struct columns with one child per field in declaration order.
func MapType(ft FieldType) (arrow.DataType, Cardinality, error) {
	c := ft.Cardinality
	switch c.Kind {
	case Scalar, Unbounded:
	case Fixed, Bounded:
		if c.N <= 0 {
			return nil, c, newError(KindUnsupportedType, "array size must be positive, got %d", c.N)
		}
	default:
		return nil, c, newError(KindUnsupportedType, "unknown cardinality %v", c)
	}

	if ft.Base.isByteLike() && (c.Kind == Bounded || c.Kind == Unbounded) {
		return arrow.BinaryTypes.LargeBinary, c, nil
	}

	elem, err := mapBase(ft)
	if err != nil {
		return nil, c, err
	}
	switch c.Kind {
	case Fixed:
		return arrow.FixedSizeListOf(int32(c.N), elem), c, nil
	case Bounded, Unbounded:
		return arrow.LargeListOf(elem), c, nil
	}
	return elem, c, nil
}

func mapBase(ft FieldType) (arrow.DataType, error) {
	switch ft.Base {
	case TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case TypeInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case TypeByte, TypeChar, TypeUint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case TypeInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case TypeUint16:
		return arrow.PrimitiveTypes.Uint16, nil
	case TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case TypeUint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case TypeUint64:
		return arrow.PrimitiveTypes.Uint64, nil
	case TypeFloat32:
		return arrow.PrimitiveTypes.Float32, nil
	case TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case TypeString, TypeWString:
		return arrow.BinaryTypes.String, nil
	case TypeComposite:
		if ft.Nested == nil {
			return nil, newError(KindUnsupportedType, "composite field without a nested schema")
		}
		return ft.Nested.StructType(), nil
	}
	return nil, newError(KindUnsupportedType, "no Arrow type for %v", ft.Base)
}
