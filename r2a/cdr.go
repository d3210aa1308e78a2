// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"fmt"
	"reflect"
	"unicode/utf16"

	"github.com/istvan-fodor/r2a/cdr"
)

// DecodeCDR decodes one CDR-serialized message of the given schema into a
// DynamicMessage. Any decoding failure is a ConversionError.
func DecodeCDR(schema *SchemaDescriptor, data []byte) (*DynamicMessage, error) {
	d, err := cdr.NewDecoder(data)
	if err != nil {
		return nil, &Error{Kind: KindConversion, Type: schema.name, Message: "decoding CDR", Cause: err}
	}
	msg, err := decodeMessage(d, schema)
	if err != nil {
		return nil, ofType(err, schema.name)
	}
	return msg, nil
}

func decodeMessage(d *cdr.Decoder, s *SchemaDescriptor) (*DynamicMessage, error) {
	msg := NewDynamicMessage(s)
	for i, fd := range s.fields {
		v, err := decodeField(d, fd)
		if err != nil {
			return nil, atField(err, fd.name)
		}
		msg.values[i] = v
	}
	return msg, nil
}

func decodeErr(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Kind: KindConversion, Message: "decoding CDR", Cause: err}
}

func decodeField(d *cdr.Decoder, fd *FieldDescriptor) (any, error) {
	if !fd.card.IsArray() {
		v, err := decodeElem(d, fd)
		if err != nil {
			return nil, decodeErr(err)
		}
		return v, nil
	}

	n := fd.card.N
	if fd.card.Kind != Fixed {
		var err error
		if n, err = d.SequenceLength(fd.minElemSize()); err != nil {
			return nil, decodeErr(err)
		}
	}

	if fd.base.isByteLike() || fd.base == TypeChar {
		b, err := d.Bytes(n)
		if err != nil {
			return nil, decodeErr(err)
		}
		return append([]byte(nil), b...), nil
	}

	var out reflect.Value
	if st, ok := primitiveSliceTypes[fd.base]; ok {
		out = reflect.MakeSlice(st, n, n)
	} else if fd.base == TypeComposite {
		out = reflect.MakeSlice(reflect.TypeOf([]*DynamicMessage(nil)), n, n)
	} else {
		out = reflect.MakeSlice(reflect.TypeOf([]string(nil)), n, n)
	}
	for i := range n {
		v, err := decodeElem(d, fd)
		if err != nil {
			return nil, atField(decodeErr(err), fmt.Sprintf("[%d]", i))
		}
		out.Index(i).Set(reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

func decodeElem(d *cdr.Decoder, fd *FieldDescriptor) (any, error) {
	switch fd.base {
	case TypeBool:
		return d.Bool()
	case TypeByte, TypeChar, TypeUint8:
		return d.Uint8()
	case TypeInt8:
		return d.Int8()
	case TypeInt16:
		return d.Int16()
	case TypeUint16:
		return d.Uint16()
	case TypeInt32:
		return d.Int32()
	case TypeUint32:
		return d.Uint32()
	case TypeInt64:
		return d.Int64()
	case TypeUint64:
		return d.Uint64()
	case TypeFloat32:
		return d.Float32()
	case TypeFloat64:
		return d.Float64()
	case TypeString:
		return d.ReadString()
	case TypeWString:
		units, err := d.WString()
		if err != nil {
			return nil, err
		}
		return string(utf16.Decode(units)), nil
	case TypeComposite:
		return decodeMessage(d, fd.nested)
	}
	return nil, newError(KindUnsupportedType, "cannot decode %v", fd.base)
}

// EncodeCDR serializes msg as a little-endian CDR message of the given
// schema. msg is validated the same way Append validates it; null values
// are written as zero values.
func EncodeCDR(schema *SchemaDescriptor, msg any) ([]byte, error) {
	root := deref(reflect.ValueOf(msg))
	if !root.IsValid() {
		return nil, &Error{Kind: KindSchemaMismatch, Type: schema.name, Message: "nil message"}
	}
	staged, err := stageMessage(schema, root)
	if err != nil {
		return nil, ofType(err, schema.name)
	}
	e := cdr.NewEncoder(true)
	encodeStruct(e, schema, staged)
	return e.Data(), nil
}

func encodeStruct(e *cdr.Encoder, s *SchemaDescriptor, vals stagedStruct) {
	for i, fd := range s.fields {
		var v any
		if vals != nil {
			v = vals[i]
		}
		encodeField(e, fd, v)
	}
}

func encodeField(e *cdr.Encoder, fd *FieldDescriptor, val any) {
	if !fd.card.IsArray() {
		encodeElem(e, fd, val)
		return
	}

	var items reflect.Value
	n := 0
	if val != nil {
		items = reflect.ValueOf(val)
		n = items.Len()
	}
	if fd.card.Kind == Fixed {
		n = fd.card.N
	} else {
		e.SequenceLength(n)
	}

	if b, ok := val.([]byte); ok {
		e.Bytes(b)
		return
	}
	for i := range n {
		var item any
		if items.IsValid() && i < items.Len() {
			item = items.Index(i).Interface()
		}
		encodeElem(e, fd, item)
	}
}

func encodeElem(e *cdr.Encoder, fd *FieldDescriptor, val any) {
	if fd.base == TypeComposite {
		s, _ := val.(stagedStruct)
		encodeStruct(e, fd.nested, s)
		return
	}
	if val == nil {
		val = zeroOf(fd.base)
	}
	switch fd.base {
	case TypeBool:
		e.Bool(val.(bool))
	case TypeByte, TypeChar, TypeUint8:
		e.Uint8(val.(uint8))
	case TypeInt8:
		e.Int8(val.(int8))
	case TypeInt16:
		e.Int16(val.(int16))
	case TypeUint16:
		e.Uint16(val.(uint16))
	case TypeInt32:
		e.Int32(val.(int32))
	case TypeUint32:
		e.Uint32(val.(uint32))
	case TypeInt64:
		e.Int64(val.(int64))
	case TypeUint64:
		e.Uint64(val.(uint64))
	case TypeFloat32:
		e.Float32(val.(float32))
	case TypeFloat64:
		e.Float64(val.(float64))
	case TypeString:
		e.WriteString(val.(string))
	case TypeWString:
		e.WString(utf16.Encode([]rune(val.(string))))
	default:
		panic(fmt.Sprintf("r2a: cannot encode %v", fd.base))
	}
}

func zeroOf(t BaseType) any {
	switch t {
	case TypeBool:
		return false
	case TypeByte, TypeChar, TypeUint8:
		return uint8(0)
	case TypeInt8:
		return int8(0)
	case TypeInt16:
		return int16(0)
	case TypeUint16:
		return uint16(0)
	case TypeInt32:
		return int32(0)
	case TypeUint32:
		return uint32(0)
	case TypeInt64:
		return int64(0)
	case TypeUint64:
		return uint64(0)
	case TypeFloat32:
		return float32(0)
	case TypeFloat64:
		return float64(0)
	}
	return ""
}
