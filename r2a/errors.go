// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"fmt"
	"strings"
)

// Kind classifies an *Error.
type Kind int

const (
	// KindUnsupportedType means a source field type has no Arrow equivalent.
	// Raised while building a schema; the type is not registered.
	KindUnsupportedType Kind = iota + 1
	// KindConfiguration means a builder or registry lookup was asked for
	// something that does not exist (unknown or duplicate field, unknown type).
	KindConfiguration
	// KindSchemaMismatch means a message instance does not have the shape
	// its schema describes.
	KindSchemaMismatch
	// KindConversion means a value cannot be represented in its Arrow type.
	KindConversion
	// KindState means an operation was called in the wrong lifecycle state.
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedType:
		return "UnsupportedTypeError"
	case KindConfiguration:
		return "ConfigurationError"
	case KindSchemaMismatch:
		return "SchemaMismatchError"
	case KindConversion:
		return "ConversionError"
	case KindState:
		return "StateError"
	default:
		return "Error"
	}
}

// Sentinels for use with errors.Is. Any *Error of the same Kind matches.
var (
	ErrUnsupportedType = &Error{Kind: KindUnsupportedType}
	ErrConfiguration   = &Error{Kind: KindConfiguration}
	ErrSchemaMismatch  = &Error{Kind: KindSchemaMismatch}
	ErrConversion      = &Error{Kind: KindConversion}
	ErrState           = &Error{Kind: KindState}
)

// Error is the error type returned by every operation in this package.
type Error struct {
	Kind    Kind
	Type    string // message type id, if known
	Field   string // dotted field path, if known
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Type != "" || e.Field != "" {
		b.WriteString(" [")
		b.WriteString(e.Type)
		if e.Field != "" {
			if e.Type != "" {
				b.WriteByte(' ')
			}
			b.WriteString(e.Field)
		}
		b.WriteByte(']')
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Is supports errors.Is by matching any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// atField returns a copy of err with name prepended to its field path.
// Errors that are not *Error are wrapped as kind.
func atField(err error, name string) error {
	e, ok := err.(*Error)
	if !ok {
		return &Error{Kind: KindConversion, Field: name, Message: "converting value", Cause: err}
	}
	cp := *e
	switch {
	case cp.Field == "":
		cp.Field = name
	case strings.HasPrefix(cp.Field, "["):
		cp.Field = name + cp.Field
	default:
		cp.Field = name + "." + cp.Field
	}
	return &cp
}

// ofType returns a copy of err tagged with the message type id.
func ofType(err error, typeName string) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	cp := *e
	cp.Type = typeName
	return &cp
}
