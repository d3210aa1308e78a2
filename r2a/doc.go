// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package r2a converts ROS 2 messages into Apache Arrow columns.
//
// A [Registry] derives one immutable [SchemaDescriptor] per message type,
// either by reflecting a Go struct or from parsed .msg definitions. The
// schema maps every field to an Arrow type deterministically (see
// [MapType]). A [RowBuilder] then takes message instances one at a time
// and, on [RowBuilder.Finalize], returns one Arrow array per selected
// field.
//
// # Struct tags
//
// Go message types are plain structs. Field names default to the snake_case
// of the Go name and can be set with an `r2a` struct tag:
//
//	`r2a:"frame_id"`       field name
//	`r2a:"ranges,bound=8"` bounded sequence, or string<=8 on a string field
//	`r2a:"-"`              skipped
//
// Pointer fields are nullable. Slices are unbounded sequences, arrays are
// fixed arrays and []byte is binary. A type implements [Message] to declare
// its ROS type id.
//
// # Field selection
//
// Builders bind fields by name. Names may be dotted paths through scalar
// composite fields ("header.stamp.sec"), and the name "message_struct"
// binds the whole message as one struct column.
//
// # Appending
//
// [RowBuilder.Append] validates every bound value before touching any
// column, so a failed append leaves the builder unchanged.
// [RowBuilder.AppendRaw] does the same for CDR-serialized messages.
//
// # Errors
//
// All errors are *[Error] values; use errors.Is with [ErrUnsupportedType],
// [ErrConfiguration], [ErrSchemaMismatch], [ErrConversion] or [ErrState]
// to classify them.
package r2a
