// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package conformance provides fixtures for checking a message to Arrow
// conversion against a known set of inputs. It defines message types that
// together cover every base type and cardinality: scalars, fixed arrays,
// bounded and unbounded sequences, byte sequences, nullable fields and
// nested composites. Types that Go reflection cannot express (char, byte
// and wstring) are provided as message definitions.
//
// [Register] adds all of them to a registry. [Cases] returns canonical
// messages, valid and invalid, each with the error kind it must produce.
package conformance
