// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"fmt"

	"github.com/istvan-fodor/r2a/msgdef"
	"github.com/istvan-fodor/r2a/r2a"
)

// Package is the ROS package of every conformance type.
const Package = "r2a_conformance"

// Point is a simple 2D point.
type Point struct {
	X float64
	Y float64
}

func (Point) MessageType() string { return Package + "/msg/Point" }

// Box contains two nested Points and a label.
type Box struct {
	TopLeft     Point
	BottomRight Point
	Label       string
}

func (Box) MessageType() string { return Package + "/msg/Box" }

// Scalars has one field of every scalar type Go can express.
type Scalars struct {
	B       bool
	I8      int8
	I16     int16
	I32     int32
	I64     int64
	U8      uint8
	U16     uint16
	U32     uint32
	U64     uint64
	F32     float32
	F64     float64
	S       string
	Bounded string `r2a:"bounded,bound=4"`
}

func (Scalars) MessageType() string { return Package + "/msg/Scalars" }

// Arrays covers every cardinality.
type Arrays struct {
	Fixed     [3]float64
	Bounded   []int16 `r2a:"bounded,bound=2"`
	Unbounded []uint32
	Data      []byte
	Digest    [4]uint8
	Flags     []bool
	Names     []string
	Points    []Point
	Corners   [2]Point
}

func (Arrays) MessageType() string { return Package + "/msg/Arrays" }

// Optional has only nullable fields.
type Optional struct {
	Label  *string
	Count  *int32
	Origin *Point
	Values *[]float32
}

func (Optional) MessageType() string { return Package + "/msg/Optional" }

// Scene nests composites two levels deep.
type Scene struct {
	Name     string
	Box      Box
	Boxes    []Box `r2a:"boxes,bound=8"`
	Optional Optional
}

func (Scene) MessageType() string { return Package + "/msg/Scene" }

// WideType is the type id of the definition-built Wide message.
const WideType = Package + "/msg/Wide"

// Definitions holds the message definitions of the conformance types that
// cannot be declared as Go structs.
const Definitions = `# char, byte and wstring only exist in message definitions
char letter
byte flag
wstring greeting
wstring<=4 short_greeting
char[2] code
byte[] blob
byte[<=4] small_blob
wstring[] phrases
r2a_conformance/Point origin
`

// Register adds every conformance type to r.
func Register(r *r2a.Registry) error {
	for _, reg := range []func(*r2a.Registry) (r2a.ArrowSupport, error){
		r2a.Register[Point],
		r2a.Register[Box],
		r2a.Register[Scalars],
		r2a.Register[Arrays],
		r2a.Register[Optional],
		r2a.Register[Scene],
	} {
		if _, err := reg(r); err != nil {
			return fmt.Errorf("conformance: %w", err)
		}
	}
	def, err := msgdef.Parse(WideType, Definitions)
	if err != nil {
		return fmt.Errorf("conformance: %w", err)
	}
	if err := r.RegisterDefinitions(def); err != nil {
		return fmt.Errorf("conformance: %w", err)
	}
	return nil
}

// NewRegistry returns a registry holding only the conformance types.
func NewRegistry() *r2a.Registry {
	r := r2a.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
