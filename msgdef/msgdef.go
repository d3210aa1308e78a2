// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Package msgdef parses ROS 2 message definition (.msg) files.
//
// A definition is an ordered list of fields and constants:
//
//	# comment
//	int32 CONSTANT=7
//	std_msgs/Header header
//	float32[] ranges
//	uint8[16] id
//	string<=32 label "default"
//	geometry_msgs/Point[<=4] corners
//
// Several definitions may be concatenated into one bundle, separated by a
// line of '=' characters and introduced by "MSG: pkg/Name". This is the
// layout rosbag2 stores alongside recorded topics.
package msgdef

import (
	"fmt"
	"strconv"
	"strings"
)

// ArrayKind describes whether a field holds one value or a sequence.
type ArrayKind int

const (
	NotArray       ArrayKind = iota // T
	FixedArray                      // T[N]
	BoundedArray                    // T[<=N]
	UnboundedArray                  // T[]
)

// Type is a parsed field type.
type Type struct {
	// Package is empty for primitive types. For composite types written
	// without a package it is the package of the enclosing definition.
	Package string
	// Name is the primitive name ("int32", "string") or the composite
	// message name ("Point").
	Name string
	// StringBound is N for string<=N and wstring<=N, 0 when unbounded.
	StringBound int
	Array       ArrayKind
	// Size is N for T[N] and T[<=N].
	Size int
}

var primitives = map[string]bool{
	"bool": true, "byte": true, "char": true,
	"int8": true, "uint8": true, "int16": true, "uint16": true,
	"int32": true, "uint32": true, "int64": true, "uint64": true,
	"float32": true, "float64": true,
	"string": true, "wstring": true,
}

// aliases maps ROS 1 spellings still found in bundles to their ROS 2 types.
var aliases = map[string][2]string{
	"time":     {"builtin_interfaces", "Time"},
	"duration": {"builtin_interfaces", "Duration"},
	"Header":   {"std_msgs", "Header"},
}

// IsPrimitive reports whether t names a built-in type.
func (t Type) IsPrimitive() bool {
	return t.Package == "" && primitives[t.Name]
}

// FullName returns "pkg/msg/Name" for composite types and the primitive
// name otherwise.
func (t Type) FullName() string {
	if t.IsPrimitive() {
		return t.Name
	}
	return t.Package + "/msg/" + t.Name
}

// Elem returns the element type of an array type.
func (t Type) Elem() Type {
	t.Array = NotArray
	t.Size = 0
	return t
}

// String returns the IDL spelling of t.
func (t Type) String() string {
	var b strings.Builder
	b.WriteString(t.FullName())
	if t.StringBound > 0 {
		b.WriteString("<=")
		b.WriteString(strconv.Itoa(t.StringBound))
	}
	switch t.Array {
	case FixedArray:
		fmt.Fprintf(&b, "[%d]", t.Size)
	case BoundedArray:
		fmt.Fprintf(&b, "[<=%d]", t.Size)
	case UnboundedArray:
		b.WriteString("[]")
	}
	return b.String()
}

// Field is one field of a definition.
type Field struct {
	Name       string
	Type       Type
	Default    string
	HasDefault bool
}

// Constant is a named constant of a definition.
type Constant struct {
	Name  string
	Type  Type
	Value string
}

// Definition is one parsed message type.
type Definition struct {
	Package   string
	Name      string
	Fields    []Field
	Constants []Constant
}

// FullName returns the type id, "pkg/msg/Name".
func (d *Definition) FullName() string {
	return d.Package + "/msg/" + d.Name
}

// ParseError reports a malformed definition line.
type ParseError struct {
	Type string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("msgdef: %s:%d: %s", e.Type, e.Line, e.Msg)
}

// SplitName splits "pkg/msg/Name" or "pkg/Name" into package and name.
func SplitName(typeName string) (pkg, name string, err error) {
	parts := strings.Split(typeName, "/")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], nil
	case len(parts) == 3 && parts[1] == "msg" && parts[0] != "" && parts[2] != "":
		return parts[0], parts[2], nil
	}
	return "", "", fmt.Errorf("msgdef: invalid type name %q", typeName)
}

// Parse parses the text of a single .msg file for type pkg/Name.
func Parse(typeName, src string) (*Definition, error) {
	pkg, name, err := SplitName(typeName)
	if err != nil {
		return nil, err
	}
	def := &Definition{Package: pkg, Name: name}
	seen := make(map[string]bool)
	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		lineErr := func(format string, args ...any) error {
			return &ParseError{Type: def.FullName(), Line: i + 1, Msg: fmt.Sprintf(format, args...)}
		}

		typeTok, rest, ok := strings.Cut(line, " ")
		if !ok {
			typeTok, rest, ok = strings.Cut(line, "\t")
		}
		if !ok {
			return nil, lineErr("expected \"<type> <name>\", got %q", line)
		}
		rest = strings.TrimSpace(rest)
		t, err := parseType(typeTok, pkg)
		if err != nil {
			return nil, lineErr("%v", err)
		}

		// Constants: NAME=value (whitespace around '=' allowed).
		if eq := strings.IndexByte(rest, '='); eq > 0 && isConstName(strings.TrimSpace(rest[:eq])) {
			cname := strings.TrimSpace(rest[:eq])
			if !t.IsPrimitive() || t.Array != NotArray {
				return nil, lineErr("constant %s must have a primitive scalar type", cname)
			}
			def.Constants = append(def.Constants, Constant{
				Name:  cname,
				Type:  t,
				Value: strings.TrimSpace(rest[eq+1:]),
			})
			continue
		}

		fname, defValue, hasDefault := strings.Cut(rest, " ")
		if !hasDefault {
			fname, defValue, hasDefault = strings.Cut(rest, "\t")
		}
		if !isFieldName(fname) {
			return nil, lineErr("invalid field name %q", fname)
		}
		if seen[fname] {
			return nil, lineErr("duplicate field %q", fname)
		}
		seen[fname] = true
		def.Fields = append(def.Fields, Field{
			Name:       fname,
			Type:       t,
			Default:    strings.TrimSpace(defValue),
			HasDefault: hasDefault && strings.TrimSpace(defValue) != "",
		})
	}
	return def, nil
}

// ParseBundle parses a concatenated definition bundle. The first section
// is the definition of typeName; later sections start with "MSG: pkg/Name".
func ParseBundle(typeName, src string) ([]*Definition, error) {
	var defs []*Definition
	current := typeName
	var body []string
	flush := func() error {
		if current == "" {
			if strings.TrimSpace(strings.Join(body, "")) != "" {
				return fmt.Errorf("msgdef: bundle section without MSG: header")
			}
			return nil
		}
		def, err := Parse(current, strings.Join(body, "\n"))
		if err != nil {
			return err
		}
		defs = append(defs, def)
		return nil
	}
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if isSeparator(trimmed) {
			if err := flush(); err != nil {
				return nil, err
			}
			current, body = "", nil
			continue
		}
		if current == "" && strings.HasPrefix(trimmed, "MSG:") {
			current = strings.TrimSpace(strings.TrimPrefix(trimmed, "MSG:"))
			continue
		}
		body = append(body, line)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return defs, nil
}

func parseType(tok, pkg string) (Type, error) {
	var t Type
	base := tok
	if open := strings.IndexByte(tok, '['); open >= 0 {
		if !strings.HasSuffix(tok, "]") {
			return t, fmt.Errorf("unterminated array in %q", tok)
		}
		base = tok[:open]
		inner := tok[open+1 : len(tok)-1]
		switch {
		case inner == "":
			t.Array = UnboundedArray
		case strings.HasPrefix(inner, "<="):
			n, err := strconv.Atoi(inner[2:])
			if err != nil || n <= 0 {
				return t, fmt.Errorf("invalid array bound in %q", tok)
			}
			t.Array, t.Size = BoundedArray, n
		default:
			n, err := strconv.Atoi(inner)
			if err != nil || n <= 0 {
				return t, fmt.Errorf("invalid array size in %q", tok)
			}
			t.Array, t.Size = FixedArray, n
		}
	}
	if name, bound, ok := strings.Cut(base, "<="); ok {
		if name != "string" && name != "wstring" {
			return t, fmt.Errorf("only strings may be bounded, got %q", tok)
		}
		n, err := strconv.Atoi(bound)
		if err != nil || n <= 0 {
			return t, fmt.Errorf("invalid string bound in %q", tok)
		}
		t.Name, t.StringBound = name, n
		return t, nil
	}
	if primitives[base] {
		t.Name = base
		return t, nil
	}
	if alias, ok := aliases[base]; ok {
		t.Package, t.Name = alias[0], alias[1]
		return t, nil
	}
	if strings.Contains(base, "/") {
		p, n, err := SplitName(base)
		if err != nil {
			return t, err
		}
		t.Package, t.Name = p, n
		return t, nil
	}
	if base == "" || !isTypeName(base) {
		return t, fmt.Errorf("invalid type %q", tok)
	}
	t.Package, t.Name = pkg, base
	return t, nil
}

// stripComment removes a trailing '#' comment that is not inside quotes.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

func isSeparator(line string) bool {
	return len(line) >= 3 && strings.Trim(line, "=") == ""
}

func isFieldName(s string) bool {
	if s == "" || !isLetter(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isLetter(s[i]) && !isDigit(s[i]) && s[i] != '_' {
			return false
		}
	}
	return true
}

func isConstName(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && !isDigit(c) && c != '_' {
			return false
		}
	}
	return true
}

func isTypeName(s string) bool {
	return isFieldName(s) && s[0] >= 'A' && s[0] <= 'Z'
}

func isLetter(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
