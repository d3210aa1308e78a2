// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package msgdef

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ParseFile parses a single .msg file. The type name is derived from the
// path: ".../<pkg>/msg/<Name>.msg" or ".../<pkg>/<Name>.msg".
func ParseFile(path string) (*Definition, error) {
	typeName, err := typeNameFromPath(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("msgdef: reading %s: %w", path, err)
	}
	return Parse(typeName, string(src))
}

// Load parses every .msg file found under the given files or directories,
// in lexical path order.
func Load(paths ...string) ([]*Definition, error) {
	var defs []*Definition
	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || filepath.Ext(path) != ".msg" {
				return nil
			}
			def, err := ParseFile(path)
			if err != nil {
				return err
			}
			defs = append(defs, def)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func typeNameFromPath(path string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(path), ".msg")
	dir := filepath.Dir(path)
	pkg := filepath.Base(dir)
	if pkg == "msg" {
		pkg = filepath.Base(filepath.Dir(dir))
	}
	if name == "" || pkg == "" || pkg == "." || pkg == string(filepath.Separator) {
		return "", fmt.Errorf("msgdef: cannot derive type name from %q", path)
	}
	return pkg + "/msg/" + name, nil
}
