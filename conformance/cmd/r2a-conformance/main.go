// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

// Command r2a-conformance writes the conformance cases as fixture files so
// other implementations can be checked against them. For each valid case
// that survives CDR serialization it writes <name>.frames, a stream of
// length-prefixed CDR frames, and <name>.arrow, the expected columns as an
// Arrow IPC stream.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/istvan-fodor/r2a/conformance"
	"github.com/istvan-fodor/r2a/r2a"
	"github.com/istvan-fodor/r2a/sink"
	"github.com/istvan-fodor/r2a/transport"
)

func main() {
	out := pflag.StringP("out", "o", "conformance-out", "output directory")
	list := pflag.Bool("list", false, "list the cases and exit")
	pflag.Parse()

	if *list {
		for _, c := range conformance.Cases() {
			want := "ok"
			if c.Err != nil {
				want = c.Err.Error()
			}
			fmt.Printf("%-28s %-36s %s\n", c.Name, c.Type, want)
		}
		return
	}

	if err := run(context.Background(), *out); err != nil {
		fmt.Fprintf(os.Stderr, "r2a-conformance: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	reg := conformance.NewRegistry()
	n := 0
	for _, c := range conformance.Valid() {
		if c.HasNulls || len(c.Fields) > 0 {
			continue
		}
		base := filepath.Join(dir, strings.ReplaceAll(c.Name, "/", "_"))
		if err := writeCase(ctx, reg, c, base); err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}
		n++
	}
	fmt.Printf("wrote %d cases to %s\n", n, dir)
	return nil
}

func writeCase(ctx context.Context, reg *r2a.Registry, c conformance.Case, base string) error {
	sup, err := reg.Support(c.Type)
	if err != nil {
		return err
	}
	raw, err := r2a.EncodeCDR(sup.FieldDescriptors(), c.Message)
	if err != nil {
		return err
	}
	frames, err := os.Create(base + ".frames")
	if err != nil {
		return err
	}
	if err := transport.NewFrameWriter(frames).WriteFrame(raw); err != nil {
		frames.Close()
		return err
	}
	if err := frames.Close(); err != nil {
		return err
	}

	rb, err := sup.NewRowBuilder()
	if err != nil {
		return err
	}
	schema := rb.Schema()
	if err := rb.AppendRaw(raw); err != nil {
		rb.Release()
		return err
	}
	cols, err := rb.Finalize()
	if err != nil {
		return err
	}
	defer r2a.ReleaseColumns(cols)
	md := schema.Metadata()
	batch := r2a.NewRecordBatch(cols, &md)
	defer batch.Release()

	f, err := os.Create(base + ".arrow")
	if err != nil {
		return err
	}
	w, err := sink.NewIPCWriter(f, schema, sink.CompressionNone)
	if err != nil {
		f.Close()
		return err
	}
	if err := w.WriteBatch(ctx, batch); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
