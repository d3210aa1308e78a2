// © Copyright 2025-2026, r2a authors
// SPDX-License-Identifier: Apache-2.0

package r2a

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"
)

// BuildParallel converts msgs into columns using up to workers builders
// concurrently. Each worker owns a contiguous slice of msgs, so the result
// keeps input order. The first error cancels the remaining workers.
func BuildParallel(ctx context.Context, s ArrowSupport, fields []string, workers int, msgs []any, opts ...BuilderOption) ([]FinalizedColumn, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(msgs) {
		workers = max(len(msgs), 1)
	}
	chunk := (len(msgs) + workers - 1) / workers

	parts := make([][]FinalizedColumn, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		lo := min(w*chunk, len(msgs))
		hi := min(lo+chunk, len(msgs))
		g.Go(func() error {
			rb, err := s.NewRowBuilderWith(fields, append(opts[:len(opts):len(opts)], WithInitialCapacity(hi-lo))...)
			if err != nil {
				return err
			}
			for _, m := range msgs[lo:hi] {
				if err := ctx.Err(); err != nil {
					rb.Release()
					return err
				}
				if err := rb.Append(m); err != nil {
					rb.Release()
					return err
				}
			}
			cols, err := rb.Finalize()
			if err != nil {
				return err
			}
			parts[w] = cols
			return nil
		})
	}

	err := g.Wait()
	defer func() {
		for _, p := range parts {
			ReleaseColumns(p)
		}
	}()
	if err != nil {
		return nil, err
	}
	if workers == 1 {
		cols := parts[0]
		parts[0] = nil
		return cols, nil
	}
	return ConcatColumns(memory.DefaultAllocator, parts...)
}
