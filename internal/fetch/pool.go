// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package fetch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Result is the tagged per-slot outcome of a pool task. Keeping the error
// alongside the value lets callers distinguish "genuinely not found" from
// "fetch failed" before collapsing both to absent at the boundary.
type Result[R any] struct {
	Value R
	Err   error
}

// Ok reports whether the task produced a usable value.
func (r Result[R]) Ok() bool {
	return r.Err == nil
}

// Map applies fn to every item using a fixed pool of concurrency workers.
// The returned slice always has len(items) entries and results[i] corresponds
// to items[i], regardless of completion order. Each worker acquires the gate
// before starting its unit of work, so request starts are globally paced.
//
// A task that fails or panics only marks its own slot; the pool continues
// processing remaining indices. When the context is canceled, unstarted
// slots are marked with the context error and workers drain without calling
// fn again.
func Map[T, R any](ctx context.Context, items []T, concurrency int, gate *Gate, fn func(ctx context.Context, item T, index int) (R, error)) []Result[R] {
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	var next atomic.Int64
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for {
			index := int(next.Add(1)) - 1
			if index >= len(items) {
				return
			}

			if err := ctx.Err(); err != nil {
				results[index] = Result[R]{Err: err}
				continue
			}
			if err := gate.Acquire(ctx); err != nil {
				results[index] = Result[R]{Err: err}
				continue
			}

			results[index] = runTask(ctx, items[index], index, fn)
		}
	}

	wg.Add(concurrency)
	for range concurrency {
		go worker()
	}
	wg.Wait()

	return results
}

// runTask isolates a single task, converting panics into per-slot errors so
// one misbehaving task cannot abort the batch.
func runTask[T, R any](ctx context.Context, item T, index int, fn func(ctx context.Context, item T, index int) (R, error)) (result Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			result = Result[R]{Err: fmt.Errorf("task %d panicked: %v", index, r)}
		}
	}()

	value, err := fn(ctx, item, index)
	if err != nil {
		return Result[R]{Err: err}
	}
	return Result[R]{Value: value}
}
