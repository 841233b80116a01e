// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package fixedpool runs a fixed set of tasks to completion.
package fixedpool

import (
	"context"
	"errors"
	"sync"

	"github.com/z5labs/minecraft/internal/try"
)

// Task is a unit of work run by [Wait].
type Task func(context.Context) error

// Wait runs every task on its own goroutine and blocks until all of them
// have returned. The first failure cancels the context seen by the other
// tasks. Panics are returned as [try.PanicError]. Errors are joined in
// task order.
func Wait(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := try.Call(func() error {
				return task(ctx)
			})
			if err != nil {
				errs[i] = err
				cancel(err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
