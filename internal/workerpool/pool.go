// Package workerpool runs a bounded set of concurrent jobs over a slice of
// items, shared by the Scanner's probe pool and the Orchestrator's download
// pool. Both are sized by their caller (clamped to a sane range) and both
// stop enqueuing once the context is cancelled.
package workerpool

import (
	"context"
	"errors"
	"sync"
)

// Func processes one item, returning an error specific to that item.
type Func[T any] func(ctx context.Context, item T) error

// Clamp bounds workers to [1, max]. A requested value of 0 or less falls
// back to 1.
func Clamp(requested, max int) int {
	if requested < 1 {
		requested = 1
	}
	if requested > max {
		return max
	}
	return requested
}

// Run fans items out across workers concurrent goroutines, invoking fn for
// each. It blocks until every item has been processed or the context is
// cancelled, then returns every per-item error joined together. A per-item
// error never stops other items from running; callers that need
// per-track failure semantics should have fn itself record the failure and
// always return nil.
func Run[T any](ctx context.Context, workers int, items []T, fn Func[T]) error {
	workers = Clamp(workers, len(items))
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan T)
	errCh := make(chan error, len(items))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				if err := fn(ctx, item); err != nil {
					errCh <- err
				}
			}
		}()
	}

enqueue:
	for _, item := range items {
		select {
		case <-ctx.Done():
			break enqueue
		case itemCh <- item:
		}
	}
	close(itemCh)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		errs = append(errs, ctxErr)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Feed runs fn over items arriving on an input channel rather than a
// pre-built slice, for streaming producers like the Watcher's debounced
// batches. It closes the returned done channel once every item has been
// processed (or the context is cancelled) and every worker has exited.
func Feed[T any](ctx context.Context, workers int, in <-chan T, fn Func[T]) <-chan error {
	workers = Clamp(workers, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		var wg sync.WaitGroup
		var mu sync.Mutex
		var errs []error

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case item, ok := <-in:
						if !ok {
							return
						}
						if err := fn(ctx, item); err != nil {
							mu.Lock()
							errs = append(errs, err)
							mu.Unlock()
						}
					}
				}
			}()
		}
		wg.Wait()
		if len(errs) > 0 {
			errCh <- errors.Join(errs...)
		}
	}()

	return errCh
}
