package strpack

import (
	"context"

	"github.com/arloliu/strpack/internal/workers"
)

// Future is the deferred result of an async operation.
//
// The job behind a Future always runs to completion; a context passed to
// Wait only bounds how long the caller waits for it.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func resolved[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: v, err: err}
	close(f.done)

	return f
}

// awaitResult resolves a Future from a pool result, projecting the worker
// response with get.
func awaitResult[T any](ch <-chan workers.Result[response], get func(response) T) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		res := <-ch
		if res.Err == nil {
			f.value = get(res.Value)
		}
		f.err = res.Err
		close(f.done)
	}()

	return f
}

// Done returns a channel that is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the result is available or ctx is done.
//
// Parameters:
//   - ctx: Bounds the wait; it does not cancel the job
//
// Returns:
//   - T: The operation's result
//   - error: The operation's error, or ctx.Err() when ctx ends first
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
