package store

import "context"

// Future is the pending result of an asynchronous store operation.
// It completes exactly once. Callers that don't care about the outcome may drop it.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// async runs fn in its own goroutine and returns its future.
func async[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		v, err := fn()
		f.val, f.err = v, err
		close(f.done)
	}()
	return f
}

// completed returns a future that has already finished.
func completed[T any](v T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: v, err: err}
	close(f.done)
	return f
}

// Done is closed when the operation finishes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the operation finishes or ctx is done.
// A ctx error does not cancel the operation itself.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls fn with the result once the operation finishes.
// fn runs on its own goroutine.
func (f *Future[T]) Then(fn func(T, error)) {
	go func() {
		<-f.done
		fn(f.val, f.err)
	}()
}
