package service

import "sync"

type outcome[T any] struct {
	value T
	err   error
}

// future is a single-resolution result channel. Exactly one of resolve or
// fault takes effect; later calls are ignored.
type future[T any] struct {
	once sync.Once
	ch   chan outcome[T]
}

func newFuture[T any]() *future[T] {
	return &future[T]{ch: make(chan outcome[T], 1)}
}

func (f *future[T]) resolve(value T) {
	f.once.Do(func() {
		f.ch <- outcome[T]{value: value}
	})
}

func (f *future[T]) fault(err error) {
	f.once.Do(func() {
		f.ch <- outcome[T]{err: err}
	})
}

// wait blocks until the future is resolved or faulted. Commands always run to
// completion once enqueued, so there is no cancellation here.
func (f *future[T]) wait() (T, error) {
	o := <-f.ch
	return o.value, o.err
}
