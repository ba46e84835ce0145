package main

import "sync/atomic"

// onceCell holds a value produced once by a background task and read any
// number of times, possibly before it exists. The first Set or Abandon wins;
// later calls are no-ops.
type onceCell[T any] struct {
	state atomic.Pointer[cellState[T]]
}

type cellState[T any] struct {
	value T
	known bool
}

// Set stores v if the cell is still empty and reports whether it did.
func (c *onceCell[T]) Set(v T) bool {
	return c.state.CompareAndSwap(nil, &cellState[T]{value: v, known: true})
}

// Abandon settles the cell without a value. Get keeps returning false, but
// Settled reports true so readers can tell "failed" from "still running".
func (c *onceCell[T]) Abandon() bool {
	return c.state.CompareAndSwap(nil, &cellState[T]{})
}

func (c *onceCell[T]) Get() (T, bool) {
	s := c.state.Load()
	if s == nil || !s.known {
		var zero T
		return zero, false
	}
	return s.value, true
}

func (c *onceCell[T]) Settled() bool {
	return c.state.Load() != nil
}
