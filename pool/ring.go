// File: pool/ring.go
// Author: momentics <momentics@gmail.com>
//
// RingBuffer adapts concurrency.RingBuffer as api.Ring, used as the
// connection's stream-id free list.

package pool

import (
	"github.com/nativecql/corecql/api"
	"github.com/nativecql/corecql/concurrency"
)

// RingBuffer wraps concurrency.RingBuffer[T] for packages that import
// pool rather than concurrency directly.
type RingBuffer[T any] struct {
	*concurrency.RingBuffer[T]
}

// NewRingBuffer allocates a ring of the given size, rounded up to a
// power of two.
func NewRingBuffer[T any](size uint64) *RingBuffer[T] {
	return &RingBuffer[T]{RingBuffer: concurrency.NewRingBuffer[T](size)}
}

var _ api.Ring[any] = (*RingBuffer[any])(nil)
