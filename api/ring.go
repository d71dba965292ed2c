// Package api defines the small set of contracts shared across corecql's
// packages (pool, concurrency, connection, shard) so each can be
// substituted with a test double without an import cycle back into the
// concrete implementations.
//
// Author: momentics
//
// Fast, lock-free ring buffer contract for cross-thread data transfer.
// Backs the stream-id free list used by a Reporter and the task inboxes
// used by the concurrency Executor.

package api

// Ring contract for high-performance, concurrent FIFO.
type Ring[T any] interface {
    // Enqueue adds item, returns false if buffer full.
    Enqueue(item T) bool

    // Dequeue removes and returns the oldest item, false if buffer empty.
    Dequeue() (T, bool)

    // Len returns number of items currently in buffer.
    Len() int

    // Cap returns fixed buffer capacity.
    Cap() int
}
