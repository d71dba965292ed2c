// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// SyncPool is a generic sync.Pool wrapper for reusable scratch values;
// no other package in this module uses it (worker.RowsMarker allocates
// its rows directly).

package pool

import (
	"sync"

	"github.com/nativecql/corecql/api"
)

// SyncPool wraps sync.Pool for generic usage, implementing api.ObjectPool[T].
type SyncPool[T any] struct {
	pool *sync.Pool
}

// NewSyncPool creates a new SyncPool with a creator function.
func NewSyncPool[T any](creator func() T) *SyncPool[T] {
	return &SyncPool[T]{
		pool: &sync.Pool{New: func() any { return creator() }},
	}
}

func (sp *SyncPool[T]) Get() T {
	return sp.pool.Get().(T)
}

func (sp *SyncPool[T]) Put(obj T) {
	sp.pool.Put(obj)
}

var _ api.ObjectPool[int] = (*SyncPool[int])(nil)
