// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
//
// PayloadPool is a reusable pool for frame-body-sized byte buffers; no
// other package in this module uses it (connection allocates each frame
// afresh). Buffers are bucketed by size
// class (next power of two, floored at minClass) so a pool never hands
// back a buffer far larger than what was asked for.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/nativecql/corecql/api"
)

const minClass = 512

// PayloadPool is a size-classed byte pool. The zero value is not usable;
// construct with NewPayloadPool.
type PayloadPool struct {
	mu      sync.Mutex
	classes map[int]chan []byte

	acquired atomic.Int64
	released atomic.Int64
}

// NewPayloadPool builds an empty pool; classes are created lazily on
// first Acquire of a given size.
func NewPayloadPool() *PayloadPool {
	return &PayloadPool{classes: make(map[int]chan []byte)}
}

func classFor(n int) int {
	c := minClass
	for c < n {
		c <<= 1
	}
	return c
}

func (p *PayloadPool) bucket(class int) chan []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.classes[class]
	if !ok {
		ch = make(chan []byte, 256)
		p.classes[class] = ch
	}
	return ch
}

// Acquire returns a slice of length n, backed by a buffer of at least
// the next size class. Content is not zeroed.
func (p *PayloadPool) Acquire(n int) []byte {
	class := classFor(n)
	ch := p.bucket(class)
	p.acquired.Add(1)
	select {
	case buf := <-ch:
		return buf[:n]
	default:
		return make([]byte, n, class)
	}
}

// Release returns buf to its size class for reuse. A buffer whose
// capacity doesn't match any class boundary is discarded rather than
// rounded down, since rounding down would silently truncate a future
// Acquire of the same nominal size.
func (p *PayloadPool) Release(buf []byte) {
	class := cap(buf)
	if class&(class-1) != 0 || class < minClass {
		return
	}
	ch := p.bucket(class)
	p.released.Add(1)
	select {
	case ch <- buf[:0:class]:
	default:
		// class bucket full, drop
	}
}

// Stats reports coarse acquire/release counters; they are not exported
// to the metrics package.
func (p *PayloadPool) Stats() (acquired, released int64) {
	return p.acquired.Load(), p.released.Load()
}

var _ api.BytePool = (*PayloadPool)(nil)
