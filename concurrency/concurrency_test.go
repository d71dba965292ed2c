package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRingBufferMPMC(t *testing.T) {
	rb := NewRingBuffer[int](1024)
	producers := 8
	consumers := 8
	itemsPerProducer := 5000

	var wg sync.WaitGroup
	var sentSum, receivedSum, receivedCount int64
	totalItems := int64(producers * itemsPerProducer)

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < itemsPerProducer; i++ {
				val := pid*itemsPerProducer + i + 1
				for !rb.Enqueue(val) {
					runtime.Gosched()
				}
				atomic.AddInt64(&sentSum, int64(val))
			}
		}(p)
	}

	consumerWg := sync.WaitGroup{}
	for c := 0; c < consumers; c++ {
		consumerWg.Add(1)
		go func() {
			defer consumerWg.Done()
			for {
				if val, ok := rb.Dequeue(); ok {
					atomic.AddInt64(&receivedSum, int64(val))
					if atomic.AddInt64(&receivedCount, 1) == totalItems {
						return
					}
				} else {
					if atomic.LoadInt64(&receivedCount) >= totalItems {
						return
					}
					runtime.Gosched()
				}
			}
		}()
	}

	wg.Wait()
	done := make(chan struct{})
	go func() {
		consumerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		if sentSum != receivedSum {
			t.Errorf("checksum mismatch: sent %d, received %d", sentSum, receivedSum)
		}
	case <-time.After(5 * time.Second):
		t.Errorf("timeout waiting for consumers, received %d/%d", atomic.LoadInt64(&receivedCount), totalItems)
	}
}

func TestExecutorSubmitAndClose(t *testing.T) {
	e := NewExecutor(2)
	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if err := e.Submit(func() {
			defer wg.Done()
			count.Add(1)
		}); err != nil {
			wg.Done()
			t.Fatalf("submit failed: %v", err)
		}
	}
	wg.Wait()
	if count.Load() != 100 {
		t.Fatalf("expected 100 tasks to run, got %d", count.Load())
	}
	e.Close()
	if err := e.Submit(func() {}); err != ErrExecutorClosed {
		t.Fatalf("expected ErrExecutorClosed after Close, got %v", err)
	}
}

func TestExecutorResize(t *testing.T) {
	e := NewExecutor(4)
	if e.NumWorkers() != 4 {
		t.Fatalf("expected 4 workers, got %d", e.NumWorkers())
	}
	e.Resize(2)
	if e.NumWorkers() != 2 {
		t.Fatalf("expected 2 workers after shrink, got %d", e.NumWorkers())
	}
	e.Resize(6)
	if e.NumWorkers() != 6 {
		t.Fatalf("expected 6 workers after grow, got %d", e.NumWorkers())
	}
	e.Close()
}
