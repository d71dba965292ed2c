// File: concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches background tasks across worker goroutines, using
// lock-free local queues per worker with a mutex-guarded global queue
// as overflow. cluster uses one Executor for ring-snapshot rebuilds and
// stage supervision; it is not on the per-request hot path, which goes
// through connection.Reporter directly.

package concurrency

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
)

// TaskFunc is a unit of background work submitted to an Executor.
type TaskFunc func()

// Executor manages a pool of worker goroutines.
type Executor struct {
	globalMu      sync.Mutex
	globalQueue   *queue.Queue
	globalCap     int
	localQueues   []*RingBuffer[TaskFunc]
	workers       []*worker
	closeCh       chan struct{}
	closed        atomic.Bool
	resizeRequest chan resizeReq
	mu            sync.Mutex
	wg            sync.WaitGroup
}

type resizeReq struct {
	count int
	done  chan struct{}
}

// NewExecutor creates a new Executor with the given number of workers.
// numWorkers <= 0 defaults to runtime.NumCPU().
func NewExecutor(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	e := &Executor{
		globalQueue:   queue.New(),
		globalCap:     numWorkers * 4,
		closeCh:       make(chan struct{}),
		resizeRequest: make(chan resizeReq),
	}
	e.localQueues = make([]*RingBuffer[TaskFunc], numWorkers)
	e.workers = make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		e.localQueues[i] = NewRingBuffer[TaskFunc](1024)
	}
	for i := 0; i < numWorkers; i++ {
		w := &worker{id: i, executor: e, localQueue: e.localQueues[i], stopCh: make(chan struct{}), stoppedCh: make(chan struct{})}
		e.workers[i] = w
		e.wg.Add(1)
		go w.run(&e.wg)
	}
	go e.manageResizes()
	return e
}

// Submit enqueues a task. Returns ErrExecutorClosed if the executor has
// been shut down or both the chosen local queue and global queue are full.
func (e *Executor) Submit(task TaskFunc) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	idx := int(time.Now().UnixNano()) % len(e.localQueues)
	if e.localQueues[idx].Enqueue(task) {
		return nil
	}

	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	if e.globalQueue.Length() >= e.globalCap {
		return ErrExecutorClosed
	}
	e.globalQueue.Add(task)
	return nil
}

func (e *Executor) dequeueGlobal() (TaskFunc, bool) {
	e.globalMu.Lock()
	defer e.globalMu.Unlock()
	if e.globalQueue.Length() == 0 {
		return nil, false
	}
	return e.globalQueue.Remove().(TaskFunc), true
}

// Resize dynamically scales the worker pool to newCount workers.
func (e *Executor) Resize(newCount int) {
	done := make(chan struct{})
	e.resizeRequest <- resizeReq{count: newCount, done: done}
	<-done
}

func (e *Executor) manageResizes() {
	for req := range e.resizeRequest {
		newCount := req.count
		e.mu.Lock()
		if newCount <= 0 {
			newCount = 1
		}
		current := len(e.workers)
		if newCount > current {
			for i := current; i < newCount; i++ {
				q := NewRingBuffer[TaskFunc](1024)
				e.localQueues = append(e.localQueues, q)
				w := &worker{id: i, executor: e, localQueue: q, stopCh: make(chan struct{}), stoppedCh: make(chan struct{})}
				e.workers = append(e.workers, w)
				e.wg.Add(1)
				go w.run(&e.wg)
			}
		} else if newCount < current {
			for i := newCount; i < current; i++ {
				close(e.workers[i].stopCh)
			}
			for i := newCount; i < current; i++ {
				<-e.workers[i].stoppedCh
			}
			e.workers = e.workers[:newCount]
			e.localQueues = e.localQueues[:newCount]
		}
		e.mu.Unlock()
		close(req.done)
	}
}

// Close shuts down the executor, waiting for all workers to drain and exit.
func (e *Executor) Close() {
	if e.closed.CompareAndSwap(false, true) {
		close(e.closeCh)
		close(e.resizeRequest)
		e.mu.Lock()
		for _, w := range e.workers {
			close(w.stopCh)
		}
		e.mu.Unlock()
		e.wg.Wait()
	}
}

// NumWorkers returns the current active worker count.
func (e *Executor) NumWorkers() int {
	return len(e.workers)
}

type worker struct {
	id         int
	executor   *Executor
	localQueue *RingBuffer[TaskFunc]
	stopCh     chan struct{}
	stoppedCh  chan struct{}
}

func (w *worker) run(wg *sync.WaitGroup) {
	defer func() {
		wg.Done()
		close(w.stoppedCh)
	}()
	for {
		select {
		case <-w.stopCh:
			return
		default:
			if task, ok := w.localQueue.Dequeue(); ok {
				w.safeExecute(task)
				continue
			}
			if task, ok := w.executor.dequeueGlobal(); ok {
				w.safeExecute(task)
				continue
			}
			select {
			case <-w.stopCh:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}
}

func (w *worker) safeExecute(task TaskFunc) {
	defer func() { recover() }()
	task()
}
