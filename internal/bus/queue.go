package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	ErrQueueFull   = errors.New("work queue full")
	ErrQueueClosed = errors.New("work queue closed")
)

// Queue is a bounded, non-blocking work queue.
// Publishers never wait; consumers drain what is left after Close.
type Queue[T any] struct {
	mu     sync.RWMutex
	ch     chan T
	closed atomic.Bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// TryPublish enqueues an item without blocking.
func (q *Queue[T]) TryPublish(item T) error {
	// the read lock keeps Close from closing the channel under a send
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// Close stops the queue from accepting new items.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed.CompareAndSwap(false, true) {
		close(q.ch)
	}
}

// Run consumes items until the queue is closed and drained, or ctx is done.
func (q *Queue[T]) Run(ctx context.Context, handler func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-q.ch:
			if !ok {
				return
			}
			handler(item)
		}
	}
}

// RunWorkers starts n consumers and returns a channel closed once all of them exit.
func (q *Queue[T]) RunWorkers(ctx context.Context, n int, handler func(T)) <-chan struct{} {
	if n <= 0 {
		n = 1
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			q.Run(ctx, handler)
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}
