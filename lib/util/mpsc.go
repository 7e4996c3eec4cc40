// Package util provides concurrency helpers for the gKV driver.
//
// This file implements an unbounded lock-free Multi-Producer Single-Consumer
// intake queue. The driver's async dispatcher uses it so that submitting a
// call never blocks the calling goroutine, no matter how backed up the
// worker pool is.
//
// Guarantees:
//   - Push is safe from any number of goroutines and never blocks
//   - A single consumer drains items via the Recv() channel
//   - Close is graceful: items already queued are still delivered
package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// link is a single element of the intake list.
type link[T any] struct {
	item *T
	next atomic.Pointer[link[T]]
}

// MPSC is an unbounded lock-free multi-producer single-consumer queue built
// on an atomically appended linked list.
type MPSC[T any] struct {
	head   atomic.Pointer[link[T]]
	tail   atomic.Pointer[link[T]]
	out    chan *T
	closed atomic.Bool

	mu   sync.Mutex
	cond *sync.Cond
}

// NewMPSC creates a new queue and starts its consumer goroutine.
func NewMPSC[T any]() *MPSC[T] {
	sentinel := &link[T]{}
	q := &MPSC[T]{out: make(chan *T)}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	go q.drain()
	return q
}

// Push appends an item. Returns false if the item is nil or the queue is
// closed.
//
// Thread-safety: safe for concurrent use by any number of producers.
func (q *MPSC[T]) Push(item *T) bool {
	if item == nil || q.closed.Load() {
		return false
	}

	n := &link[T]{item: item}
	for spin := 0; ; spin++ {
		tail := q.tail.Load()
		if tail.next.CompareAndSwap(nil, n) {
			// the tail CAS below may lose to a helping producer, which is fine
			q.tail.CompareAndSwap(tail, n)
			// the signal must not slip between the consumer's empty check
			// and its wait
			q.mu.Lock()
			q.cond.Signal()
			q.mu.Unlock()
			return true
		}

		// another producer won the append race: help move the tail forward
		if next := tail.next.Load(); next != nil {
			q.tail.CompareAndSwap(tail, next)
		}
		if spin > 8 {
			runtime.Gosched()
		}
	}
}

// Recv returns the receive-only consumption channel. The channel is closed
// after Close once every queued item has been delivered.
func (q *MPSC[T]) Recv() <-chan *T {
	return q.out
}

// Close prevents further pushes. Items already queued are still delivered.
func (q *MPSC[T]) Close() {
	q.closed.Store(true)
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// drain moves items from the linked list to the output channel.
func (q *MPSC[T]) drain() {
	defer close(q.out)

	for {
		delivered := false
		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			q.head.Store(next)
			q.out <- next.item
			next.item = nil
			delivered = true
		}

		if q.closed.Load() && q.head.Load().next.Load() == nil {
			return
		}

		if !delivered {
			q.mu.Lock()
			if q.head.Load().next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}
