// Package bqueue is unbounded FIFO with blocking and non-blocking pop,
// safe for any number of producers and consumers.
package bqueue

import (
	"context"
	"sync"

	"github.com/juju/errors"
)

var ErrShutdown = errors.New("queue shut down")

// Zero Queue is not usable, use New.
type Queue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []T
	head     int
	shutdown bool
}

func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends item to tail and wakes one waiter.
// Returns false if queue is shut down, item is dropped.
func (q *Queue[T]) Push(item T) bool {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.cond.Signal()
	return true
}

// Pop blocks until item is available or queue is shut down.
// Items pushed before Shutdown are still delivered, then ok=false.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() == 0 && !q.shutdown {
		q.cond.Wait()
	}
	return q.popLocked()
}

// PopContext is Pop that also returns on ctx.Done().
func (q *Queue[T]) PopContext(ctx context.Context) (T, error) {
	stop := context.AfterFunc(ctx, func() {
		// taking lock orders broadcast after waiter entered cond.Wait
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.lenLocked() == 0 && !q.shutdown {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}
		q.cond.Wait()
	}
	if item, ok := q.popLocked(); ok {
		return item, nil
	}
	var zero T
	return zero, ErrShutdown
}

// TryPop never blocks.
func (q *Queue[T]) TryPop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// Drain removes and returns all queued items in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.lenLocked() == 0 {
		return nil
	}
	out := make([]T, q.lenLocked())
	copy(out, q.items[q.head:])
	q.reset()
	return out
}

// Len and IsEmpty are racy snapshots, use only as heuristics.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}
func (q *Queue[T]) IsEmpty() bool { return q.Len() == 0 }

// Shutdown wakes all blocked Pop calls. Multiple calls are allowed.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *Queue[T]) IsShutdown() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shutdown
}

func (q *Queue[T]) lenLocked() int { return len(q.items) - q.head }

func (q *Queue[T]) popLocked() (item T, ok bool) {
	if q.lenLocked() == 0 {
		return item, false
	}
	item = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	switch {
	case q.head == len(q.items):
		q.reset()
	case q.head > 64 && q.head*2 >= len(q.items):
		// compact when at least half of backing array is consumed
		n := copy(q.items, q.items[q.head:])
		for i := n; i < len(q.items); i++ {
			q.items[i] = zero
		}
		q.items = q.items[:n]
		q.head = 0
	}
	return item, true
}

func (q *Queue[T]) reset() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}
