package service

import "sync"

// queue is an unbounded multi-producer single-consumer FIFO. Producers never
// block; the single consumer blocks in dequeue until an item arrives or the
// queue is closed and drained.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []any
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// enqueue appends an item, reporting false once the queue has been closed.
func (q *queue) enqueue(item any) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, item)
	q.cond.Signal()

	return true
}

// dequeue removes the oldest item, blocking while the queue is open and empty.
// It reports false only after close, once every remaining item has been drained.
func (q *queue) dequeue() (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return nil, false
	}

	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]

	return item, true
}

// close rejects further enqueues; already queued items remain dequeuable.
func (q *queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
