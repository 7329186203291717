// Package worklist provides a small deterministic FIFO queue used by the
// breadth-first searches in the reasoning core: unification's subproblem
// search, IndexedRuleSet's anti-unification propagation, and the Rete
// forward prover's saturation loop all pop one item and may push zero or
// more successors.
//
// The core is single-threaded cooperative (no goroutines, no channels) so
// this is a plain slice-backed queue, not a worker pool. It exists as its
// own package anyway because several otherwise-unrelated parts of the core
// share the exact same "pop next, maybe push more" shape and benefit from
// one tested implementation instead of a copy in each.
package worklist

// Queue is a generic first-in-first-out work queue. The zero value is an
// empty, usable queue.
type Queue[T any] struct {
	items []T
	head  int
}

// New creates a queue pre-populated with the given seed items, in order.
func New[T any](seed ...T) *Queue[T] {
	q := &Queue[T]{items: make([]T, len(seed))}
	copy(q.items, seed)
	return q
}

// Push appends an item to the back of the queue.
func (q *Queue[T]) Push(item T) {
	q.items = append(q.items, item)
	q.compact()
}

// PushAll appends items to the back of the queue, in order.
func (q *Queue[T]) PushAll(items []T) {
	q.items = append(q.items, items...)
	q.compact()
}

// Pop removes and returns the item at the front of the queue.
// ok is false if the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	if q.head >= len(q.items) {
		return item, false
	}
	item = q.items[q.head]
	q.head++
	q.compact()
	return item, true
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int {
	return len(q.items) - q.head
}

// Empty returns true if no items remain.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// compact drops the consumed prefix once it grows large relative to the
// live portion of the backing slice, so a long-running saturation loop
// does not retain an ever-growing array of already-popped items.
func (q *Queue[T]) compact() {
	if q.head == 0 {
		return
	}
	if q.head < 64 && q.head*2 < len(q.items) {
		return
	}
	remaining := len(q.items) - q.head
	copy(q.items, q.items[q.head:])
	q.items = q.items[:remaining]
	q.head = 0
}
