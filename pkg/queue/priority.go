package queue

import (
	"container/heap"
)

// heapStore orders items by a caller-supplied less function. Ties are broken
// by arrival sequence, so equal-priority items keep FIFO order.
type heapStore[T any] struct {
	entries []heapEntry[T]
	less    func(a, b T) bool
	seq     uint64
}

type heapEntry[T any] struct {
	item T
	seq  uint64
}

func newHeapStore[T any](capacity int, less func(a, b T) bool) *heapStore[T] {
	return &heapStore[T]{
		entries: make([]heapEntry[T], 0, capacity),
		less:    less,
	}
}

func (h *heapStore[T]) push(item T) {
	h.seq++
	heap.Push(h, heapEntry[T]{item: item, seq: h.seq})
}

func (h *heapStore[T]) pop() T {
	e := heap.Pop(h).(heapEntry[T])
	return e.item
}

func (h *heapStore[T]) len() int { return len(h.entries) }

// heap.Interface. Callers use push/pop above; these exist for container/heap.

func (h *heapStore[T]) Len() int { return len(h.entries) }

func (h *heapStore[T]) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if h.less(a.item, b.item) {
		return true
	}
	if h.less(b.item, a.item) {
		return false
	}
	return a.seq < b.seq // FIFO within equal priority
}

func (h *heapStore[T]) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
}

func (h *heapStore[T]) Push(x any) {
	h.entries = append(h.entries, x.(heapEntry[T]))
}

func (h *heapStore[T]) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	var zero heapEntry[T]
	old[n-1] = zero // Clear for GC
	h.entries = old[:n-1]
	return e
}
