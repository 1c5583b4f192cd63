// Reco - Hybrid Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reco

package cache

import "sort"

// TopK keeps the k best values pushed into it.
//
// Internally it is a min-heap on the ranking order: the root is the worst
// value retained, so a new value only costs O(log k) when it beats the root.
// TopK is not safe for concurrent use.
type TopK[T any] struct {
	k      int
	better func(a, b T) bool
	heap   []T
}

// NewTopK returns a selector for the k best values under better.
// better must be a strict total order for the result to be deterministic.
// A non-positive k retains nothing.
func NewTopK[T any](k int, better func(a, b T) bool) *TopK[T] {
	capacity := k
	if capacity < 0 {
		capacity = 0
	}
	return &TopK[T]{k: k, better: better, heap: make([]T, 0, capacity)}
}

// Push offers v to the selector.
func (t *TopK[T]) Push(v T) {
	if t.k <= 0 {
		return
	}
	if len(t.heap) < t.k {
		t.heap = append(t.heap, v)
		t.bubbleUp(len(t.heap) - 1)
		return
	}
	if t.better(v, t.heap[0]) {
		t.heap[0] = v
		t.bubbleDown(0)
	}
}

// Len returns the number of retained values.
func (t *TopK[T]) Len() int {
	return len(t.heap)
}

// Sorted returns the retained values, best first. The selector is left intact.
func (t *TopK[T]) Sorted() []T {
	out := make([]T, len(t.heap))
	copy(out, t.heap)
	sort.Slice(out, func(i, j int) bool { return t.better(out[i], out[j]) })
	return out
}

// worse is the heap order: the root is the worst retained value.
func (t *TopK[T]) worse(i, j int) bool {
	return t.better(t.heap[j], t.heap[i])
}

func (t *TopK[T]) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !t.worse(i, parent) {
			return
		}
		t.heap[i], t.heap[parent] = t.heap[parent], t.heap[i]
		i = parent
	}
}

func (t *TopK[T]) bubbleDown(i int) {
	n := len(t.heap)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && t.worse(left, smallest) {
			smallest = left
		}
		if right < n && t.worse(right, smallest) {
			smallest = right
		}
		if smallest == i {
			return
		}
		t.heap[i], t.heap[smallest] = t.heap[smallest], t.heap[i]
		i = smallest
	}
}
