/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package ring provides a fixed-capacity circular buffer.
package ring

// Buffer is a fixed-size circular buffer. Pushing into a full buffer
// overwrites the oldest element; storage never grows past the capacity
// given to New.
//
// Not safe for concurrent use; the caller synchronizes.
type Buffer[T any] struct {
	data  []T
	head  int // next write position
	count int
}

// New creates a buffer holding at most capacity elements. A non-positive
// capacity is treated as 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}

	return &Buffer[T]{data: make([]T, capacity)}
}

// Push appends item. It returns the evicted element and true when the
// buffer was already full.
func (b *Buffer[T]) Push(item T) (T, bool) {
	var evicted T

	full := b.count == len(b.data)
	if full {
		evicted = b.data[b.head]
	} else {
		b.count++
	}

	b.data[b.head] = item
	b.head = (b.head + 1) % len(b.data)

	return evicted, full
}

// At returns the i-th element counting from the oldest.
func (b *Buffer[T]) At(i int) (T, bool) {
	var zero T
	if i < 0 || i >= b.count {
		return zero, false
	}

	return b.data[b.index(i)], true
}

// Slice returns a copy of all elements, oldest first.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, b.count)
	for i := range out {
		out[i] = b.data[b.index(i)]
	}

	return out
}

// Newest returns up to n elements, newest first.
func (b *Buffer[T]) Newest(n int) []T {
	if n > b.count {
		n = b.count
	}

	if n <= 0 {
		return []T{}
	}

	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = b.data[b.index(b.count-1-i)]
	}

	return out
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int {
	return b.count
}

// Cap returns the capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.data)
}

// index maps a logical position (0 = oldest) to a slot in data.
func (b *Buffer[T]) index(i int) int {
	tail := (b.head - b.count + len(b.data)) % len(b.data)

	return (tail + i) % len(b.data)
}
