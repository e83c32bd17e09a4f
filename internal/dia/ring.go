// This file is part of diatom - https://github.com/db47h/diatom
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dia

// Ring is a fixed size ring buffer that keeps the most recently appended
// values. The zero value is a ring of size 0 that discards everything.
type Ring[T any] struct {
	cursor int
	n      int
	buf    []T
}

// NewRing returns a ring holding up to size values.
func NewRing[T any](size int) *Ring[T] {
	if size < 0 {
		size = 0
	}
	return &Ring[T]{buf: make([]T, size)}
}

// Append adds x to the ring, evicting the oldest value if full.
func (r *Ring[T]) Append(x T) {
	if len(r.buf) == 0 {
		return
	}
	r.buf[r.cursor] = x
	r.cursor = (r.cursor + 1) % len(r.buf)
	if r.n < len(r.buf) {
		r.n++
	}
}

// Len returns the number of values in the ring.
func (r *Ring[T]) Len() int { return r.n }

// Cap returns the maximum number of values the ring holds.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Slice returns the ring contents, oldest first.
func (r *Ring[T]) Slice() []T {
	s := make([]T, r.n)
	start := r.cursor - r.n
	if start < 0 {
		start += len(r.buf)
	}
	for i := range s {
		s[i] = r.buf[(start+i)%len(r.buf)]
	}
	return s
}

// Reset empties the ring.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.cursor, r.n = 0, 0
}
