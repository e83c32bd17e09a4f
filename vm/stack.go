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

package vm

import "github.com/pkg/errors"

// DefaultStackSize is the default capacity of both the data and address stacks.
const DefaultStackSize = 30

// Stack is a fixed capacity LIFO of Words.
//
// A push that would fill the last slot fails, so a Stack of capacity n holds at
// most n-1 values. Existing program images rely on this limit.
type Stack struct {
	cursor int
	data   []Word
}

// NewStack returns an empty stack with the given capacity.
func NewStack(capacity int) *Stack {
	return &Stack{data: make([]Word, capacity)}
}

// Push pushes v on top of the stack.
func (s *Stack) Push(v Word) error {
	if s.cursor+1 >= len(s.data) {
		return errors.Wrapf(ErrStackOverflow, "push: cursor %d, capacity %d", s.cursor, len(s.data))
	}
	s.data[s.cursor] = v
	s.cursor++
	return nil
}

// Pop removes the value on top of the stack and returns it.
func (s *Stack) Pop() (Word, error) {
	if s.cursor <= 0 {
		return 0, errors.Wrapf(ErrStackUnderflow, "pop: cursor %d, capacity %d", s.cursor, len(s.data))
	}
	s.cursor--
	return s.data[s.cursor], nil
}

// Peek returns the value on top of the stack.
func (s *Stack) Peek() (Word, error) {
	if s.cursor <= 0 {
		return 0, errors.Wrapf(ErrStackUnderflow, "peek: cursor %d, capacity %d", s.cursor, len(s.data))
	}
	return s.data[s.cursor-1], nil
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int { return s.cursor }

// Cap returns the stack capacity.
func (s *Stack) Cap() int { return len(s.data) }

// Values returns a copy of the stack contents, bottom first.
func (s *Stack) Values() []Word {
	v := make([]Word, s.cursor)
	copy(v, s.data[:s.cursor])
	return v
}

// Reset empties the stack.
func (s *Stack) Reset() {
	for n := range s.data[:s.cursor] {
		s.data[n] = 0
	}
	s.cursor = 0
}

// resize changes the stack capacity, keeping as many values as fit.
func (s *Stack) resize(capacity int) {
	d := make([]Word, capacity)
	n := copy(d, s.data[:s.cursor])
	s.data = d
	s.cursor = n
}
