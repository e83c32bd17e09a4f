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

import "math"

// Word is the native VM value: a 32 bits two's complement integer.
type Word int32

// Word limits and size in bytes.
const (
	WordSize = 4
	WordMax  = math.MaxInt32
	WordMin  = math.MinInt32
)

// Boolean values.
const (
	True  Word = -1
	False Word = 0
)

// Bool converts b to its Word representation.
func Bool(b bool) Word {
	if b {
		return True
	}
	return False
}

func clamp(v int64) Word {
	switch {
	case v > WordMax:
		return WordMax
	case v < WordMin:
		return WordMin
	}
	return Word(v)
}

// Add returns a + b, saturated to [WordMin, WordMax].
func Add(a, b Word) Word {
	return clamp(int64(a) + int64(b))
}

// Sub returns a - b, saturated to [WordMin, WordMax].
func Sub(a, b Word) Word {
	return clamp(int64(a) - int64(b))
}

// Mul returns a * b, saturated to [WordMin, WordMax].
func Mul(a, b Word) Word {
	return clamp(int64(a) * int64(b))
}

// Div returns a / b truncated toward zero. WordMin / -1 saturates to WordMax.
func Div(a, b Word) (Word, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return clamp(int64(a) / int64(b)), nil
}

// Mod returns the remainder of a / b truncated toward zero. The result has the
// sign of a.
func Mod(a, b Word) (Word, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return Word(int64(a) % int64(b)), nil
}
