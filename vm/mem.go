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

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DefaultMemorySize is the default memory capacity in bytes.
const DefaultMemorySize = 8192

// Memory is the byte addressable memory of a VM instance. Words are stored big
// endian.
type Memory []byte

// NewMemory returns a zeroed memory of the given capacity.
func NewMemory(capacity int) Memory {
	return make(Memory, capacity)
}

// check validates that the n bytes starting at addr lie within memory.
func (m Memory) check(addr Word, n int) (int, error) {
	a := uint64(uint32(addr))
	if a+uint64(n) > uint64(len(m)) {
		return 0, errors.Wrapf(ErrOutOfBounds, "address %d, size %d, capacity %d", uint32(addr), n, len(m))
	}
	return int(a), nil
}

// FetchByte returns the byte at address addr.
func (m Memory) FetchByte(addr Word) (byte, error) {
	a, err := m.check(addr, 1)
	if err != nil {
		return 0, err
	}
	return m[a], nil
}

// StoreByte stores b at address addr.
func (m Memory) StoreByte(addr Word, b byte) error {
	a, err := m.check(addr, 1)
	if err != nil {
		return err
	}
	m[a] = b
	return nil
}

// FetchWord returns the Word stored at addr..addr+3.
func (m Memory) FetchWord(addr Word) (Word, error) {
	a, err := m.check(addr, WordSize)
	if err != nil {
		return 0, err
	}
	return Word(int32(binary.BigEndian.Uint32(m[a:]))), nil
}

// StoreWord stores w at addr..addr+3.
func (m Memory) StoreWord(addr Word, w Word) error {
	a, err := m.check(addr, WordSize)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(m[a:], uint32(w))
	return nil
}

// Load copies the program image at the start of memory. The remainder of the
// memory is left untouched.
func (m Memory) Load(image []byte) error {
	if len(image) > len(m) {
		return errors.Wrapf(ErrProgramTooLarge, "program length %d bytes exceeds available memory (%d bytes)", len(image), len(m))
	}
	copy(m, image)
	return nil
}

// Reset zeroes the memory.
func (m Memory) Reset() {
	for n := range m {
		m[n] = 0
	}
}
