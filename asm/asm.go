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

package asm

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/db47h/diatom/internal/dia"
	"github.com/db47h/diatom/vm"
	"github.com/pkg/errors"
)

// mnemonic aliases, the canonical name (vm.Opcode.String) comes first.
var aliases = map[vm.Opcode][]string{
	vm.OpFetch:  {"fetch"},
	vm.OpStore:  {"store"},
	vm.OpAdd:    {"add"},
	vm.OpSub:    {"sub"},
	vm.OpMul:    {"mul"},
	vm.OpDiv:    {"div"},
	vm.OpMod:    {"mod"},
	vm.OpEquals: {"eq"},
	vm.OpNot:    {"not"},
	vm.OpAnd:    {"and"},
	vm.OpOr:     {"or"},
	vm.OpLt:     {"lt"},
	vm.OpGt:     {"gt"},
	vm.OpBfetch: {"bfetch"},
	vm.OpBstore: {"bstore"},
}

var opcodeIndex = make(map[string]vm.Opcode)

func init() {
	for _, op := range vm.Opcodes() {
		opcodeIndex[op.String()] = op
		for _, a := range aliases[op] {
			opcodeIndex[a] = op
		}
	}
}

// maxErrors is the maximum number of errors reported by Assemble.
const maxErrors = 10

// MaxSize is the image size limit used by Assemble.
const MaxSize = 1 << 24

// ErrAsm is the error type returned by Assemble. It holds a list of
// positioned errors. Err is set for errors with an underlying cause, like
// vm.ErrProgramTooLarge.
type ErrAsm []struct {
	Pos scanner.Position
	Msg string
	Err error
}

func (e ErrAsm) Error() string {
	var b strings.Builder
	for i := range e {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e[i].Pos.IsValid() {
			b.WriteString(e[i].Pos.String())
			b.WriteString(": ")
		}
		b.WriteString(e[i].Msg)
	}
	return b.String()
}

// Unwrap returns the first underlying cause found in e, if any.
func (e ErrAsm) Unwrap() error {
	for i := range e {
		if e[i].Err != nil {
			return e[i].Err
		}
	}
	return nil
}

// Assemble compiles assembly read from the supplied io.Reader and returns the
// resulting program image and error if any.
//
// Then name parameter is used only in error messages to name the source of the
// error. If the io.Reader is a file, name should be the file name.
//
// The returned error, if not nil, can safely be cast to an ErrAsm value that
// will contain up to 10 entries.
//
// Images are limited to MaxSize bytes. See AssembleLimit.
func Assemble(name string, r io.Reader) (img []byte, err error) {
	return AssembleLimit(name, r, MaxSize)
}

// AssembleLimit works like Assemble with a custom image size limit, usually
// the memory size of the target VM. Assembling stops as soon as code or data
// is compiled past maxSize bytes, and the returned error then wraps
// vm.ErrProgramTooLarge (see errors.Is). A maxSize <= 0 selects MaxSize.
func AssembleLimit(name string, r io.Reader, maxSize int) (img []byte, err error) {
	if maxSize <= 0 {
		maxSize = MaxSize
	}
	p := newParser(maxSize)
	img, err = p.Parse(name, r)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Disassemble writes a disassembly of the instruction in the given image at
// position pc to the specified io.Writer and returns the position of the next
// instruction and any write error.
//
// Bytes that do not hold a valid opcode are written as a ".byte" directive and
// const instructions are written as a bare integer, like the assembler's
// implicit const. A pc outside of img is an error.
func Disassemble(img []byte, pc int, w io.Writer) (next int, err error) {
	if pc < 0 || pc >= len(img) {
		return pc, errors.Errorf("Disassemble: pc %d out of image bounds [0, %d)", pc, len(img))
	}
	ew := dia.NewErrWriter(w)

	op := vm.Opcode(img[pc])
	if !op.Valid() {
		io.WriteString(ew, ".byte ")
		io.WriteString(ew, strconv.Itoa(int(op)))
		return pc + 1, ew.Err
	}
	pc++
	if !op.HasOperand() {
		io.WriteString(ew, op.String())
		return pc, ew.Err
	}
	if pc+vm.WordSize > len(img) {
		io.WriteString(ew, op.String())
		io.WriteString(ew, " ???")
		return len(img), ew.Err
	}
	// const is implicit
	if op != vm.OpConst {
		io.WriteString(ew, op.String())
		ew.Write([]byte{' '})
	}
	v := int32(binary.BigEndian.Uint32(img[pc:]))
	io.WriteString(ew, strconv.Itoa(int(v)))
	return pc + vm.WordSize, ew.Err
}

// DisassembleAll writes a disassembly of all instructions in the given image
// to the specified io.Writer. The base argument specifies the real address of
// the first byte (img[0]). It will return any write error.
func DisassembleAll(img []byte, base int, w io.Writer) error {
	ew := dia.NewErrWriter(w)
	for pc := 0; pc < len(img); {
		fmt.Fprintf(ew, "% 10d\t", base+pc)
		pc, _ = Disassemble(img, pc, ew)
		ew.Write([]byte{'\n'})
		if ew.Err != nil {
			return ew.Err
		}
	}
	return nil
}
