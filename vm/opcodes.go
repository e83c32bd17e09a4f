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

import "strconv"

// Opcode is a one byte instruction tag.
type Opcode byte

// Diatom Virtual Machine Opcodes.
const (
	OpExit Opcode = iota
	OpNop
	OpRet
	OpConst
	OpFetch
	OpStore
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpDup
	OpDrop
	OpSwap
	OpOver
	OpCjmp
	OpCall
	OpScall
	OpKey
	OpEmit
	OpEquals
	OpNot
	OpAnd
	OpOr
	OpLt
	OpGt
	OpRpop
	OpRput
	OpRpeek
	OpBfetch
	OpBstore
	OpDump

	opCount
)

var opcodes = [opCount]string{
	"exit",
	"nop",
	"ret",
	"const",
	"@",
	"!",
	"+",
	"-",
	"*",
	"/",
	"%",
	"dup",
	"drop",
	"swap",
	"over",
	"cjmp",
	"call",
	"scall",
	"key",
	"emit",
	"=",
	"~",
	"&",
	"|",
	"<",
	">",
	"rpop",
	"rput",
	"rpeek",
	"b@",
	"b!",
	"dump",
}

var opcodeIndex = make(map[string]Opcode, opCount)

func init() {
	for i, v := range opcodes {
		opcodeIndex[v] = Opcode(i)
	}
}

// Valid returns true if op is a member of the instruction set.
func (op Opcode) Valid() bool {
	return op < opCount
}

// HasOperand returns true if op is followed by an inline Word operand.
func (op Opcode) HasOperand() bool {
	switch op {
	case OpConst, OpCjmp, OpCall:
		return true
	}
	return false
}

// Size returns the encoded size of the instruction in bytes.
func (op Opcode) Size() int {
	if op.HasOperand() {
		return 1 + WordSize
	}
	return 1
}

// String returns the assembler mnemonic for op.
func (op Opcode) String() string {
	if op.Valid() {
		return opcodes[op]
	}
	return "Opcode(" + strconv.Itoa(int(op)) + ")"
}

// LookupOpcode returns the opcode for the given mnemonic.
func LookupOpcode(mnemonic string) (Opcode, bool) {
	op, ok := opcodeIndex[mnemonic]
	return op, ok
}

// Opcodes returns all valid opcodes in numerical order.
func Opcodes() []Opcode {
	ops := make([]Opcode, opCount)
	for i := range ops {
		ops[i] = Opcode(i)
	}
	return ops
}
