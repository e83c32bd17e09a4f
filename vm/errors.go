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
	"bytes"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Errors returned by the VM components. Faults returned by Run wrap one of
// these and can be tested with errors.Is.
var (
	ErrStackOverflow      = errors.New("stack overflow")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrOutOfBounds        = errors.New("out of bounds memory access")
	ErrIllegalInstruction = errors.New("illegal instruction")
	ErrProgramTooLarge    = errors.New("program too large")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrPortClosed         = errors.New("input port closed")
	ErrConcurrentRead     = errors.New("concurrent read on input port")
	ErrNotReady           = errors.New("instance not ready")
)

// FaultKind classifies a Fault.
type FaultKind int

// Fault kinds.
const (
	KindStackOverflow FaultKind = iota
	KindStackUnderflow
	KindOutOfBounds
	KindIllegalInstruction
	KindProgramTooLarge
	KindDivisionByZero
	KindInput  // input source failed, was closed or the context was canceled
	KindOutput // output sink failed
)

var faultKinds = [...]string{
	"stack overflow",
	"stack underflow",
	"out of bounds access",
	"illegal instruction",
	"program too large",
	"division by zero",
	"input error",
	"output error",
}

func (k FaultKind) String() string {
	if k < 0 || int(k) >= len(faultKinds) {
		return "FaultKind(" + strconv.Itoa(int(k)) + ")"
	}
	return faultKinds[k]
}

func kindOf(err error) FaultKind {
	switch errors.Cause(err) {
	case ErrStackOverflow:
		return KindStackOverflow
	case ErrStackUnderflow:
		return KindStackUnderflow
	case ErrOutOfBounds:
		return KindOutOfBounds
	case ErrIllegalInstruction:
		return KindIllegalInstruction
	case ErrProgramTooLarge:
		return KindProgramTooLarge
	case ErrDivisionByZero:
		return KindDivisionByZero
	}
	return KindInput
}

// Fault is the error returned by Run and Step when execution stops on a fatal
// condition. The instance is left in the Faulted state.
type Fault struct {
	Kind FaultKind
	PC   uint32 // address of the faulting instruction
	Op   Opcode // opcode at PC
	Addr Word   // offending address or operand, if any
	Err  error  // underlying error
	// Recent holds the most recently executed instructions, oldest first.
	// The faulting instruction is the last entry.
	Recent []TraceEntry
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s @pc=%d (%s): %v", f.Kind, f.PC, f.Op, f.Err)
}

// Cause returns the underlying error. It makes Fault play nice with
// errors.Cause.
func (f *Fault) Cause() error { return f.Err }

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error { return f.Err }

// Trace formats the recent execution trace, most recent instruction first.
func (f *Fault) Trace() string {
	var b bytes.Buffer
	for n := len(f.Recent) - 1; n >= 0; n-- {
		e := &f.Recent[n]
		fmt.Fprintf(&b, "pc: %d  instruction: %s\n", e.PC, e.Op)
		fmt.Fprintf(&b, "data stack: %v\n", e.Data)
		fmt.Fprintf(&b, "return stack: %v\n\n", e.Address)
	}
	return b.String()
}

// TraceEntry records the machine state before an instruction was executed.
type TraceEntry struct {
	PC      uint32
	Op      Opcode
	Data    []Word
	Address []Word
}
