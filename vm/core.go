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
	"context"

	"github.com/pkg/errors"
)

// the context is polled every cancelCheckInterval instructions; KEY always
// honours it.
const cancelCheckInterval = 1024

// ioError tags errors from the input source or output sink.
type ioError struct {
	kind FaultKind
	err  error
}

func (e *ioError) Error() string { return e.err.Error() }

func (i *Instance) begin() error {
	if !i.busy.CompareAndSwap(false, true) {
		return errors.Wrap(ErrNotReady, "already executing")
	}
	switch s := i.State(); s {
	case Ready:
		i.state.Store(int32(Running))
		logger.Debugf("execution started @pc=%d", i.pc)
	case Running:
	default:
		i.busy.Store(false)
		return errors.Wrapf(ErrNotReady, "instance is %s", s)
	}
	return nil
}

func (i *Instance) end() {
	if s := i.State(); s == Halted || s == Faulted {
		if f, ok := i.output.(flusher); ok {
			if err := f.Flush(); err != nil {
				logger.Errorf("output flush: %v", err)
			}
		}
	}
	i.busy.Store(false)
}

func (i *Instance) fault(pc uint32, op Opcode, addr Word, err error) *Fault {
	f := &Fault{PC: pc, Op: op, Addr: addr, Err: err}
	if e, ok := err.(*ioError); ok {
		f.Kind, f.Err = e.kind, e.err
	} else {
		f.Kind = kindOf(err)
	}
	f.Recent = i.trace.Slice()
	i.state.Store(int32(Faulted))
	logger.Errorf("%v", f)
	return f
}

// Run starts or resumes execution of the VM until it halts or faults.
//
// Run returns nil when the program executes EXIT; the instance is then Halted.
// Any fatal error stops execution, leaves the instance Faulted and is returned
// as a *Fault. No partially executed instruction is rolled back.
//
// Execution only blocks in the KEY instruction, while waiting on the input
// source. Canceling ctx or closing the input port stops a blocked KEY with a
// KindInput fault.
func (i *Instance) Run(ctx context.Context) error {
	if err := i.begin(); err != nil {
		return err
	}
	defer i.end()
	for {
		if i.insCount%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return i.fault(i.pc, i.opAt(i.pc), 0, &ioError{KindInput, err})
			}
		}
		if err := i.step(ctx); err != nil {
			return err
		}
		if i.State() == Halted {
			logger.Debugf("halted after %d instructions", i.insCount)
			return nil
		}
	}
}

// Step executes a single instruction. It has the same semantics as Run
// otherwise and is intended for hosts that schedule execution themselves. The
// caller should check State after each Step.
func (i *Instance) Step(ctx context.Context) error {
	if err := i.begin(); err != nil {
		return err
	}
	defer i.end()
	return i.step(ctx)
}

func (i *Instance) pop2() (a, b Word, err error) {
	if a, err = i.data.Pop(); err != nil {
		return
	}
	b, err = i.data.Pop()
	return
}

// opAt returns the opcode at pc, or an invalid opcode if pc is out of bounds.
func (i *Instance) opAt(pc uint32) Opcode {
	if uint64(pc) < uint64(len(i.mem)) {
		return Opcode(i.mem[pc])
	}
	return Opcode(0xff)
}

// operand returns the Word operand following the opcode at pc.
func (i *Instance) operand(pc uint32) (Word, error) {
	return i.mem.FetchWord(Word(pc + 1))
}

func (i *Instance) step(ctx context.Context) error {
	pc := i.pc
	b, err := i.mem.FetchByte(Word(pc))
	if err != nil {
		return i.fault(pc, i.opAt(pc), Word(pc), err)
	}
	op := Opcode(b)
	if i.trace.Cap() > 0 {
		i.trace.Append(TraceEntry{PC: pc, Op: op, Data: i.data.Values(), Address: i.address.Values()})
	}

	var addr Word
	next := pc + 1

	// err is checked once after the switch: every instruction either
	// completes or leaves err set.
	switch op {
	case OpExit:
		i.state.Store(int32(Halted))
		next = pc
	case OpNop:
	case OpRet:
		var a Word
		if a, err = i.address.Pop(); err == nil {
			next = uint32(a)
		}
	case OpConst:
		var w Word
		if w, err = i.operand(pc); err == nil {
			err = i.data.Push(w)
			next = pc + 1 + WordSize
		}
	case OpFetch:
		if addr, err = i.data.Pop(); err == nil {
			var w Word
			if w, err = i.mem.FetchWord(addr); err == nil {
				err = i.data.Push(w)
			}
		}
	case OpStore:
		var v Word
		if addr, v, err = i.pop2(); err == nil {
			err = i.mem.StoreWord(addr, v)
		}
	case OpAdd, OpSub, OpMul, OpAnd, OpOr, OpEquals, OpLt, OpGt:
		var a, b Word
		if a, b, err = i.pop2(); err == nil {
			err = i.data.Push(binop(op, b, a))
		}
	case OpDiv, OpMod:
		var a, b, r Word
		if a, b, err = i.pop2(); err == nil {
			if op == OpDiv {
				r, err = Div(b, a)
			} else {
				r, err = Mod(b, a)
			}
			if err == nil {
				err = i.data.Push(r)
			}
		}
	case OpDup:
		var a Word
		if a, err = i.data.Peek(); err == nil {
			err = i.data.Push(a)
		}
	case OpDrop, OpDump:
		_, err = i.data.Pop()
	case OpSwap:
		var a, b Word
		if a, b, err = i.pop2(); err == nil {
			if err = i.data.Push(a); err == nil {
				err = i.data.Push(b)
			}
		}
	case OpOver:
		var a, b Word
		if a, b, err = i.pop2(); err == nil {
			if err = i.data.Push(b); err == nil {
				if err = i.data.Push(a); err == nil {
					err = i.data.Push(b)
				}
			}
		}
	case OpCjmp:
		var cond, target Word
		if cond, err = i.data.Pop(); err == nil {
			if target, err = i.operand(pc); err == nil {
				if cond == True {
					next = uint32(target)
				} else {
					next = pc + 1 + WordSize
				}
			}
		}
	case OpCall:
		var target Word
		if target, err = i.operand(pc); err == nil {
			if err = i.address.Push(Word(pc + 1 + WordSize)); err == nil {
				next = uint32(target)
			}
		}
	case OpScall:
		var target Word
		if target, err = i.data.Pop(); err == nil {
			if err = i.address.Push(Word(pc + 1)); err == nil {
				next = uint32(target)
			}
		}
	case OpKey:
		var c byte
		if c, err = i.input.NextByte(ctx); err != nil {
			err = &ioError{KindInput, err}
		} else {
			err = i.data.Push(Word(c))
		}
	case OpEmit:
		var v Word
		if v, err = i.data.Pop(); err == nil {
			if err = i.output.WriteByte(byte(v)); err != nil {
				err = &ioError{KindOutput, err}
			}
		}
	case OpNot:
		var a Word
		if a, err = i.data.Pop(); err == nil {
			err = i.data.Push(^a)
		}
	case OpRpop:
		var a Word
		if a, err = i.address.Pop(); err == nil {
			err = i.data.Push(a)
		}
	case OpRput:
		var a Word
		if a, err = i.data.Pop(); err == nil {
			err = i.address.Push(a)
		}
	case OpRpeek:
		var a Word
		if a, err = i.address.Peek(); err == nil {
			err = i.data.Push(a)
		}
	case OpBfetch:
		if addr, err = i.data.Pop(); err == nil {
			var c byte
			if c, err = i.mem.FetchByte(addr); err == nil {
				err = i.data.Push(Word(c))
			}
		}
	case OpBstore:
		var v Word
		if addr, v, err = i.pop2(); err == nil {
			err = i.mem.StoreByte(addr, byte(v))
		}
	default:
		err = errors.Wrapf(ErrIllegalInstruction, "unknown instruction %d at address %d", b, pc)
		addr = Word(b)
	}
	if err != nil {
		return i.fault(pc, op, addr, err)
	}
	i.pc = next
	i.insCount++
	return nil
}

func binop(op Opcode, lhs, rhs Word) Word {
	switch op {
	case OpAdd:
		return Add(lhs, rhs)
	case OpSub:
		return Sub(lhs, rhs)
	case OpMul:
		return Mul(lhs, rhs)
	case OpAnd:
		return lhs & rhs
	case OpOr:
		return lhs | rhs
	case OpEquals:
		return Bool(lhs == rhs)
	case OpLt:
		return Bool(lhs < rhs)
	case OpGt:
		return Bool(lhs > rhs)
	}
	panic("binop: not a binary operator: " + op.String())
}
