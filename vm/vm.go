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
	"io"
	"strconv"
	"sync/atomic"

	"github.com/db47h/diatom/internal/dia"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
)

var logger = commonlog.GetLogger("diatom.vm")

// State is the execution state of an Instance.
type State int32

// Instance states.
const (
	Ready   State = iota // loaded, pc = 0
	Running              // execution started
	Halted               // EXIT executed
	Faulted              // stopped on a fatal error
)

var states = [...]string{"ready", "running", "halted", "faulted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(states) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return states[s]
}

// Instance represents a Diatom VM instance.
type Instance struct {
	pc       uint32
	state    atomic.Int32
	busy     atomic.Bool
	mem      Memory
	data     *Stack
	address  *Stack
	port     *InputPort
	input    ByteSource
	output   io.ByteWriter
	insCount int64
	trace    *dia.Ring[TraceEntry]
}

// Option interface
type Option func(*Instance) error

// MemorySize sets the memory capacity in bytes. Current memory contents are
// preserved up to the new size. The default is 8192 bytes.
func MemorySize(size int) Option {
	return func(i *Instance) error {
		if size <= 0 {
			return errors.Errorf("invalid memory size %d", size)
		}
		m := NewMemory(size)
		copy(m, i.mem)
		i.mem = m
		return nil
	}
}

// DataSize sets the data stack capacity. It will not erase the stack, but data
// may be lost if set to a smaller size. The default is 30 Words.
func DataSize(size int) Option {
	return func(i *Instance) error {
		if size <= 0 {
			return errors.Errorf("invalid data stack size %d", size)
		}
		i.data.resize(size)
		return nil
	}
}

// AddressSize sets the address (return) stack capacity. It will not erase the
// stack, but data may be lost if set to a smaller size. The default is 30
// Words.
func AddressSize(size int) Option {
	return func(i *Instance) error {
		if size <= 0 {
			return errors.Errorf("invalid address stack size %d", size)
		}
		i.address.resize(size)
		return nil
	}
}

// Input binds src as the source read by the KEY instruction. If src is an
// *InputPort, it also becomes the port returned by Instance.Input.
func Input(src ByteSource) Option {
	return func(i *Instance) error {
		if src == nil {
			return errors.New("nil input source")
		}
		if p, ok := src.(*InputPort); ok {
			i.port = p
		}
		i.input = src
		return nil
	}
}

// Output configures the sink written by the EMIT instruction. If w implements
// io.ByteWriter, it is used directly. If it has a Flush() error method, it
// gets flushed when execution stops. A nil writer discards all output.
func Output(w io.Writer) Option {
	return func(i *Instance) error {
		i.output = newWriter(w)
		return nil
	}
}

// TraceDepth sets the number of executed instructions recorded for fault
// reports. The default is 0: tracing disabled.
func TraceDepth(n int) Option {
	return func(i *Instance) error {
		if n < 0 {
			return errors.Errorf("invalid trace depth %d", n)
		}
		i.trace = dia.NewRing[TraceEntry](n)
		return nil
	}
}

// SetOptions sets the provided options.
func (i *Instance) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return err
		}
	}
	return nil
}

// New creates a new Diatom Virtual Machine instance in the Ready state, with
// zeroed memory, empty stacks, a fresh input port and output discarded.
//
// Options will be set by calling SetOptions.
func New(opts ...Option) (*Instance, error) {
	i := &Instance{
		mem:     NewMemory(DefaultMemorySize),
		data:    NewStack(DefaultStackSize),
		address: NewStack(DefaultStackSize),
		port:    NewInputPort(),
		output:  discard{},
		trace:   dia.NewRing[TraceEntry](0),
	}
	i.input = i.port
	if err := i.SetOptions(opts...); err != nil {
		return nil, err
	}
	return i, nil
}

// Reset returns the instance to a fresh Ready state: pc = 0, empty stacks,
// zeroed memory and a fresh input port. Previously bound input and output are
// detached; the provided options are then applied. Memory and stack sizes are
// kept.
//
// Reset fails with ErrNotReady while Run or Step is executing. To stop a
// running instance, cancel its context or close its input port and wait for
// Run to return.
func (i *Instance) Reset(opts ...Option) error {
	if !i.busy.CompareAndSwap(false, true) {
		return errors.Wrap(ErrNotReady, "Reset: instance is executing")
	}
	defer i.busy.Store(false)
	i.pc = 0
	i.mem.Reset()
	i.data.Reset()
	i.address.Reset()
	i.port = NewInputPort()
	i.input = i.port
	i.output = discard{}
	i.insCount = 0
	i.trace.Reset()
	i.state.Store(int32(Ready))
	logger.Debug("reset")
	return i.SetOptions(opts...)
}

// Load copies the program image to the start of memory. The instance must be
// in the Ready state.
func (i *Instance) Load(image []byte) error {
	if s := i.State(); s != Ready {
		return errors.Wrapf(ErrNotReady, "Load: instance is %s", s)
	}
	if err := i.mem.Load(image); err != nil {
		return err
	}
	logger.Debugf("loaded %d bytes program", len(image))
	return nil
}

// State returns the current execution state.
func (i *Instance) State() State {
	return State(i.state.Load())
}

// PC returns the program counter.
func (i *Instance) PC() uint32 {
	return i.pc
}

// Memory returns the instance memory. Writes to the returned slice are
// visible to the running program.
func (i *Instance) Memory() Memory {
	return i.mem
}

// Input returns the instance's input port. Hosts feed program input through
// it.
func (i *Instance) Input() *InputPort {
	return i.port
}

// DataStack returns the data stack.
func (i *Instance) DataStack() *Stack {
	return i.data
}

// AddressStack returns the address (return) stack.
func (i *Instance) AddressStack() *Stack {
	return i.address
}

// Data returns a copy of the data stack contents, bottom first.
func (i *Instance) Data() []Word {
	return i.data.Values()
}

// Address returns a copy of the address stack contents, bottom first.
func (i *Instance) Address() []Word {
	return i.address.Values()
}

// InstructionCount returns the number of instructions executed since the last
// Reset.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}

func (w *wordDumper) dumpSlice(a []Word) error {
	l := len(a) - 1
	if l >= 0 {
		for i := 0; i < l; i++ {
			io.WriteString(w, strconv.Itoa(int(a[i])))
			w.Write([]byte{' '})
		}
		io.WriteString(w, strconv.Itoa(int(a[l])))
	}
	return w.Err
}

type wordDumper struct {
	*dia.ErrWriter
}

// Dump writes a human readable summary of the machine state (state, pc,
// instruction count and both stacks) to the specified io.Writer.
func (i *Instance) Dump(w io.Writer) error {
	d := wordDumper{dia.NewErrWriter(w)}
	io.WriteString(d, "state: "+i.State().String())
	io.WriteString(d, "\npc: "+strconv.FormatUint(uint64(i.pc), 10))
	io.WriteString(d, "\ninstructions: "+strconv.FormatInt(i.insCount, 10))
	io.WriteString(d, "\ndata: ")
	d.dumpSlice(i.Data())
	io.WriteString(d, "\naddress: ")
	d.dumpSlice(i.Address())
	_, err := d.Write([]byte{'\n'})
	return err
}
