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

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Snapshot is a point in time copy of an instance's machine state.
type Snapshot struct {
	State        State  `cbor:"1,keyasint"`
	PC           uint32 `cbor:"2,keyasint"`
	Instructions int64  `cbor:"3,keyasint"`
	Data         []Word `cbor:"4,keyasint"`
	Address      []Word `cbor:"5,keyasint"`
	Memory       []byte `cbor:"6,keyasint"`
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	snapshotEncMode = em
}

// Snapshot returns a copy of the machine state. It must not be called while
// Run or Step is executing.
func (i *Instance) Snapshot() *Snapshot {
	m := make([]byte, len(i.mem))
	copy(m, i.mem)
	return &Snapshot{
		State:        i.State(),
		PC:           i.pc,
		Instructions: i.insCount,
		Data:         i.Data(),
		Address:      i.Address(),
		Memory:       m,
	}
}

// EncodeSnapshot writes s to w in canonical CBOR.
func EncodeSnapshot(w io.Writer, s *Snapshot) error {
	b, err := snapshotEncMode.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "snapshot encode")
	}
	_, err = w.Write(b)
	return errors.Wrap(err, "snapshot write")
}

// DecodeSnapshot reads a snapshot written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.NewDecoder(r).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "snapshot decode")
	}
	return &s, nil
}

// Restore replaces the machine state with s. Memory and stack capacities are
// not changed: s must fit in them, otherwise Restore fails and leaves the
// instance untouched. Bound input and output are kept.
func (i *Instance) Restore(s *Snapshot) error {
	if len(s.Memory) != len(i.mem) {
		return errors.Errorf("snapshot memory size %d does not match instance memory size %d", len(s.Memory), len(i.mem))
	}
	if s.State < Ready || s.State > Faulted {
		return errors.Errorf("invalid snapshot state %d", s.State)
	}
	if !i.busy.CompareAndSwap(false, true) {
		return errors.Wrap(ErrNotReady, "Restore: instance is executing")
	}
	defer i.busy.Store(false)
	// a stack of capacity n holds n-1 values
	if len(s.Data) >= i.data.Cap() {
		return errors.Wrapf(ErrStackOverflow, "restore data stack: %d values, capacity %d", len(s.Data), i.data.Cap())
	}
	if len(s.Address) >= i.address.Cap() {
		return errors.Wrapf(ErrStackOverflow, "restore address stack: %d values, capacity %d", len(s.Address), i.address.Cap())
	}
	i.data.Reset()
	i.address.Reset()
	for _, v := range s.Data {
		i.data.Push(v)
	}
	for _, v := range s.Address {
		i.address.Push(v)
	}
	copy(i.mem, s.Memory)
	i.pc = s.PC
	i.insCount = s.Instructions
	i.trace.Reset()
	i.state.Store(int32(s.State))
	return nil
}
