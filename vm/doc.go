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

// Package vm implements the Diatom VM.
//
// Diatom is a small stack machine: programs are flat byte images loaded at
// address 0 of a bounded, byte addressable memory and executed against two
// fixed size Word stacks, the data stack and the address (return) stack.
// Arithmetic saturates instead of wrapping around, and booleans are encoded as
// -1 (true) and 0 (false).
//
// A host creates an Instance with New, loads a program with Load, binds an
// output writer and feeds input through the instance's InputPort, then calls
// Run. The only instruction that blocks is KEY, which waits on the input
// source. Any fault is fatal: Run returns a *Fault and the instance stays
// Faulted until Reset.
//
// Implementation notes:
//
//	- Word accesses check the full 4 bytes span against the memory size.
//	- Division or modulo by zero is a fault (ErrDivisionByZero).
//	- A stack of capacity n holds at most n-1 values, as in the reference
//	  machine.
//	- Memory addresses are Words read as unsigned offsets: negative addresses
//	  are always out of bounds.
//
// The asm package provides an assembler and disassembler for Diatom programs.
package vm
