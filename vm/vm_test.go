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

package vm_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/db47h/diatom/asm"
	"github.com/db47h/diatom/vm"
	"github.com/pkg/errors"
)

type C []vm.Word

// raw opcodes
const (
	exit   = byte(vm.OpExit)
	nop    = byte(vm.OpNop)
	ret    = byte(vm.OpRet)
	cnst   = byte(vm.OpConst)
	fetch  = byte(vm.OpFetch)
	add    = byte(vm.OpAdd)
	sub    = byte(vm.OpSub)
	mul    = byte(vm.OpMul)
	div    = byte(vm.OpDiv)
	mod    = byte(vm.OpMod)
	dup    = byte(vm.OpDup)
	drop   = byte(vm.OpDrop)
	swap   = byte(vm.OpSwap)
	over   = byte(vm.OpOver)
	cjmp   = byte(vm.OpCjmp)
	call   = byte(vm.OpCall)
	scall  = byte(vm.OpScall)
	equals = byte(vm.OpEquals)
	not    = byte(vm.OpNot)
	and    = byte(vm.OpAnd)
	or     = byte(vm.OpOr)
	lt     = byte(vm.OpLt)
	gt     = byte(vm.OpGt)
	rpop   = byte(vm.OpRpop)
	rput   = byte(vm.OpRput)
	rpeek  = byte(vm.OpRpeek)
	bfetch = byte(vm.OpBfetch)
	bstore = byte(vm.OpBstore)
)

func setup(code []byte, stack, rstack C, opts ...vm.Option) *vm.Instance {
	i, err := vm.New(opts...)
	if err != nil {
		panic(err)
	}
	if err = i.Load(code); err != nil {
		panic(err)
	}
	for _, v := range stack {
		if err = i.DataStack().Push(v); err != nil {
			panic(err)
		}
	}
	for _, v := range rstack {
		if err = i.AddressStack().Push(v); err != nil {
			panic(err)
		}
	}
	return i
}

func sameWords(a, b C) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// check runs i and checks its final pc and stacks. A negative pc means the end
// of the program image, where execution falls into zeroed memory and exits.
func check(t *testing.T, testName string, i *vm.Instance, size int, pc int, stack C, rstack C) {
	t.Helper()
	err := i.Run(context.Background())
	if err != nil {
		t.Errorf("%s: %+v", testName, err)
		return
	}
	if s := i.State(); s != vm.Halted {
		t.Errorf("%s: expected state halted, got %v", testName, s)
	}
	if pc < 0 {
		pc = size
	}
	if uint32(pc) != i.PC() {
		t.Errorf("%s: Bad PC %d != %d", testName, i.PC(), pc)
	}
	if stk := C(i.Data()); !sameWords(stk, stack) {
		t.Errorf("%s: Stack error: expected %d, got %d", testName, stack, stk)
	}
	if stk := C(i.Address()); !sameWords(stk, rstack) {
		t.Errorf("%s: Return stack error: expected %d, got %d", testName, rstack, stk)
	}
}

// hand assembled programs.
var rawTests = [...]struct {
	name    string
	code    []byte
	data    C
	address C
	pc      int
}{
	{"exit", []byte{exit}, nil, nil, 0},
	{"nop", []byte{nop}, nil, nil, -1},
	{"const", []byte{cnst, 0, 0, 0, 11}, C{11}, nil, -1},
	{"const_negative", []byte{cnst, 255, 255, 255, 254}, C{-2}, nil, -1},
	{"ret", []byte{cnst, 0, 0, 0, 8, rput, ret, exit, cnst, 0, 0, 0, 11}, C{11}, nil, -1},
	{"fetch", []byte{cnst, 0, 0, 0, 7, fetch, cnst, 0, 0, 0, 11}, C{11, 11}, nil, -1},
	{"add", []byte{cnst, 0, 0, 0, 5, cnst, 0, 0, 0, 3, add}, C{8}, nil, -1},
	{"subtract", []byte{cnst, 0, 0, 0, 3, cnst, 0, 0, 0, 5, sub}, C{-2}, nil, -1},
	{"multiply", []byte{cnst, 0, 0, 0, 3, cnst, 0, 0, 0, 5, mul}, C{15}, nil, -1},
	{"divide", []byte{cnst, 0, 0, 0, 7, cnst, 0, 0, 0, 3, div}, C{2}, nil, -1},
	{"modulo", []byte{cnst, 0, 0, 0, 7, cnst, 0, 0, 0, 3, mod}, C{1}, nil, -1},
	{"dup", []byte{cnst, 0, 0, 0, 7, dup}, C{7, 7}, nil, -1},
	{"drop", []byte{cnst, 0, 0, 0, 7, dup, drop}, C{7}, nil, -1},
	{"swap", []byte{cnst, 0, 0, 0, 7, cnst, 0, 0, 0, 2, swap}, C{2, 7}, nil, -1},
	{"over", []byte{cnst, 0, 0, 0, 7, cnst, 0, 0, 0, 2, over}, C{7, 2, 7}, nil, -1},
	{"cjmp_true", []byte{cnst, 255, 255, 255, 255, cjmp, 0, 0, 0, 16, cnst, 0, 0, 0, 22, exit, cnst, 0, 0, 0, 11}, C{11}, nil, -1},
	{"cjmp_false", []byte{cnst, 0, 0, 0, 0, cjmp, 0, 0, 0, 16, cnst, 0, 0, 0, 22, exit, cnst, 0, 0, 0, 11}, C{22}, nil, 15},
	{"call_without_return", []byte{call, 0, 0, 0, 11, cnst, 0, 0, 0, 22, exit, cnst, 0, 0, 0, 11}, C{11}, C{5}, -1},
	{"call_with_return", []byte{call, 0, 0, 0, 11, cnst, 0, 0, 0, 22, exit, ret, cnst, 0, 0, 0, 11}, C{22}, nil, 10},
	{"scall_without_return", []byte{cnst, 0, 0, 0, 12, scall, cnst, 0, 0, 0, 22, exit, cnst, 0, 0, 0, 11}, C{11}, C{6}, -1},
	{"scall_with_return", []byte{cnst, 0, 0, 0, 12, scall, cnst, 0, 0, 0, 22, exit, ret, cnst, 0, 0, 0, 11}, C{22}, nil, 11},
	{"equals_true", []byte{cnst, 0, 0, 0, 5, cnst, 0, 0, 0, 5, equals}, C{-1}, nil, -1},
	{"equals_false", []byte{cnst, 0, 0, 0, 5, cnst, 0, 0, 0, 4, equals}, C{0}, nil, -1},
	{"not", []byte{cnst, 0, 0, 0, 0, not}, C{-1}, nil, -1},
	{"and", []byte{cnst, 0, 0, 0, 3, cnst, 0, 0, 0, 5, and}, C{1}, nil, -1},
	{"or", []byte{cnst, 0, 0, 0, 1, cnst, 0, 0, 0, 6, or}, C{7}, nil, -1},
	{"lt_false", []byte{cnst, 0, 0, 0, 5, cnst, 0, 0, 0, 5, lt}, C{0}, nil, -1},
	{"lt_true", []byte{cnst, 0, 0, 0, 4, cnst, 0, 0, 0, 5, lt}, C{-1}, nil, -1},
	{"gt_false", []byte{cnst, 0, 0, 0, 5, cnst, 0, 0, 0, 5, gt}, C{0}, nil, -1},
	{"gt_true", []byte{cnst, 0, 0, 0, 5, cnst, 0, 0, 0, 4, gt}, C{-1}, nil, -1},
	{"rput", []byte{cnst, 0, 0, 0, 5, rput}, nil, C{5}, -1},
	{"rpop", []byte{cnst, 0, 0, 0, 5, rput, rpop}, C{5}, nil, -1},
	{"rpeek", []byte{cnst, 0, 0, 0, 5, rput, rpeek}, C{5}, C{5}, -1},
	{"byte_fetch", []byte{cnst, 0, 0, 0, 10, bfetch, exit, 0, 0, 0, 5}, C{5}, nil, 6},
	{"byte_store", []byte{cnst, 0, 0, 0, 7, cnst, 0, 0, 0, 20, bstore, cnst, 0, 0, 0, 20, bfetch, exit, 0, 0, 0, 5}, C{7}, nil, 17},
}

func TestCore_raw(t *testing.T) {
	for _, test := range rawTests {
		check(t, test.name, setup(test.code, nil, nil), len(test.code), test.pc, test.data, test.address)
	}
}

var tests = [...]struct {
	name    string
	code    string
	data    C
	address C
	pc      int
}{
	{"nop", "nop", nil, nil, -1},
	{"const", "const 25", C{25}, nil, -1},
	{"dup", "1234 dup", C{1234, 1234}, nil, -1},
	{"drop", "50 drop", nil, nil, -1},
	{"swap", "50 60 swap", C{60, 50}, nil, -1},
	{"over", "1 2 over", C{1, 2, 1}, nil, -1},
	{"dump", "1 2 dump", C{1}, nil, -1},
	{"+", "2 3 +   2 -3 +   2147483647 1 +   -2147483648 -1 +", C{5, -1, 2147483647, -2147483648}, nil, -1},
	{"-", "2 1 -   1 2 -   -2147483648 1 -   2147483647 -1 -", C{1, -1, -2147483648, 2147483647}, nil, -1},
	{"*", "0 5 *   -5 5 *   65536 65536 *   65536 -65536 *", C{0, -25, 2147483647, -2147483648}, nil, -1},
	{"/", "7 3 /   -7 3 /   7 -3 /   -2147483648 -1 /", C{2, -2, -2, 2147483647}, nil, -1},
	{"%", "7 3 %   -7 3 %   7 -3 %   -2147483648 -1 %", C{1, -1, 1, 0}, nil, -1},
	{"=", "1 1 =   1 2 =", C{-1, 0}, nil, -1},
	{"<", "1 2 <   2 1 <   -1 0 <", C{-1, 0, -1}, nil, -1},
	{">", "1 2 >   2 1 >", C{0, -1}, nil, -1},
	{"~", "0 ~   -1 ~   5 ~", C{-1, 0, -6}, nil, -1},
	{"&", "3 5 &   -1 0 &", C{1, 0}, nil, -1},
	{"|", "1 6 |   0 0 |", C{7, 0}, nil, -1},
	{"rput", "82 rput", nil, C{82}, -1},
	{"rpop", "82 rput rpop", C{82}, nil, -1},
	{"rpeek", "82 rput rpeek", C{82}, C{82}, -1},
	{"@", "x @ exit :x .word 1234", C{1234}, nil, 6},
	{"!", "42 x ! x @ exit :x .word 0", C{42}, nil, 17},
	{"b@", "x b@ exit :x .byte 200", C{200}, nil, 6},
	{"b!", "0x1ff x b! x b@ exit :x .byte 0", C{255}, nil, 17},
	{"call", "call fn 2 exit :fn 1 ret", C{1, 2}, nil, 10},
	{"call_no_return", "call fn :fn 1", C{1}, C{5}, -1},
	{"scall", "fn scall 2 exit :fn 1 ret", C{1, 2}, nil, 11},
	{"cjmp_true", "-1 cjmp skip 1 :skip 2", C{2}, nil, -1},
	{"cjmp_false", "0 cjmp skip 1 :skip 2", C{1, 2}, nil, -1},
	{"cjmp_not_true", "1 cjmp skip 1 :skip 2", C{1, 2}, nil, -1},
	{"ret", "x rput ret 1 :x 2", C{2}, nil, -1},
	{"loop", "3 :1 dup rput 1 - dup 0 > cjmp 1- drop", nil, C{3, 2, 1}, -1},
}

func TestCore(t *testing.T) {
	for _, test := range tests {
		as, err := asm.Assemble(test.name, strings.NewReader(test.code))
		if err != nil {
			t.Error(err)
			continue
		}
		p := setup(as, nil, nil)
		check(t, test.name, p, len(as), test.pc, test.data, test.address)
		if t.Failed() {
			var b bytes.Buffer
			b.WriteString(test.name)
			b.WriteString(":\n")
			asm.DisassembleAll(as, 0, &b)
			t.Log(b.String())
		}
	}
}

func runFault(t *testing.T, code string, opts ...vm.Option) (*vm.Instance, *vm.Fault) {
	t.Helper()
	img, err := asm.Assemble("fault", strings.NewReader(code))
	if err != nil {
		t.Fatal(err)
	}
	i := setup(img, nil, nil, opts...)
	err = i.Run(context.Background())
	f, ok := err.(*vm.Fault)
	if !ok {
		t.Fatalf("%q: expected *vm.Fault, got %T: %v", code, err, err)
	}
	if s := i.State(); s != vm.Faulted {
		t.Errorf("%q: expected state faulted, got %v", code, s)
	}
	return i, f
}

func TestFaults(t *testing.T) {
	data := []struct {
		code  string
		kind  vm.FaultKind
		cause error
		pc    uint32
	}{
		{"drop", vm.KindStackUnderflow, vm.ErrStackUnderflow, 0},
		{"nop dup", vm.KindStackUnderflow, vm.ErrStackUnderflow, 1},
		{"1 +", vm.KindStackUnderflow, vm.ErrStackUnderflow, 5},
		{"ret", vm.KindStackUnderflow, vm.ErrStackUnderflow, 0},
		{"rpeek", vm.KindStackUnderflow, vm.ErrStackUnderflow, 0},
		{":1 1 -1 cjmp 1-", vm.KindStackOverflow, vm.ErrStackOverflow, 5},
		{":1 call 1-", vm.KindStackOverflow, vm.ErrStackOverflow, 0},
		{"1 0 /", vm.KindDivisionByZero, vm.ErrDivisionByZero, 10},
		{"1 0 %", vm.KindDivisionByZero, vm.ErrDivisionByZero, 10},
		{"8192 @", vm.KindOutOfBounds, vm.ErrOutOfBounds, 5},
		{"8189 @", vm.KindOutOfBounds, vm.ErrOutOfBounds, 5},
		{"1 8189 !", vm.KindOutOfBounds, vm.ErrOutOfBounds, 10},
		{"-1 b@", vm.KindOutOfBounds, vm.ErrOutOfBounds, 5},
		{"1 8192 b!", vm.KindOutOfBounds, vm.ErrOutOfBounds, 10},
		{"100000 rput ret", vm.KindOutOfBounds, vm.ErrOutOfBounds, 100000},
		{".byte 99", vm.KindIllegalInstruction, vm.ErrIllegalInstruction, 0},
		{"1 2 .byte 255", vm.KindIllegalInstruction, vm.ErrIllegalInstruction, 10},
	}
	for _, test := range data {
		i, f := runFault(t, test.code)
		if f.Kind != test.kind {
			t.Errorf("%q: expected fault kind %v, got %v", test.code, test.kind, f.Kind)
		}
		if errors.Cause(f) != test.cause {
			t.Errorf("%q: expected cause %v, got %v", test.code, test.cause, errors.Cause(f))
		}
		if f.PC != test.pc || i.PC() != test.pc {
			t.Errorf("%q: expected fault at pc %d, got %d (instance pc %d)", test.code, test.pc, f.PC, i.PC())
		}
		// terminal state
		if err := i.Run(context.Background()); errors.Cause(err) != vm.ErrNotReady {
			t.Errorf("%q: expected ErrNotReady on Run after fault, got %v", test.code, err)
		}
		if err := i.Step(context.Background()); errors.Cause(err) != vm.ErrNotReady {
			t.Errorf("%q: expected ErrNotReady on Step after fault, got %v", test.code, err)
		}
	}
}

func TestFault_details(t *testing.T) {
	_, f := runFault(t, "nop .byte 99")
	if f.Op != vm.Opcode(99) || f.Addr != 99 || f.PC != 1 {
		t.Errorf("unexpected illegal instruction fault %#v", f)
	}
	if !strings.Contains(f.Error(), "illegal instruction") {
		t.Errorf("unexpected error message %q", f.Error())
	}

	_, f = runFault(t, "8192 @")
	if f.Op != vm.OpFetch || f.Addr != 8192 {
		t.Errorf("unexpected out of bounds fault %#v", f)
	}

	// the stack keeps its contents up to the fault
	i, _ := runFault(t, ":1 1 -1 cjmp 1-")
	if n := len(i.Data()); n != vm.DefaultStackSize-1 {
		t.Errorf("expected %d values on the data stack, got %d", vm.DefaultStackSize-1, n)
	}
	i, _ = runFault(t, ":1 call 1-", vm.AddressSize(10))
	if n := len(i.Address()); n != 9 {
		t.Errorf("expected 9 values on the address stack, got %d", n)
	}
}

func TestFault_pcOutOfMemory(t *testing.T) {
	i := setup([]byte{nop, nop, nop, nop}, nil, nil, vm.MemorySize(4))
	err := i.Run(context.Background())
	if errors.Cause(err) != vm.ErrOutOfBounds || i.PC() != 4 {
		t.Errorf("expected out of bounds at pc 4, got %v at pc %d", err, i.PC())
	}

	// operand past the end of memory
	i = setup([]byte{cnst, 0, 0}, nil, nil, vm.MemorySize(3))
	err = i.Run(context.Background())
	if errors.Cause(err) != vm.ErrOutOfBounds || i.PC() != 0 {
		t.Errorf("expected out of bounds at pc 0, got %v at pc %d", err, i.PC())
	}
	if len(i.Data()) != 0 {
		t.Errorf("unexpected data stack contents %v", i.Data())
	}
}

func TestTrace(t *testing.T) {
	_, f := runFault(t, "1 2 + .byte 99", vm.TraceDepth(3))
	if len(f.Recent) != 3 {
		t.Fatalf("expected 3 trace entries, got %d", len(f.Recent))
	}
	for n, pc := range []uint32{5, 10, 11} {
		if f.Recent[n].PC != pc {
			t.Errorf("trace entry %d: expected pc %d, got %d", n, pc, f.Recent[n].PC)
		}
	}
	last := f.Recent[2]
	if last.Op != 99 || !sameWords(C(last.Data), C{3}) {
		t.Errorf("unexpected last trace entry %+v", last)
	}
	tr := f.Trace()
	if !strings.HasPrefix(tr, "pc: 11  instruction: Opcode(99)\n") {
		t.Errorf("unexpected trace:\n%s", tr)
	}

	// disabled by default
	_, f = runFault(t, ".byte 99")
	if len(f.Recent) != 0 {
		t.Errorf("expected empty trace, got %v", f.Recent)
	}
}

func TestLoad(t *testing.T) {
	i, err := vm.New(vm.MemorySize(4))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.Load([]byte{1, 2, 3, 4, 5}); errors.Cause(err) != vm.ErrProgramTooLarge {
		t.Errorf("expected ErrProgramTooLarge, got %v", err)
	}
	if err = i.Load([]byte{1, 1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	if err = i.Load([]byte{2}); err != nil {
		t.Fatal(err)
	}
	// remainder of memory left untouched
	if m := i.Memory(); !bytes.Equal(m, []byte{2, 1, 1, 1}) {
		t.Errorf("unexpected memory contents % x", m)
	}
}

func TestStates(t *testing.T) {
	img, _ := asm.Assemble("states", strings.NewReader("1 2 + exit"))
	i := setup(img, nil, nil)
	ctx := context.Background()
	if s := i.State(); s != vm.Ready {
		t.Fatalf("expected ready, got %v", s)
	}
	if err := i.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if s := i.State(); s != vm.Running || i.PC() != 5 || i.InstructionCount() != 1 {
		t.Fatalf("expected running @5 after 1 instruction, got %v @%d after %d", s, i.PC(), i.InstructionCount())
	}
	if err := i.Load(img); errors.Cause(err) != vm.ErrNotReady {
		t.Errorf("expected ErrNotReady on Load while running, got %v", err)
	}
	if err := i.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if s := i.State(); s != vm.Halted || i.PC() != 11 || i.InstructionCount() != 4 {
		t.Fatalf("expected halted @11 after 4 instructions, got %v @%d after %d", s, i.PC(), i.InstructionCount())
	}
	if err := i.Run(ctx); errors.Cause(err) != vm.ErrNotReady {
		t.Errorf("expected ErrNotReady on Run after halt, got %v", err)
	}

	port := i.Input()
	if err := i.Reset(); err != nil {
		t.Fatal(err)
	}
	if s := i.State(); s != vm.Ready || i.PC() != 0 || i.InstructionCount() != 0 {
		t.Errorf("expected ready @0, got %v @%d", s, i.PC())
	}
	if len(i.Data()) != 0 || len(i.Address()) != 0 {
		t.Errorf("expected empty stacks, got %v %v", i.Data(), i.Address())
	}
	for _, b := range i.Memory() {
		if b != 0 {
			t.Error("memory not zeroed")
			break
		}
	}
	if i.Input() == port {
		t.Error("expected a fresh input port")
	}
	if len(i.Memory()) != vm.DefaultMemorySize {
		t.Errorf("unexpected memory size %d", len(i.Memory()))
	}
	// back in business
	if err := i.Load(img); err != nil {
		t.Fatal(err)
	}
	check(t, "states", i, len(img), 11, C{3}, nil)
}

func TestReset_keepsSizes(t *testing.T) {
	i, err := vm.New(vm.MemorySize(64), vm.DataSize(4), vm.AddressSize(5))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.Reset(); err != nil {
		t.Fatal(err)
	}
	if len(i.Memory()) != 64 || i.DataStack().Cap() != 4 || i.AddressStack().Cap() != 5 {
		t.Errorf("sizes not kept: %d %d %d", len(i.Memory()), i.DataStack().Cap(), i.AddressStack().Cap())
	}
}

func TestOptions_errors(t *testing.T) {
	for n, opt := range []vm.Option{vm.MemorySize(0), vm.DataSize(-1), vm.AddressSize(0), vm.TraceDepth(-1), vm.Input(nil)} {
		if _, err := vm.New(opt); err == nil {
			t.Errorf("option %d: expected error", n)
		}
	}
}

func TestDump(t *testing.T) {
	i := setup([]byte{cnst, 0, 0, 0, 8, rput, cnst, 0, 0, 0, 7, dup}, nil, nil)
	if err := i.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := i.Dump(&b); err != nil {
		t.Fatal(err)
	}
	want := "state: halted\npc: 12\ninstructions: 5\ndata: 7 7\naddress: 8\n"
	if b.String() != want {
		t.Errorf("Expected:\n%s\nGot:\n%s", want, b.String())
	}
}

// Concurrent instances share nothing.
func TestInstances_concurrent(t *testing.T) {
	img, err := asm.Assemble("fib", strings.NewReader(fibLoop))
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error)
	for n := 0; n < 8; n++ {
		go func() {
			i := setup(img, C{30}, nil)
			if err := i.Run(context.Background()); err != nil {
				done <- err
				return
			}
			if d := i.Data(); len(d) != 1 || d[0] != 832040 {
				done <- fmt.Errorf("unexpected result %v", d)
				return
			}
			done <- nil
		}()
	}
	for n := 0; n < 8; n++ {
		if err := <-done; err != nil {
			t.Error(err)
		}
	}
}

// ( n -- fib(n) )
var fibLoop = `
		rput 0 1		( r: n  d: a b )
	:1	rpeek 0 > ~ cjmp 2+
		rpop 1 - rput
		swap over +		( a b -- b a+b )
		-1 cjmp 1-
	:2	drop rpop drop
`

func Test_Fib_AsmLoop(t *testing.T) {
	img, err := asm.Assemble("fib", strings.NewReader(fibLoop))
	if err != nil {
		t.Fatal(err)
	}
	i := setup(img, C{30}, nil)
	check(t, "Fib_AsmLoop", i, len(img), -1, C{832040}, nil)
}

func Benchmark_Fib_AsmLoop(b *testing.B) {
	img, err := asm.Assemble("fib", strings.NewReader(fibLoop))
	if err != nil {
		b.Fatal(err)
	}
	i := setup(img, C{35}, nil)
	b.ResetTimer()
	for c := 0; c < b.N; c++ {
		i.Reset()
		i.Load(img)
		i.DataStack().Push(35)
		i.Run(context.Background())
	}
}
