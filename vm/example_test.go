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
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/db47h/diatom/asm"
	"github.com/db47h/diatom/vm"
)

// Shows how to assemble a program, run it with some input and capture its
// output.
func ExampleInstance_Run() {
	img, err := asm.Assemble("hello", strings.NewReader(`
		( print "Hello, " followed by the input line )
		msg
	:1	dup b@ dup 0 = cjmp 2+
		emit 1 + -1 cjmp 1-
	:2	drop drop
	:3	key dup 10 = cjmp 4+
		emit -1 cjmp 3-
	:4	drop '!' emit exit
	:msg	.byte 'H' .byte 'e' .byte 'l' .byte 'l' .byte 'o' .byte ',' .byte ' ' .byte 0
	`))
	if err != nil {
		panic(err)
	}

	i, err := vm.New(vm.Output(os.Stdout))
	if err != nil {
		panic(err)
	}
	if err = i.Load(img); err != nil {
		panic(err)
	}
	i.Input().Feed([]byte("World\n"))

	if err = i.Run(context.Background()); err != nil {
		panic(err)
	}
	fmt.Println()
	fmt.Println(i.State())

	// Output:
	// Hello, World!
	// halted
}

// Input can be fed from another goroutine while the VM is blocked in KEY.
func ExampleInputPort() {
	img, _ := asm.Assemble("sum", strings.NewReader("key key +"))
	i, _ := vm.New()
	i.Load(img)

	done := make(chan error)
	go func() { done <- i.Run(context.Background()) }()

	i.Input().Feed([]byte{40})
	i.Input().Feed([]byte{2})
	if err := <-done; err != nil {
		panic(err)
	}
	fmt.Println(i.Data())

	// Output:
	// [42]
}

// Faults carry the faulting instruction and, when enabled, a short execution
// trace.
func ExampleFault() {
	img, _ := asm.Assemble("fault", strings.NewReader("1 0 /"))
	i, _ := vm.New(vm.TraceDepth(2))
	i.Load(img)

	err := i.Run(context.Background())
	if f, ok := err.(*vm.Fault); ok {
		fmt.Println(f.Kind, f.PC, f.Op)
		fmt.Print(f.Trace())
	}

	// Output:
	// division by zero 10 /
	// pc: 10  instruction: /
	// data stack: [1 0]
	// return stack: []
	//
	// pc: 5  instruction: const
	// data stack: [1]
	// return stack: []
}
