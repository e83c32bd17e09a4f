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

package main

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/db47h/diatom/vm"
)

func TestEOTReader(t *testing.T) {
	data := []struct {
		in   string
		want string
		err  error
	}{
		{"abc", "abc", nil},
		{"ab\x04cd", "ab", io.EOF},
		{"\x04", "", io.EOF},
		{"", "", io.EOF},
	}
	for _, d := range data {
		r := eotReader{strings.NewReader(d.in)}
		b := make([]byte, 16)
		n, err := r.Read(b)
		if string(b[:n]) != d.want || err != d.err {
			t.Errorf("%q: got %q, %v. Expected %q, %v", d.in, b[:n], err, d.want, d.err)
		}
	}
}

func TestInterrupted(t *testing.T) {
	i, err := vm.New(vm.TraceDepth(0))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.Load([]byte{byte(vm.OpNop), byte(vm.OpKey)}); err != nil {
		t.Fatal(err)
	}
	i.Input().Close()
	err = i.Run(context.Background())
	if !interrupted(err) {
		t.Fatalf("expected an interrupted KEY, got %v", err)
	}
	if i.PC() != 1 {
		t.Fatalf("bad pc %d", i.PC())
	}
	if interrupted(nil) || interrupted(io.EOF) {
		t.Fatal("non fault errors reported as interrupted")
	}
}
