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
	"bytes"
	"io"
	"os"

	"golang.org/x/term"
)

const eot = 4 // Ctrl-D

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// eotReader reports io.EOF when reading a Ctrl-D from a raw mode terminal.
// Bytes before the Ctrl-D are returned.
type eotReader struct {
	r io.Reader
}

func (r eotReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if i := bytes.IndexByte(p[:n], eot); i >= 0 {
		return i, io.EOF
	}
	return n, err
}
