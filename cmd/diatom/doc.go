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

// The diatom command line tool runs programs for the Diatom virtual machine
// found in package github.com/db47h/diatom/vm, and bundles an assembler, a
// disassembler and a local image store.
//
// Usage:
//
//	diatom [command] [flags]
//
// Commands:
//
//	run [image]          load a program and run it
//	asm [file.dasm]      assemble a .dasm file into a program image
//	disasm [image]       disassemble a program image to stdout
//	store put [name] [file]
//	store get [name] [file]
//	store ls
//	store rm [name]...   manage the image store
//
// Global flags:
//
//	--config file
//		  configuration file (default diatom.toml in the user config directory)
//	--debug
//		  enable debug diagnostics and full error stack traces
//	-v, --verbose
//		  increase log verbosity, can be repeated
//
// run flags:
//
//	--with filename
//		  add filename to the input list (can be specified multiple times)
//	--noraw
//		  disable raw terminal IO
//	--dump
//		  dump the machine state upon exit
//	-s, --stored
//		  load the named image from the image store
//	--snapshot file
//		  write a snapshot of the machine state to file upon exit
//	--resume file
//		  resume execution from a snapshot file
//	--trace n
//		  number of instructions kept for fault reports
//
// Program files ending in .dasm are assembled on the fly. Any other file is
// loaded as a raw program image, or as a zstd compressed one if it starts with
// the zstd magic number. The asm command writes such images: by default to a
// .dopc file next to the source, compressed with --zstd.
//
// -with: after loading the program, the VM input is fed with the specified
// files in order of appearance on the command line, then with stdin.
//
// -noraw: upon startup, diatom switches the terminal to raw mode unless stdin
// has been redirected or raw mode is disabled in the configuration file. This
// flag disables this behavior. In raw mode, Ctrl-D closes the VM input and
// Ctrl-C interrupts the VM.
//
// -snapshot, -resume: a snapshot holds the full machine state in CBOR. A
// program that was interrupted while waiting for input can be resumed from
// where it stopped:
//
//	diatom run --snapshot state.cbor prog.dasm
//	diatom run --resume state.cbor
//
// The configuration file is TOML:
//
//	[vm]
//	memory = 65536
//	data-stack = 30
//	return-stack = 30
//	trace = 30
//
//	[cli]
//	raw = true
//	verbosity = 0
//	store = "/path/to/images.db"
package main
