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
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/diatom/asm"
	"github.com/db47h/diatom/vm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	outFileName string
	compress    bool
	disasmBase  int
)

var asmCmd = &cobra.Command{
	Use:     "asm [file.dasm]",
	Aliases: []string{"assemble"},
	Args:    cobra.ExactArgs(1),
	Short:   "Assemble a .dasm file",
	Long: `asm reads the given .dasm file and writes the resulting program image to the
file given with -o, by default a .dopc file at the same location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		out := outFileName
		if out == "" {
			out = strings.TrimSuffix(name, filepath.Ext(name)) + ".dopc"
		}
		img, err := loadProgram(name, 0)
		if err != nil {
			return err
		}
		if err = vm.SaveFile(out, img, compress); err != nil {
			return errors.Wrapf(err, "save %s", out)
		}
		log.Infof("assembled %s: %d bytes", out, len(img))
		return nil
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm [image]",
	Args:  cobra.ExactArgs(1),
	Short: "Disassemble a program image",
	RunE: func(cmd *cobra.Command, args []string) error {
		var img []byte
		var err error
		if stored {
			img, err = loadStored(args[0])
		} else {
			img, err = loadProgram(args[0], 0)
		}
		if err != nil {
			return err
		}
		w := bufio.NewWriter(os.Stdout)
		if err = asm.DisassembleAll(img, disasmBase, w); err != nil {
			return err
		}
		return w.Flush()
	},
}

func init() {
	asmCmd.Flags().StringVarP(&outFileName, "output", "o", "", "`filename` of the program image")
	asmCmd.Flags().BoolVar(&compress, "zstd", false, "zstd compress the program image")
	disasmCmd.Flags().IntVar(&disasmBase, "base", 0, "address of the first byte of the image")
	disasmCmd.Flags().BoolVarP(&stored, "stored", "s", false, "load the named image from the image store")
	rootCmd.AddCommand(asmCmd, disasmCmd)
}
