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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/db47h/diatom/internal/imagestore"
	"github.com/db47h/diatom/vm"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the image store",
	Long: `store manages a local database of named program images. The database location
is set by the store key of the [cli] section in the configuration file.`,
}

func withStore(f func(s *imagestore.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := imagestore.Open(cfg.StorePath())
		if err != nil {
			return err
		}
		defer s.Close()
		return f(s, args)
	}
}

var storePutCmd = &cobra.Command{
	Use:   "put [name] [file]",
	Args:  cobra.ExactArgs(2),
	Short: "Store a program image or .dasm file under the given name",
	RunE: withStore(func(s *imagestore.Store, args []string) error {
		img, err := loadProgram(args[1], cfg.VM.Memory)
		if err != nil {
			return err
		}
		d, err := s.Put(args[0], img)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%x\n", args[0], d)
		return nil
	}),
}

var storeGetCmd = &cobra.Command{
	Use:   "get [name] [file]",
	Args:  cobra.ExactArgs(2),
	Short: "Write a stored image to a file",
	RunE: withStore(func(s *imagestore.Store, args []string) error {
		img, err := s.Get(args[0])
		if err != nil {
			return err
		}
		return vm.SaveFile(args[1], img, compress)
	}),
}

var storeLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Args:    cobra.NoArgs,
	Short:   "List stored images",
	RunE: withStore(func(s *imagestore.Store, args []string) error {
		l, err := s.List()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tBLAKE3")
		for _, e := range l {
			fmt.Fprintf(w, "%s\t%d\t%x\n", e.Name, e.Size, e.Digest)
		}
		return w.Flush()
	}),
}

var storeRmCmd = &cobra.Command{
	Use:     "rm [name]...",
	Aliases: []string{"delete"},
	Args:    cobra.MinimumNArgs(1),
	Short:   "Delete stored images",
	RunE: withStore(func(s *imagestore.Store, args []string) error {
		for _, name := range args {
			if err := s.Delete(name); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	storeGetCmd.Flags().BoolVar(&compress, "zstd", false, "zstd compress the program image")
	storeCmd.AddCommand(storePutCmd, storeGetCmd, storeLsCmd, storeRmCmd)
	rootCmd.AddCommand(storeCmd)
}
