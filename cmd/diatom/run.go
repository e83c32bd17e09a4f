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
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/db47h/diatom/asm"
	"github.com/db47h/diatom/internal/imagestore"
	"github.com/db47h/diatom/vm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	withFiles    []string
	noRawIO      bool
	dump         bool
	stored       bool
	snapshotFile string
	resumeFile   string
	traceDepth   int
)

var runCmd = &cobra.Command{
	Use:   "run [image]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Load a program and run it",
	Long: `run loads the given program and runs it until it exits or faults.

Files ending in .dasm are assembled first, any other file is loaded as a
program image, zstd compressed or not. With --stored, the argument names an
image in the image store.

The VM input is fed with the --with files, in order of appearance on the
command line, then with stdin. Interactive terminals are switched to raw mode
unless --noraw is given or disabled in the configuration file; press Ctrl-D to
close the VM input.

A snapshot written with --snapshot after the VM input was closed or
interrupted can be resumed with --resume: the pending KEY instruction is
executed again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if resumeFile == "" {
				return errors.New("no program given")
			}
			return run(cmd.Context(), "", cmd.InOrStdin(), cmd.OutOrStdout())
		}
		if resumeFile != "" {
			return errors.New("--resume does not take a program argument")
		}
		return run(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	f := runCmd.Flags()
	f.StringArrayVar(&withFiles, "with", nil, "add `filename` to the input list (can be specified multiple times)")
	f.BoolVar(&noRawIO, "noraw", false, "disable raw terminal IO")
	f.BoolVar(&dump, "dump", false, "dump the machine state upon exit")
	f.BoolVarP(&stored, "stored", "s", false, "load the named image from the image store")
	f.StringVar(&snapshotFile, "snapshot", "", "write a snapshot of the machine state to `file` upon exit")
	f.StringVar(&resumeFile, "resume", "", "resume execution from the snapshot `file`, no program is loaded")
	f.IntVar(&traceDepth, "trace", -1, "number of instructions kept for fault reports (default from configuration)")
	rootCmd.AddCommand(runCmd)
}

// loadProgram loads a program image from a .dasm source or image file. Images
// larger than maxSize fail with vm.ErrProgramTooLarge.
func loadProgram(name string, maxSize int) ([]byte, error) {
	if filepath.Ext(name) != ".dasm" {
		return vm.LoadFile(name, maxSize)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	defer f.Close()
	return asm.AssembleLimit(name, bufio.NewReader(f), maxSize)
}

func loadStored(name string) ([]byte, error) {
	s, err := imagestore.Open(cfg.StorePath())
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Get(name)
}

func newVM(name string, stdout io.Writer) (*vm.Instance, error) {
	opts := cfg.Options()
	if traceDepth >= 0 {
		opts = append(opts, vm.TraceDepth(traceDepth))
	}
	opts = append(opts, vm.Output(stdout))
	i, err := vm.New(opts...)
	if err != nil {
		return nil, err
	}

	if resumeFile != "" {
		f, err := os.Open(resumeFile)
		if err != nil {
			return nil, errors.Wrap(err, "resume")
		}
		defer f.Close()
		s, err := vm.DecodeSnapshot(bufio.NewReader(f))
		if err != nil {
			return nil, err
		}
		return i, i.Restore(s)
	}

	var img []byte
	if stored {
		img, err = loadStored(name)
	} else {
		img, err = loadProgram(name, cfg.VM.Memory)
	}
	if err != nil {
		return nil, err
	}
	return i, i.Load(img)
}

// feedInput pumps the --with files then stdin into the VM input port. stdin
// reads cannot be interrupted, so stdin is pumped from a detached goroutine
// that closes the port on EOF.
func feedInput(ctx context.Context, p *vm.InputPort, stdin io.Reader) error {
	for _, name := range withFiles {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "--with")
		}
		err = vm.FeedFrom(ctx, p, f)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "--with %s", name)
		}
		log.Debugf("fed %s", name)
	}
	go func() {
		if err := vm.FeedFrom(ctx, p, stdin); err != nil && errors.Cause(err) != vm.ErrPortClosed {
			log.Errorf("stdin: %v", err)
		}
		p.Close()
	}()
	return nil
}

func run(ctx context.Context, name string, in io.Reader, out io.Writer) (err error) {
	var (
		stdin  = in
		stdout = out
		runErr error
	)
	if f, ok := in.(*os.File); ok && isTerminal(f) && cfg.CLI.Raw && !noRawIO {
		tearDown, err := setRawIO()
		if err != nil {
			log.Warningf("raw mode: %v", err)
		} else {
			defer tearDown()
			// with the terminal in raw mode, we need to handle Ctrl-D
			// ourselves.
			stdin = eotReader{f}
		}
	}

	if f, ok := out.(*os.File); !ok || !isTerminal(f) {
		bw := bufio.NewWriter(out)
		defer bw.Flush()
		stdout = bw
	}

	i, err := newVM(name, stdout)
	if err != nil {
		return err
	}
	defer func() {
		if dump {
			if derr := i.Dump(stdout); err == nil {
				err = derr
			}
		}
		if snapshotFile != "" {
			if serr := writeSnapshot(i, runErr); err == nil {
				err = serr
			}
		}
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return feedInput(ctx, i.Input(), stdin)
	})
	g.Go(func() error {
		err := i.Run(ctx)
		runErr = err
		// input exhausted: normal exit condition
		if f, ok := err.(*vm.Fault); ok && f.Kind == vm.KindInput && errors.Cause(f) == vm.ErrPortClosed {
			log.Infof("input closed @pc=%d", f.PC)
			return nil
		}
		if f, ok := err.(*vm.Fault); ok && debug && len(f.Recent) > 0 {
			log.Debugf("execution trace:\n%s", strings.TrimSpace(f.Trace()))
		}
		return err
	})
	err = g.Wait()
	log.Infof("executed %d instructions, state %s", i.InstructionCount(), i.State())
	return err
}

// interrupted reports whether err is a fault from a KEY instruction that could
// not get input. Such faults leave pc on the KEY instruction.
func interrupted(err error) bool {
	f, ok := err.(*vm.Fault)
	return ok && f.Kind == vm.KindInput && f.Op == vm.OpKey
}

func writeSnapshot(i *vm.Instance, runErr error) (err error) {
	f, err := os.Create(snapshotFile)
	if err != nil {
		return errors.Wrap(err, "snapshot")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "snapshot")
		}
	}()
	s := i.Snapshot()
	if interrupted(runErr) {
		s.State = vm.Running
	}
	return vm.EncodeSnapshot(f, s)
}
