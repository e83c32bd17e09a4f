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

	"github.com/db47h/diatom/internal/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("diatom.cli")

var (
	configFile string
	debug      bool
	verbose    int
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "diatom",
	Short: "Diatom virtual machine and tools",
	Long: `diatom runs, assembles and disassembles programs for the Diatom virtual
machine, and manages a local store of program images.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
		v := cfg.CLI.Verbosity + verbose
		if debug && v < 4 {
			v = 4
		}
		commonlog.Configure(v, nil)
		log.Debugf("configuration: %+v", *cfg)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "configuration `file` (default "+config.DefaultPath()+")")
	pf.BoolVar(&debug, "debug", false, "enable debug diagnostics")
	pf.CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")
}

func atExit(err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\n%+v\n", err)
	os.Exit(1)
}

func main() {
	atExit(rootCmd.Execute())
}
