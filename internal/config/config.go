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

// Package config loads the diatom command configuration file.
//
// A configuration file is a TOML document:
//
//	[vm]
//	memory = 8192        # memory size in bytes
//	data-stack = 30      # data stack capacity
//	return-stack = 30    # address stack capacity
//	trace = 30           # instructions kept for fault reports, 0 disables
//
//	[cli]
//	raw = true           # switch interactive terminals to raw mode
//	verbosity = 0        # log verbosity, 0: errors only
//	store = ""           # image store path, empty for the default
//
// Missing keys keep their default value. Unknown keys are an error.
package config

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/db47h/diatom/vm"
	"github.com/pkg/errors"
)

// FileName is the name of the configuration file looked up in the user
// configuration directory.
const FileName = "diatom.toml"

// Config holds the diatom command settings.
type Config struct {
	VM  VM  `toml:"vm"`
	CLI CLI `toml:"cli"`
}

// VM configures new VM instances.
type VM struct {
	Memory      int `toml:"memory"`
	DataStack   int `toml:"data-stack"`
	ReturnStack int `toml:"return-stack"`
	Trace       int `toml:"trace"`
}

// CLI configures the command line host.
type CLI struct {
	Raw       bool   `toml:"raw"`
	Verbosity int    `toml:"verbosity"`
	Store     string `toml:"store"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		VM: VM{
			Memory:      vm.DefaultMemorySize,
			DataStack:   vm.DefaultStackSize,
			ReturnStack: vm.DefaultStackSize,
			Trace:       30,
		},
		CLI: CLI{
			Raw: true,
		},
	}
}

// Decode reads a configuration from r on top of the default configuration.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if err = checkUndecoded(md); err != nil {
		return nil, err
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the configuration file at path on top of the default
// configuration. If path is empty, the default file in the user configuration
// directory is used, if it exists.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); err != nil {
			return Default(), nil
		}
	}
	c := Default()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if err = checkUndecoded(md); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if err = c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

func checkUndecoded(md toml.MetaData) error {
	u := md.Undecoded()
	if len(u) == 0 {
		return nil
	}
	keys := make([]string, len(u))
	for i := range u {
		keys[i] = u[i].String()
	}
	sort.Strings(keys)
	return errors.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}

// Validate checks that all values are within range.
func (c *Config) Validate() error {
	switch {
	case c.VM.Memory <= 0:
		return errors.Errorf("invalid memory size %d", c.VM.Memory)
	case c.VM.DataStack <= 0:
		return errors.Errorf("invalid data stack size %d", c.VM.DataStack)
	case c.VM.ReturnStack <= 0:
		return errors.Errorf("invalid return stack size %d", c.VM.ReturnStack)
	case c.VM.Trace < 0:
		return errors.Errorf("invalid trace depth %d", c.VM.Trace)
	}
	return nil
}

// Options returns the VM options matching the [vm] section.
func (c *Config) Options() []vm.Option {
	return []vm.Option{
		vm.MemorySize(c.VM.Memory),
		vm.DataSize(c.VM.DataStack),
		vm.AddressSize(c.VM.ReturnStack),
		vm.TraceDepth(c.VM.Trace),
	}
}

// StorePath returns the image store path, defaulting to images.db in the
// user configuration directory.
func (c *Config) StorePath() string {
	if c.CLI.Store != "" {
		return c.CLI.Store
	}
	return filepath.Join(configDir(), "images.db")
}

// DefaultPath returns the path of the default configuration file.
func DefaultPath() string {
	return filepath.Join(configDir(), FileName)
}

func configDir() string {
	d, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(d, "diatom")
}
