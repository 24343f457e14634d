// sam9boot
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of sam9boot.
//
// sam9boot is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// sam9boot is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with sam9boot.  If not, see <http://www.gnu.org/licenses/>.

// Package cli parses the sam9boot command line into a validated run
// configuration.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/ZaparooProject/sam9boot/pkg/config"
)

// ErrInvalidParameter is returned for unknown, malformed or out of range
// parameters.
var ErrInvalidParameter = errors.New("invalid parameter")

type Flags struct {
	Port        *string
	File        *string
	Receive     *bool
	Dump        *bool
	Send        *bool
	QueryID     *bool
	Verify      *bool
	Quiet       *bool
	Trace       *bool
	Interactive *bool
	Debug       *bool
	run         *config.Run
}

// addressValue parses -a into the run start address.
type addressValue struct {
	run *config.Run
}

func (v *addressValue) String() string {
	if v.run == nil {
		return ""
	}
	return fmt.Sprintf("0x%X", v.run.StartAddress)
}

func (v *addressValue) Set(s string) error {
	n, err := ParseNumber(s)
	if err != nil {
		return err
	}
	v.run.StartAddress = n
	return nil
}

// goValue parses -g. Given alone it takes the start address as set so
// far, so its position relative to -a matters.
type goValue struct {
	run *config.Run
}

func (v *goValue) String() string {
	if v.run == nil || v.run.GoAddress == nil {
		return ""
	}
	return fmt.Sprintf("0x%X", *v.run.GoAddress)
}

func (v *goValue) Set(s string) error {
	if s == "true" {
		addr := v.run.StartAddress
		v.run.GoAddress = &addr
		return nil
	}
	n, err := ParseNumber(s)
	if err != nil {
		return err
	}
	v.run.GoAddress = &n
	return nil
}

func (*goValue) IsBoolFlag() bool { return true }

// countValue parses -n. Zero is rejected.
type countValue struct {
	run *config.Run
}

func (v *countValue) String() string {
	if v.run == nil {
		return ""
	}
	return strconv.Itoa(v.run.Count)
}

func (v *countValue) Set(s string) error {
	n, err := ParseNumber(s)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: byte count must not be zero", ErrInvalidParameter)
	}
	v.run.Count = int(n)
	return nil
}

// SetupFlags defines all flags on fs. Values parsed later land in run.
func SetupFlags(fs *flag.FlagSet, run *config.Run) *Flags {
	fs.Var(&addressValue{run: run}, "a", "address (default 0x300000, used by -r, -d and -s)")
	fs.Var(&countValue{run: run}, "n", "number of bytes (defaults to filesize for -s)")
	fs.Var(&goValue{run: run}, "g", "address to jump to (default -a)")

	return &Flags{
		run: run,
		Port: fs.String(
			"p",
			run.Port,
			"port to communicate with RomBOOT",
		),
		File: fs.String(
			"f",
			"",
			"filename (needed by -r, -s and -v)",
		),
		Receive: fs.Bool(
			"r",
			false,
			"receive file (also specify -f, -a and -n)",
		),
		Dump: fs.Bool(
			"d",
			false,
			"dump memory (also specify -a and -n or -s)",
		),
		Send: fs.Bool(
			"s",
			false,
			"send file (also specify -f and -a)",
		),
		QueryID: fs.Bool(
			"c",
			false,
			"query cpu part id",
		),
		Verify: fs.Bool(
			"v",
			false,
			"verify memory against file (also specify -f)",
		),
		Quiet: fs.Bool(
			"q",
			false,
			"quiet (no non-essential i/o or messages)",
		),
		Trace: fs.Bool(
			"t",
			false,
			"trace details of upload/verify activity",
		),
		Interactive: fs.Bool(
			"i",
			false,
			"interactive (terminal) mode",
		),
		Debug: fs.Bool(
			"debug",
			false,
			"write debug messages to the log",
		),
	}
}

// Apply copies the parsed flags into the run configuration.
func (f *Flags) Apply() config.Run {
	run := *f.run
	run.Port = *f.Port
	run.File = *f.File
	run.Receive = *f.Receive
	run.Dump = *f.Dump
	run.Send = *f.Send
	run.QueryID = *f.QueryID
	run.Verify = *f.Verify
	run.Quiet = *f.Quiet
	run.Trace = *f.Trace
	run.Interactive = *f.Interactive
	return run
}

// DebugRequested reports whether args (without the program name) turn on
// -debug. It runs before the settings and logging are set up, so parse
// errors are left for Parse to report.
func DebugRequested(args []string) bool {
	run := config.NewRun(config.DefaultPort)
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := SetupFlags(fs, &run)
	_ = fs.Parse(args)
	return *flags.Debug
}

// Parse reads args (without the program name) on top of defaults and
// validates the result. The returned bool reports whether -debug was set.
func Parse(args []string, defaults config.Run) (config.Run, bool, error) {
	run := defaults
	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := SetupFlags(fs, &run)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, ErrInvalidParameter) {
			return run, false, err
		}
		return run, false, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	if fs.NArg() > 0 {
		return run, false, fmt.Errorf("%w: '%s'", ErrInvalidParameter, fs.Arg(0))
	}

	run = flags.Apply()
	if err := config.Validate(&run); err != nil {
		return run, *flags.Debug, err
	}
	return run, *flags.Debug, nil
}
