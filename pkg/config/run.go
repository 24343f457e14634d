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

package config

import (
	"github.com/go-playground/validator/v10"
)

const (
	tagExclusive     = "exclusive"
	tagRequiresFile  = "requires_file"
	tagRequiresCount = "requires_count"
)

// Run is the configuration of one invocation, built from the command line
// on top of the settings file.
type Run struct {
	// GoAddress is where execution starts afterwards; nil means no go.
	GoAddress    *uint32 `flag:"g"`
	Port         string  `flag:"p" validate:"required,devpath"`
	File         string  `flag:"f"`
	StartAddress uint32  `flag:"a"`
	// Count is the number of bytes to transfer; zero means the file size.
	Count       int  `flag:"n" validate:"gte=0"`
	Receive     bool `flag:"r"`
	Dump        bool `flag:"d"`
	Send        bool `flag:"s"`
	QueryID     bool `flag:"c"`
	Verify      bool `flag:"v"`
	Quiet       bool `flag:"q"`
	Trace       bool `flag:"t"`
	Interactive bool `flag:"i"`
}

// NewRun returns a Run with the default device and start address.
func NewRun(port string) Run {
	if port == "" {
		port = DefaultPort
	}
	return Run{
		Port:         port,
		StartAddress: DefaultStartAddress,
	}
}

// NeedsFile reports whether a step reads or writes the image file.
func (r *Run) NeedsFile() bool {
	return r.Receive || r.Send || r.Verify
}

// NeedsDownload reports whether target memory is read back.
func (r *Run) NeedsDownload() bool {
	return r.Receive || r.Verify || r.Dump
}

func validateRunFlags(sl validator.StructLevel) {
	r, ok := sl.Current().Interface().(Run)
	if !ok {
		return
	}

	if r.Receive && r.Send {
		sl.ReportError(r.Receive, "-r", "Receive", tagExclusive, "-s")
	}

	if r.File == "" {
		if r.Receive {
			sl.ReportError(r.Receive, "-r", "Receive", tagRequiresFile, "")
		}
		if r.Send {
			sl.ReportError(r.Send, "-s", "Send", tagRequiresFile, "")
		}
		if r.Verify {
			sl.ReportError(r.Verify, "-v", "Verify", tagRequiresFile, "")
		}
	}

	// Send and verify take the count from the file size.
	if r.Count == 0 && !r.Send && !r.Verify {
		if r.Receive {
			sl.ReportError(r.Receive, "-r", "Receive", tagRequiresCount, "")
		}
		if r.Dump {
			sl.ReportError(r.Dump, "-d", "Dump", tagRequiresCount, "")
		}
	}
}
