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

package service

import (
	"errors"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/ZaparooProject/sam9boot/pkg/monitor"
)

// PrintError writes err to w as a "*** Message!" line.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "*** %s!\n", capitalize(err.Error()))
}

// PrintExit writes the final exit code line.
func PrintExit(w io.Writer, err error) {
	if err == nil {
		_, _ = io.WriteString(w, "Exit code 0 - success.\n\n")
		return
	}
	_, _ = io.WriteString(w, "*** Exit code 1 - failure!\n\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// stepError replaces the message of a step failure while keeping the
// underlying error for errors.Is and errors.As.
type stepError struct {
	err error
	msg string
}

func (e *stepError) Error() string {
	return e.msg
}

func (e *stepError) Unwrap() error {
	return e.err
}

// progressPrinter renders transfer progress as carriage-return lines.
type progressPrinter struct {
	w    io.Writer
	file string
}

func (p *progressPrinter) report(pr monitor.Progress) {
	switch pr.Direction {
	case monitor.DirectionUpload:
		_, _ = fmt.Fprintf(p.w, "Uploading file '%s' (%d bytes) to memory at $%x...\r",
			p.file, pr.Done, pr.Start)
	case monitor.DirectionDownload:
		_, _ = fmt.Fprintf(p.w, "Downloading memory from $%x (%d bytes)...\r",
			pr.Start, pr.Done)
	}
}

// isUnresponsive reports whether err came from a silent target.
func isUnresponsive(err error) bool {
	var target *monitor.TargetUnresponsiveError
	return errors.As(err, &target)
}
