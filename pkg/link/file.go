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

package link

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// FileChannel is a Channel over a pair of files, typically the process
// console: input is polled and read from in, output goes to out.
type FileChannel struct {
	in  *os.File
	out io.Writer
}

func NewFileChannel(in *os.File, out io.Writer) *FileChannel {
	return &FileChannel{
		in:  in,
		out: out,
	}
}

// Stdio returns the process console as a channel.
func Stdio() *FileChannel {
	return NewFileChannel(os.Stdin, os.Stdout)
}

// Fd returns the descriptor of the input file.
func (c *FileChannel) Fd() int {
	return int(c.in.Fd()) //nolint:gosec // descriptors fit in int on all supported platforms
}

func (c *FileChannel) Poll(timeout time.Duration) (bool, error) {
	return pollFile(c.in, timeout)
}

func (c *FileChannel) ReadByte() (byte, error) {
	var b [1]byte
	n, err := c.in.Read(b[:])
	if n == 1 {
		return b[0], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return 0, io.EOF
	}
	return 0, fmt.Errorf("failed to read from %s: %w", c.in.Name(), err)
}

func (c *FileChannel) Write(p []byte) (int, error) {
	n, err := c.out.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write console output: %w", err)
	}
	return n, nil
}
