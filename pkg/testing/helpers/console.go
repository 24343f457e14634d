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

package helpers

import (
	"bytes"
	"io"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/terminal"
)

// Terminal modes tracked by FakeConsole.
const (
	ModeCooked = "cooked"
	ModeRaw    = "raw"
)

// FakeConsole simulates the local terminal. Keys are typed in advance; once
// they run out the console either reports end of input or stays idle.
type FakeConsole struct {
	// MakeRawErr is returned by MakeRaw when set.
	MakeRawErr error
	// OnIdle is called when Poll finds no key; it may type more keys.
	OnIdle func(c *FakeConsole)
	Mode   string
	// Output is everything written to the console.
	Output bytes.Buffer
	// Modes records the mode at each write, aligned with Output bytes.
	Modes []string
	keys  []byte
	// EOF makes an exhausted console report end of input.
	EOF bool
	// Restores counts restorations of the saved mode.
	Restores int
}

func NewFakeConsole(keys string) *FakeConsole {
	return &FakeConsole{
		Mode: ModeCooked,
		keys: []byte(keys),
		EOF:  true,
	}
}

// Type queues more keys.
func (c *FakeConsole) Type(keys string) {
	c.keys = append(c.keys, keys...)
}

func (c *FakeConsole) Poll(_ time.Duration) (bool, error) {
	if len(c.keys) == 0 && c.OnIdle != nil {
		c.OnIdle(c)
	}
	return len(c.keys) > 0 || c.EOF, nil
}

func (c *FakeConsole) ReadByte() (byte, error) {
	if len(c.keys) == 0 {
		return 0, io.EOF
	}
	b := c.keys[0]
	c.keys = c.keys[1:]
	return b, nil
}

func (c *FakeConsole) Write(p []byte) (int, error) {
	for range p {
		c.Modes = append(c.Modes, c.Mode)
	}
	return c.Output.Write(p)
}

// MakeRaw switches to raw mode and returns a restorer for the previous
// mode.
func (c *FakeConsole) MakeRaw() (terminal.Restorer, error) {
	if c.MakeRawErr != nil {
		return nil, c.MakeRawErr
	}
	saved := c.Mode
	c.Mode = ModeRaw
	return &fakeRestorer{console: c, saved: saved}, nil
}

// fakeRestorer puts a FakeConsole back into the mode saved by MakeRaw.
type fakeRestorer struct {
	console *FakeConsole
	saved   string
	done    bool
}

func (r *fakeRestorer) Restore() error {
	if r.done {
		return nil
	}
	r.done = true
	r.console.Mode = r.saved
	r.console.Restores++
	return nil
}
