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

// Package terminal implements the interactive pass-through between the local
// console and a RomBOOT monitor.
package terminal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/sam9boot/pkg/link"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when raw mode is requested on a descriptor that
// is not a terminal.
var ErrNotTerminal = errors.New("console is not a terminal")

// Restorer returns a console to the mode it had before raw mode was entered.
// Restore must be safe to call more than once.
type Restorer interface {
	Restore() error
}

// Console is the local end of the pass-through.
type Console interface {
	link.Channel
	// MakeRaw switches the console to character-at-a-time input without
	// echo or signal generation.
	MakeRaw() (Restorer, error)
}

// RawMode holds the terminal state saved when raw mode was entered.
type RawMode struct {
	state *term.State
	err   error
	fd    int
	once  sync.Once
}

// MakeRaw puts the terminal on fd into raw mode.
func MakeRaw(fd int) (*RawMode, error) {
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}

	return &RawMode{
		fd:    fd,
		state: state,
	}, nil
}

// Restore puts back the saved terminal state. Only the first call touches
// the terminal; later calls return the first result.
func (r *RawMode) Restore() error {
	r.once.Do(func() {
		if err := term.Restore(r.fd, r.state); err != nil {
			r.err = fmt.Errorf("failed to restore terminal state: %w", err)
		}
	})
	return r.err
}

// StdConsole is the process console on standard input and output.
type StdConsole struct {
	*link.FileChannel
}

func NewStdConsole() *StdConsole {
	return &StdConsole{FileChannel: link.Stdio()}
}

func (c *StdConsole) MakeRaw() (Restorer, error) {
	raw, err := MakeRaw(c.Fd())
	if err != nil {
		return nil, err
	}
	return raw, nil
}
