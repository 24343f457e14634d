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

// Package link provides the byte channels used to talk to a RomBOOT monitor
// over a serial line and to the local console.
//
// Every channel is polled rather than read with blocking calls: a caller asks
// whether input becomes ready within a short window and only then reads a
// single byte. The monitor never terminates its replies, so the end of a
// reply is inferred from the first window that passes with no input.
package link

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// DefaultQuietWindow is how long a poll waits for the next byte before a
// reply is considered complete. It is a heuristic tuned for the RomBOOT
// monitor at 115200 baud, not a protocol guarantee: slow links may need a
// longer window.
const DefaultQuietWindow = 4 * time.Millisecond

// Channel is a byte endpoint that can be polled for pending input.
type Channel interface {
	io.Writer
	// Poll reports whether a byte can be read within timeout.
	Poll(timeout time.Duration) (bool, error)
	// ReadByte returns the next pending byte. It is only called after Poll
	// has reported input ready and returns io.EOF when no byte is available.
	ReadByte() (byte, error)
}

// Conn is a Channel that owns an underlying device handle.
type Conn interface {
	Channel
	io.Closer
}

// OpenError is returned when a serial device cannot be opened.
type OpenError struct {
	Err  error
	Path string
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to open device '%s' for i/o: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// ReadReady polls ch for up to timeout and reads one byte if input became
// ready. It returns io.EOF when ch reported input but had no byte to give.
func ReadReady(ch Channel, timeout time.Duration) (byte, bool, error) {
	ready, err := ch.Poll(timeout)
	if err != nil {
		return 0, false, fmt.Errorf("failed to poll: %w", err)
	}
	if !ready {
		return 0, false, nil
	}

	b, err := ch.ReadByte()
	if errors.Is(err, io.EOF) {
		return 0, false, io.EOF
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read: %w", err)
	}
	return b, true, nil
}
