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

package monitor

import (
	"errors"
	"fmt"
)

// ErrZeroCount is returned when a transfer of zero bytes is requested.
var ErrZeroCount = errors.New("byte count must be greater than zero")

// TargetUnresponsiveError indicates the monitor produced no output within
// the quiet window for a command that needed a reply.
type TargetUnresponsiveError struct {
	Op        string
	Start     uint32
	Address   uint32
	Collected int
	Expected  int
}

func (e *TargetUnresponsiveError) Error() string {
	return fmt.Sprintf("failed to %s $%x (%d bytes, %d expected, target unresponsive at $%x)",
		e.Op, e.Start, e.Collected, e.Expected, e.Address)
}

// TransferShortfallError indicates a transfer loop ended with a byte count
// different from the one requested.
type TransferShortfallError struct {
	Op          string
	Start       uint32
	Transferred int
	Expected    int
}

func (e *TransferShortfallError) Error() string {
	return fmt.Sprintf("failed to %s $%x (%d bytes, %d expected)",
		e.Op, e.Start, e.Transferred, e.Expected)
}
