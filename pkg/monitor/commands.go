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

import "fmt"

const (
	// WordWidth is the chunk width of the word read/write commands.
	WordWidth = 4
	// ByteWidth is the chunk width of the byte read/write commands.
	ByteWidth = 1

	// ChipIDRegister is the debug unit register holding the part id.
	ChipIDRegister uint32 = 0xFFFFF240

	// SyncCommand is an empty command line; the monitor answers with its prompt.
	SyncCommand = "#"
	// VersionCommand asks the monitor for its version string.
	VersionCommand = "V#"
)

// ReadWordCommand reads 4 bytes at addr.
func ReadWordCommand(addr uint32) string {
	return fmt.Sprintf("w%05X,4#", addr)
}

// ReadByteCommand reads 1 byte at addr.
func ReadByteCommand(addr uint32) string {
	return fmt.Sprintf("o%05X,1#", addr)
}

// WriteWordCommand writes the 32-bit value at addr.
func WriteWordCommand(addr, value uint32) string {
	return fmt.Sprintf("W%05X,%08X#", addr, value)
}

// WriteByteCommand writes one byte at addr.
func WriteByteCommand(addr uint32, value byte) string {
	return fmt.Sprintf("O%05X,%02X#", addr, value)
}

// GoCommand jumps to addr.
func GoCommand(addr uint32) string {
	return fmt.Sprintf("G%X#", addr)
}

// PendingGoCommand is the go command without its terminator, typed into
// the interactive terminal so the user's Enter launches it.
func PendingGoCommand(addr uint32) string {
	return fmt.Sprintf("G%X", addr)
}

func readCommand(width int, addr uint32) string {
	if width == WordWidth {
		return ReadWordCommand(addr)
	}
	return ReadByteCommand(addr)
}

func writeCommand(width int, addr, value uint32) string {
	if width == WordWidth {
		return WriteWordCommand(addr, value)
	}
	return WriteByteCommand(addr, byte(value))
}
