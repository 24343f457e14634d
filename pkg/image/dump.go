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

package image

import (
	"bytes"
	"fmt"
	"io"
)

const (
	dumpBytesPerLine = 16
	dumpLineWidth    = 65
	dumpGutterColumn = 49
)

// Dump writes the image as 16-byte lines of the form
//
//	$300000  de ad be ef ...                                 ....
//
// with the ASCII gutter starting at column 49 and non-printable bytes shown
// as '.'.
func Dump(w io.Writer, img *Image) error {
	address := img.Address
	line := make([]byte, dumpLineWidth)

	for offset := 0; offset < img.Len(); offset += dumpBytesPerLine {
		copy(line, bytes.Repeat([]byte{' '}, dumpLineWidth))

		end := min(offset+dumpBytesPerLine, img.Len())
		for i, b := range img.Data[offset:end] {
			hex := fmt.Sprintf("%02x", b)
			line[i*3] = hex[0]
			line[i*3+1] = hex[1]
			line[dumpGutterColumn+i] = printable(b)
		}

		if _, err := fmt.Fprintf(w, "$%06x  %s\n", address, line); err != nil {
			return fmt.Errorf("failed to write dump: %w", err)
		}
		address += dumpBytesPerLine
	}

	return nil
}

func printable(b byte) byte {
	if b > 0x1f && b < 0x7f {
		return b
	}
	return '.'
}
