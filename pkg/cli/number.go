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

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber converts a command line value to a 32-bit number. Values
// prefixed with $ or 0x are hex, anything else is decimal. Leading blanks
// are ignored.
func ParseNumber(s string) (uint32, error) {
	v := strings.TrimLeft(s, " ")

	base := 10
	switch {
	case strings.HasPrefix(v, "$"):
		v = v[1:]
		base = 16
	case strings.HasPrefix(v, "0x"), strings.HasPrefix(v, "0X"):
		v = v[2:]
		base = 16
	}

	n, err := strconv.ParseUint(v, base, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidParameter, s)
	}
	return uint32(n), nil
}
