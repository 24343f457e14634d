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
	"io"
	"path/filepath"

	"github.com/ZaparooProject/sam9boot/pkg/config"
)

const helpText = `
Utility to simplify dealing with the SAM9 RomBOOT facility via a serial interface.

Usage:  %s
           {-p=port}
              {-f=filename {-a=address} {-n=bytes {-r} {-d}} {-s}}
                  {-g{=address}} {-c} {-v} {-q} {-t} {-i}

Where:

   -p=port  . . . . . . . . port to communicate with RomBOOT (default %s)
   -f=filename  . . . . . . filename (needed by -r and -s)
   -a=address . . . . . . . address (default 0x%X, used by -r, -d and -s)
   -n=bytes . . . . . . . . number of bytes (defaults to filesize for -s)
   -r . . . . . . . . . . . receive file (also specify -f, -a and -n)
   -d . . . . . . . . . . . dump memory (also specify -a and -n or -s)
   -s . . . . . . . . . . . send file (also specify -f and -a)
   -g{=address} . . . . . . address to jump to (default -a)
   -c . . . . . . . . . . . query cpu part id
   -v . . . . . . . . . . . verify memory against file (also specify -f)
   -q . . . . . . . . . . . quiet (no non-essential i/o or messages)
   -t . . . . . . . . . . . trace details of upload/verify activity
   -i . . . . . . . . . . . interactive (terminal) mode

All parameters are additive.  Relative order only matters for -a and -g.  Numeric
values may be entered as decimal (no prefix) or as hex with either 0x or $ prefix.
Parameters -r and -s are mutually exclusive.  If -s is specified, the actual send
file size overrides -n.

`

// Banner returns the startup line printed before anything else.
func Banner() string {
	return fmt.Sprintf("\nSAM9 Boot Utility Version %s\n", config.AppVersion)
}

// Help writes the usage screen for the executable at path.
func Help(w io.Writer, path, port string) {
	if port == "" {
		port = config.DefaultPort
	}
	_, _ = fmt.Fprintf(w, helpText, filepath.Base(path), port, config.DefaultStartAddress)
}
