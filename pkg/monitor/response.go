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
	"io"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/link"
)

// MaxResponseLen bounds the bytes captured from one reply.
const MaxResponseLen = 30

// Response is the output captured from the monitor in one poll cycle.
type Response struct {
	Raw   []byte
	Value uint32
	// Found is true when Raw held a 0x token with at least one digit.
	Found bool
}

// BytesRead returns how many bytes the monitor produced. Zero means the
// target stayed silent for the whole quiet window.
func (r Response) BytesRead() int {
	return len(r.Raw)
}

// ReadResponse drains the bytes that arrive on ch until it stays quiet for
// window or MaxResponseLen bytes were captured. Captured bytes are copied
// verbatim to echo when it is not nil. The first embedded 0x<hex> token is
// parsed into the response value.
func ReadResponse(ch link.Channel, window time.Duration, echo io.Writer) (Response, error) {
	raw := make([]byte, 0, MaxResponseLen)

	for len(raw) < MaxResponseLen {
		b, ok, err := link.ReadReady(ch, window)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Response{Raw: raw}, fmt.Errorf("failed to read monitor reply: %w", err)
		}
		if !ok {
			break
		}
		raw = append(raw, b)
	}

	if len(raw) > 0 && echo != nil {
		_, _ = echo.Write(raw)
	}

	resp := Response{Raw: raw}
	resp.Value, resp.Found = ScanHex(raw)
	return resp, nil
}

const (
	scanWaitZero = iota
	scanWaitX
	scanValue
)

// ScanHex finds the first "0x" in b and parses the hex number following
// it. A character that breaks a "0x" pair is consumed, so "00x1" holds no
// token. Scanning ends at the first "0x" even if no digits follow it.
func ScanHex(b []byte) (uint32, bool) {
	state := scanWaitZero
	for i, c := range b {
		switch state {
		case scanWaitZero:
			if c == '0' {
				state = scanWaitX
			}
		case scanWaitX:
			if c == 'x' {
				state = scanValue
			} else {
				state = scanWaitZero
			}
		case scanValue:
			return parseHex(b[i:])
		}
	}
	return 0, false
}

// parseHex reads a hex number the way scanf's %X conversion into a 32-bit
// unsigned does: leading white space is skipped, a 0x prefix is allowed and
// digits beyond 32 bits shift out the top, leaving the low 32 bits.
func parseHex(b []byte) (uint32, bool) {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	if i+2 < len(b) && b[i] == '0' && (b[i+1] == 'x' || b[i+1] == 'X') && isHexDigit(b[i+2]) {
		i += 2
	}

	var v uint32
	found := false
	for ; i < len(b) && isHexDigit(b[i]); i++ {
		v = v<<4 | hexDigit(b[i])
		found = true
	}
	return v, found
}

func hexDigit(c byte) uint32 {
	switch {
	case c >= 'a':
		return uint32(c-'a') + 10
	case c >= 'A':
		return uint32(c-'A') + 10
	default:
		return uint32(c - '0')
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}
