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

// Package sim provides a simulated RomBOOT monitor for tests. It parses the
// command lines written to it, keeps a sparse memory map and queues the
// replies a real monitor would print.
package sim

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Prompt is printed by the monitor after every command.
const Prompt = "\n\r>"

// Banner is queued when the monitor is created, as after a board reset.
const Banner = "RomBOOT\n\r>"

// VersionString is the reply to the V command.
const VersionString = "v1.10 Jan 13 2011"

// Monitor simulates a RomBOOT monitor behind a serial line. It implements
// link.Conn.
type Monitor struct {
	Memory map[uint32]byte
	// Commands records every command line received, without terminator.
	Commands []string
	// Jumps records the addresses of executed go commands.
	Jumps []uint32
	// Received records every byte written to the monitor.
	Received []byte
	// PartID is returned for word reads of the chip id register.
	PartID uint32
	// RespondTo limits how many commands get a reply; zero means all.
	RespondTo int
	// Silent suppresses every reply.
	Silent bool
	// Polls counts calls to Poll.
	Polls  int
	out    []byte
	line   []byte
	Closed bool
}

// NewMonitor returns a monitor with the boot banner queued.
func NewMonitor() *Monitor {
	return &Monitor{
		Memory: make(map[uint32]byte),
		PartID: 0x019803A0,
		out:    []byte(Banner),
	}
}

// Load fills memory at addr with data.
func (m *Monitor) Load(addr uint32, data []byte) {
	for i, b := range data {
		m.Memory[addr+uint32(i)] = b //nolint:gosec // test data is small
	}
}

// Read returns n bytes of memory at addr.
func (m *Monitor) Read(addr uint32, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = m.Memory[addr+uint32(i)] //nolint:gosec // test data is small
	}
	return data
}

// Queue appends raw output, as if the target printed it.
func (m *Monitor) Queue(s string) {
	m.out = append(m.out, s...)
}

// Discard drops the queued output, such as the boot banner.
func (m *Monitor) Discard() {
	m.out = nil
}

// Pending returns the queued output not yet read.
func (m *Monitor) Pending() []byte {
	return m.out
}

func (m *Monitor) Poll(_ time.Duration) (bool, error) {
	m.Polls++
	if m.Closed {
		return false, io.ErrClosedPipe
	}
	return len(m.out) > 0, nil
}

func (m *Monitor) ReadByte() (byte, error) {
	if len(m.out) == 0 {
		return 0, io.EOF
	}
	b := m.out[0]
	m.out = m.out[1:]
	return b, nil
}

func (m *Monitor) Write(p []byte) (int, error) {
	if m.Closed {
		return 0, io.ErrClosedPipe
	}
	m.Received = append(m.Received, p...)
	for _, b := range p {
		switch b {
		case '#':
			m.execute(string(m.line))
			m.line = m.line[:0]
		case '\n', '\r':
		default:
			m.line = append(m.line, b)
		}
	}
	return len(p), nil
}

func (m *Monitor) Close() error {
	m.Closed = true
	return nil
}

// CountCommands returns how many recorded commands start with prefix.
func (m *Monitor) CountCommands(prefix string) int {
	n := 0
	for _, c := range m.Commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *Monitor) execute(cmd string) {
	m.Commands = append(m.Commands, cmd)
	if m.Silent || (m.RespondTo > 0 && len(m.Commands) > m.RespondTo) {
		return
	}

	reply, err := m.handle(cmd)
	if err != nil {
		m.Queue("\n\r?" + Prompt)
		return
	}
	m.Queue(reply + Prompt)
}

func (m *Monitor) handle(cmd string) (string, error) {
	if cmd == "" {
		return "", nil
	}

	args := strings.Split(cmd[1:], ",")
	switch cmd[0] {
	case 'V':
		return "\n\r" + VersionString, nil
	case 'w':
		addr, err := parseArg(args, 0)
		if err != nil {
			return "", err
		}
		if addr == 0xFFFFF240 {
			return fmt.Sprintf("\n\r0x%08X", m.PartID), nil
		}
		v := uint32(m.Memory[addr]) | uint32(m.Memory[addr+1])<<8 |
			uint32(m.Memory[addr+2])<<16 | uint32(m.Memory[addr+3])<<24
		return fmt.Sprintf("\n\r0x%08X", v), nil
	case 'o':
		addr, err := parseArg(args, 0)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("\n\r0x%02X", m.Memory[addr]), nil
	case 'W':
		addr, err := parseArg(args, 0)
		if err != nil {
			return "", err
		}
		v, err := parseArg(args, 1)
		if err != nil {
			return "", err
		}
		for i := range uint32(4) {
			m.Memory[addr+i] = byte(v >> (8 * i))
		}
		return "", nil
	case 'O':
		addr, err := parseArg(args, 0)
		if err != nil {
			return "", err
		}
		v, err := parseArg(args, 1)
		if err != nil {
			return "", err
		}
		m.Memory[addr] = byte(v)
		return "", nil
	case 'G':
		addr, err := parseArg(args, 0)
		if err != nil {
			return "", err
		}
		m.Jumps = append(m.Jumps, addr)
		return "", nil
	default:
		return "", fmt.Errorf("unknown command: %s", cmd)
	}
}

func parseArg(args []string, i int) (uint32, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	v, err := strconv.ParseUint(args[i], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid argument %q: %w", args[i], err)
	}
	return uint32(v), nil
}
