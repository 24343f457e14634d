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

package link

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// SerialPort defines the subset of serial port operations used by the
// monitor link (for mocking in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// SerialPortFactory creates a serial port connection.
type SerialPortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultSerialPortFactory is the default factory that opens real serial ports.
func DefaultSerialPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// ParseMode builds a serial mode from the settings file representation.
// Parity is one of none, odd, even, mark or space; stop bits is 1, 1.5 or 2.
func ParseMode(baudRate, dataBits int, parity, stopBits string) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: dataBits,
	}

	switch strings.ToLower(parity) {
	case "", "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("invalid parity: %s", parity)
	}

	switch stopBits {
	case "", "1":
		mode.StopBits = serial.OneStopBit
	case "1.5":
		mode.StopBits = serial.OnePointFiveStopBits
	case "2":
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits: %s", stopBits)
	}

	return mode, nil
}

// SerialChannel is a Channel backed by a serial port. A poll performs a
// one-byte read bounded by the port read timeout and parks the byte until
// ReadByte collects it.
type SerialChannel struct {
	port       SerialPort
	path       string
	timeout    time.Duration
	buf        [1]byte
	timeoutSet bool
	pending    bool
}

// NewSerialChannel wraps an already open port.
func NewSerialChannel(port SerialPort, path string) *SerialChannel {
	return &SerialChannel{
		port: port,
		path: path,
	}
}

// OpenSerial opens the device at path and returns it as a Conn. A nil
// factory opens a real port.
func OpenSerial(path string, mode *serial.Mode, factory SerialPortFactory) (*SerialChannel, error) {
	if factory == nil {
		factory = DefaultSerialPortFactory
	}

	if runtime.GOOS != "windows" {
		if _, err := os.Stat(path); err != nil {
			return nil, &OpenError{Path: path, Err: err}
		}
	}

	log.Debug().Str("path", path).Int("baud", mode.BaudRate).Msg("opening monitor serial port")

	port, err := factory(path, mode)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	log.Info().Msgf("opened monitor serial port: %s", path)

	return NewSerialChannel(port, path), nil
}

func (c *SerialChannel) Poll(timeout time.Duration) (bool, error) {
	if c.pending {
		return true, nil
	}

	if !c.timeoutSet || c.timeout != timeout {
		if err := c.port.SetReadTimeout(timeout); err != nil {
			return false, fmt.Errorf("failed to set read timeout on serial port: %w", err)
		}
		c.timeout = timeout
		c.timeoutSet = true
	}

	n, err := c.port.Read(c.buf[:])
	if err != nil {
		return false, fmt.Errorf("failed to read from serial port %s: %w", c.path, err)
	}
	if n == 0 {
		return false, nil
	}

	c.pending = true
	return true, nil
}

func (c *SerialChannel) ReadByte() (byte, error) {
	if !c.pending {
		return 0, io.EOF
	}
	c.pending = false
	return c.buf[0], nil
}

func (c *SerialChannel) Write(p []byte) (int, error) {
	n, err := c.port.Write(p)
	if err != nil {
		return n, fmt.Errorf("failed to write to serial port %s: %w", c.path, err)
	}
	return n, nil
}

func (c *SerialChannel) Close() error {
	if err := c.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Path returns the device path the channel was opened on.
func (c *SerialChannel) Path() string {
	return c.path
}
