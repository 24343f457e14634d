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

// Package monitor drives the SAM9 RomBOOT monitor: short ASCII command
// lines sent over a serial link, replies framed by a quiet window, and the
// chunked memory transfers built on them.
//
// The protocol is strictly request/response. A Session sends one command,
// drains the reply and only then sends the next; nothing is pipelined and
// nothing is retried.
package monitor

import (
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/link"
	"github.com/rs/zerolog/log"
)

// Session issues commands to a monitor over a link channel.
//
// A Session is not safe for concurrent use.
type Session struct {
	ch     link.Channel
	config Config
}

// NewSession creates a Session on ch with the given options.
func NewSession(ch link.Channel, opts ...Option) *Session {
	if ch == nil {
		panic("channel cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Session{
		ch:     ch,
		config: cfg,
	}
}

// QuietWindow returns the reply quiet window in use.
func (s *Session) QuietWindow() time.Duration {
	return s.config.QuietWindow
}

// Exchange sends cmd followed by a newline and returns the reply. When echo
// is not nil the command text and the raw reply are written to it.
func (s *Session) Exchange(cmd string, echo io.Writer) (Response, error) {
	return s.exchange(cmd, cmd, echo)
}

func (s *Session) exchange(cmd, echoed string, echo io.Writer) (Response, error) {
	log.Debug().Str("cmd", cmd).Msg("monitor command")

	if _, err := io.WriteString(s.ch, cmd+"\n"); err != nil {
		return Response{}, fmt.Errorf("failed to send %q: %w", cmd, err)
	}
	if echo != nil {
		_, _ = io.WriteString(echo, echoed)
	}

	resp, err := ReadResponse(s.ch, s.config.QuietWindow, echo)
	if err != nil {
		return resp, err
	}

	log.Debug().
		Int("bytes", resp.BytesRead()).
		Bool("found", resp.Found).
		Msgf("monitor reply: 0x%X", resp.Value)

	return resp, nil
}

// Drain collects whatever the monitor is still sending, echoing it when
// an echo writer was configured.
func (s *Session) Drain() (Response, error) {
	return ReadResponse(s.ch, s.config.QuietWindow, s.config.Echo)
}

// Sync sends an empty command line and echoes the boot banner and prompt.
func (s *Session) Sync() (Response, error) {
	return s.Exchange(SyncCommand, s.config.Echo)
}

// Version asks the monitor for its version string.
func (s *Session) Version() (Response, error) {
	return s.Exchange(VersionCommand, s.config.Echo)
}

// PartID reads the chip id register.
func (s *Session) PartID() (uint32, error) {
	resp, err := s.Exchange(ReadWordCommand(ChipIDRegister), s.config.Echo)
	if err != nil {
		return 0, fmt.Errorf("failed to query part id: %w", err)
	}
	if resp.BytesRead() == 0 {
		return 0, &TargetUnresponsiveError{
			Op:       "query part id at",
			Start:    ChipIDRegister,
			Address:  ChipIDRegister,
			Expected: WordWidth,
		}
	}
	return resp.Value, nil
}

// Go starts execution at addr.
func (s *Session) Go(addr uint32) error {
	cmd := GoCommand(addr)
	if _, err := s.exchange(cmd, cmd+"\n", s.config.Echo); err != nil {
		return fmt.Errorf("failed to go to $%x: %w", addr, err)
	}
	log.Info().Msgf("started execution at $%x", addr)
	return nil
}
