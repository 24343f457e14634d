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
	"io"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/link"
	"github.com/jonboulle/clockwork"
)

// Config holds the session configuration.
type Config struct {
	// Clock timestamps progress reports.
	Clock clockwork.Clock

	// Echo receives command text and replies of the interactive exchanges
	// (sync, version, part id). Nil keeps them quiet.
	Echo io.Writer

	// Trace receives command text and replies of every transfer command.
	// Nil disables tracing.
	Trace io.Writer

	// Progress is called every 256 transferred bytes (optional).
	Progress ProgressCallback

	// QuietWindow is how long a reply may stay silent before it is
	// considered complete.
	QuietWindow time.Duration
}

func defaultConfig() Config {
	return Config{
		Clock:       clockwork.NewRealClock(),
		QuietWindow: link.DefaultQuietWindow,
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// WithQuietWindow sets the reply quiet window. Non-positive values are
// ignored.
func WithQuietWindow(window time.Duration) Option {
	return func(c *Config) {
		if window > 0 {
			c.QuietWindow = window
		}
	}
}

// WithEcho sets the writer for interactive exchange output.
func WithEcho(w io.Writer) Option {
	return func(c *Config) {
		c.Echo = w
	}
}

// WithTrace sets the writer for per-command transfer traces.
func WithTrace(w io.Writer) Option {
	return func(c *Config) {
		c.Trace = w
	}
}

// WithProgress sets a callback to track transfer progress.
//
// Example:
//
//	s := monitor.NewSession(conn,
//	    monitor.WithProgress(func(p monitor.Progress) {
//	        fmt.Printf("%s %d/%d\r", p.Direction, p.Done, p.Total)
//	    }),
//	)
func WithProgress(callback ProgressCallback) Option {
	return func(c *Config) {
		c.Progress = callback
	}
}

// WithClock sets the clock used for elapsed time in progress reports.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}
