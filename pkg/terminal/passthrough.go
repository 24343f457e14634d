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

package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/link"
	"github.com/ZaparooProject/sam9boot/pkg/monitor"
	"github.com/rs/zerolog/log"
)

const (
	keyInterrupt = 0x03
	keyEnter     = 0x0d
	keyEscape    = 0x1b

	// lineTerminator ends a monitor command line.
	lineTerminator = '#'

	bannerFormat = "\n[[ interactive terminal mode - <esc> or <ctrl-c> to exit%s ]]\n"
	goHint       = ", <enter> or # to GO"
	exitText     = "\n[[ exit terminal mode ]]\n"
)

// Options configures a pass-through session.
type Options struct {
	// GoAddress, when set, is typed into the monitor as a pending go
	// command so that pressing Enter starts execution.
	GoAddress *uint32
	// QuietWindow bounds each poll of either endpoint.
	QuietWindow time.Duration
}

// PassThrough relays bytes between console and target until the user
// presses ESC or Ctrl-C, the console input ends or ctx is cancelled.
//
// The console is in raw mode for the whole relay and is restored on every
// return path. Console input is forwarded with Enter mapped to the monitor
// line terminator and printable characters echoed locally; target output
// is copied to the console unmodified.
func PassThrough(ctx context.Context, console Console, target link.Channel, opts Options) (err error) {
	window := opts.QuietWindow
	if window <= 0 {
		window = link.DefaultQuietWindow
	}

	hint := ""
	if opts.GoAddress != nil {
		hint = goHint
	}
	if _, err := fmt.Fprintf(console, bannerFormat, hint); err != nil {
		return fmt.Errorf("failed to write terminal banner: %w", err)
	}

	raw, err := console.MakeRaw()
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	log.Debug().Msg("console in raw mode")

	defer func() {
		if rerr := raw.Restore(); rerr != nil {
			log.Error().Err(rerr).Msg("failed to restore console mode")
			err = errors.Join(err, rerr)
		}
		_, _ = io.WriteString(console, exitText)
	}()

	if opts.GoAddress != nil {
		if err := injectGo(console, target, *opts.GoAddress, window); err != nil {
			return err
		}
	}

	return relay(ctx, console, target, window)
}

// injectGo syncs the monitor and types a go command without its terminator.
func injectGo(console io.Writer, target link.Channel, addr uint32, window time.Duration) error {
	pending := monitor.PendingGoCommand(addr)

	if _, err := io.WriteString(target, monitor.SyncCommand+"\n"); err != nil {
		return fmt.Errorf("failed to sync monitor: %w", err)
	}
	if _, err := monitor.ReadResponse(target, window, nil); err != nil {
		return err
	}

	if _, err := io.WriteString(target, pending); err != nil {
		return fmt.Errorf("failed to send go command: %w", err)
	}
	if _, err := monitor.ReadResponse(target, window, nil); err != nil {
		return err
	}

	if _, err := io.WriteString(console, pending); err != nil {
		return fmt.Errorf("failed to echo go command: %w", err)
	}

	log.Info().Msgf("go command pending for $%x", addr)
	return nil
}

func relay(ctx context.Context, console Console, target link.Channel, window time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			log.Debug().Err(err).Msg("terminal cancelled")
			return nil
		}

		key, ok, err := readKey(console, window)
		if errors.Is(err, io.EOF) {
			log.Debug().Msg("console input closed")
			return nil
		}
		if err != nil {
			return err
		}

		if ok {
			if err := forwardKey(console, target, key); err != nil {
				return err
			}
		}

		if err := copyTarget(console, target, window); err != nil {
			return err
		}

		if ok && (key == keyEscape || key == keyInterrupt) {
			return nil
		}
	}
}

func readKey(console Console, window time.Duration) (byte, bool, error) {
	key, ok, err := link.ReadReady(console, window)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, false, fmt.Errorf("failed to read console: %w", err)
	}
	return key, ok, err //nolint:wrapcheck // io.EOF is checked by the caller
}

func forwardKey(console, target io.Writer, key byte) error {
	if key == keyEnter {
		key = lineTerminator
	}

	if _, err := target.Write([]byte{key}); err != nil {
		return fmt.Errorf("failed to forward key: %w", err)
	}
	if key > 0x1f && key < 0x7f {
		if _, err := console.Write([]byte{key}); err != nil {
			return fmt.Errorf("failed to echo key: %w", err)
		}
	}
	return nil
}

// copyTarget writes every byte the target has ready to the console.
func copyTarget(console io.Writer, target link.Channel, window time.Duration) error {
	for {
		b, ok, err := link.ReadReady(target, window)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read target: %w", err)
		}
		if !ok {
			return nil
		}
		if _, err := console.Write([]byte{b}); err != nil {
			return fmt.Errorf("failed to write target output: %w", err)
		}
	}
}
