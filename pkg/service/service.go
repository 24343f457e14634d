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

// Package service runs one sam9boot invocation against a RomBOOT monitor:
// it opens the link, runs the requested steps in order and hands over to
// the interactive terminal or starts the loaded program.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/config"
	"github.com/ZaparooProject/sam9boot/pkg/image"
	"github.com/ZaparooProject/sam9boot/pkg/link"
	"github.com/ZaparooProject/sam9boot/pkg/monitor"
	"github.com/ZaparooProject/sam9boot/pkg/terminal"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Dialer opens the link to the monitor at path.
type Dialer func(path string) (link.Conn, error)

// Deps are the collaborators of a run.
type Deps struct {
	Dial    Dialer
	Fs      afero.Fs
	Console terminal.Console
	Clock   clockwork.Clock
	Stdout  io.Writer
	Stderr  io.Writer
	// QuietWindow overrides the reply quiet window when positive.
	QuietWindow time.Duration
}

type runner struct {
	conn    link.Conn
	session *monitor.Session
	deps    Deps
	file    *image.Image
	memory  *image.Image
	run     config.Run
}

type step struct {
	enabled func(r *config.Run) bool
	do      func(ctx context.Context) error
	name    string
}

func always(*config.Run) bool { return true }

// Run executes run and returns the first step failure. Failures are
// printed to Stderr as they happen; the caller prints the exit line.
//
//nolint:gocritic // run config copied for immutability
func Run(ctx context.Context, run config.Run, deps Deps) error {
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Stdout == nil {
		deps.Stdout = io.Discard
	}
	if deps.Stderr == nil {
		deps.Stderr = io.Discard
	}
	if deps.Console == nil && run.Interactive {
		deps.Console = terminal.NewStdConsole()
	}

	began := deps.Clock.Now()
	_, _ = io.WriteString(deps.Stdout, "\n")

	conn, err := deps.Dial(run.Port)
	if err != nil {
		log.Error().Err(err).Str("port", run.Port).Msg("failed to open monitor link")
		PrintError(deps.Stderr, err)
		return err
	}

	r := &runner{
		conn: conn,
		deps: deps,
		run:  run,
	}
	r.session = r.newSession()

	err = r.execute(ctx)

	if closeErr := conn.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("failed to close monitor link")
	}
	_, _ = io.WriteString(deps.Stdout, "\n")

	log.Info().
		Dur("elapsed", deps.Clock.Since(began)).
		Bool("success", err == nil).
		Msg("run finished")

	return err
}

func (r *runner) newSession() *monitor.Session {
	progress := &progressPrinter{w: r.deps.Stdout, file: r.run.File}
	opts := []monitor.Option{
		monitor.WithQuietWindow(r.deps.QuietWindow),
		monitor.WithClock(r.deps.Clock),
		monitor.WithEcho(r.deps.Stdout),
		monitor.WithProgress(progress.report),
	}
	if r.run.Trace {
		opts = append(opts, monitor.WithTrace(r.deps.Stdout))
	}
	return monitor.NewSession(r.conn, opts...)
}

func (r *runner) steps() []step {
	return []step{
		{name: "sync", enabled: always, do: r.sync},
		{name: "part id", enabled: always, do: r.partID},
		{name: "load", enabled: func(c *config.Run) bool { return c.Send || c.Verify }, do: r.load},
		{name: "upload", enabled: func(c *config.Run) bool { return c.Send }, do: r.upload},
		{name: "download", enabled: (*config.Run).NeedsDownload, do: r.download},
		{name: "verify", enabled: func(c *config.Run) bool { return c.Verify }, do: r.verify},
		{name: "receive", enabled: func(c *config.Run) bool { return c.Receive }, do: r.receive},
		{name: "dump", enabled: func(c *config.Run) bool { return c.Dump }, do: r.dump},
	}
}

func (r *runner) execute(ctx context.Context) error {
	var failed error
	for _, st := range r.steps() {
		if !st.enabled(&r.run) {
			continue
		}
		log.Debug().Str("step", st.name).Msg("running step")
		if err := st.do(ctx); err != nil {
			log.Error().Err(err).
				Str("step", st.name).
				Bool("unresponsive", isUnresponsive(err)).
				Msg("step failed")
			PrintError(r.deps.Stderr, err)
			failed = err
			break
		}
	}

	// The terminal is offered even after a failure so the target can be
	// inspected by hand.
	if r.run.Interactive {
		err := terminal.PassThrough(ctx, r.deps.Console, r.conn, terminal.Options{
			GoAddress:   r.run.GoAddress,
			QuietWindow: r.session.QuietWindow(),
		})
		if err != nil {
			log.Error().Err(err).Msg("terminal failed")
			PrintError(r.deps.Stderr, err)
			return errors.Join(failed, err)
		}
		return failed
	}

	if failed == nil && r.run.GoAddress != nil {
		if err := r.session.Go(*r.run.GoAddress); err != nil {
			PrintError(r.deps.Stderr, err)
			return err
		}
	}

	return failed
}

func (r *runner) sync(context.Context) error {
	if r.run.Quiet {
		if _, err := r.session.Exchange(monitor.SyncCommand, nil); err != nil {
			return err
		}
		return nil
	}

	if _, err := r.session.Sync(); err != nil {
		return err
	}
	if _, err := r.session.Version(); err != nil {
		return err
	}
	return nil
}

// partID queries the chip id when asked, then drains the line and ends it
// either way.
func (r *runner) partID(context.Context) error {
	var queryErr error
	if r.run.QueryID {
		id, err := r.session.PartID()
		if err != nil {
			queryErr = err
			_, _ = io.WriteString(r.deps.Stdout, "\n")
		} else {
			_, _ = fmt.Fprintf(r.deps.Stdout, "PartId = $%08X\n", id)
		}
	}

	if _, err := r.session.Drain(); err != nil {
		return errors.Join(queryErr, err)
	}
	_, _ = io.WriteString(r.deps.Stdout, "\n")

	return queryErr
}

func (r *runner) load(context.Context) error {
	img, err := image.Load(r.deps.Fs, r.run.File, r.run.StartAddress, r.run.Count)
	if err != nil {
		return err
	}
	r.file = img
	_, _ = fmt.Fprintf(r.deps.Stdout, "Loaded file '%s' (%d bytes) from disk.\n", r.run.File, img.Len())
	return nil
}

// count is the number of bytes the transfer steps move: the loaded file
// size when a file was loaded, otherwise the configured count.
func (r *runner) count() int {
	if r.file != nil {
		return r.file.Len()
	}
	return r.run.Count
}

func (r *runner) upload(ctx context.Context) error {
	sent, err := r.session.Upload(ctx, r.file)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(r.deps.Stdout, "Uploaded file '%s' (%d bytes) to memory at $%x.    \n",
		r.run.File, sent, r.file.Address)
	return nil
}

func (r *runner) download(ctx context.Context) error {
	img, err := r.session.Download(ctx, r.run.StartAddress, r.count())
	if err != nil {
		return err
	}
	r.memory = img
	_, _ = fmt.Fprintf(r.deps.Stdout, "Downloaded memory from $%x (%d bytes).\n", img.Address, img.Len())
	return nil
}

func (r *runner) verify(context.Context) error {
	err := image.Verify(r.file.Data, r.memory.Data)
	var mismatch *image.VerifyMismatchError
	if errors.As(err, &mismatch) {
		return &stepError{
			err: err,
			msg: fmt.Sprintf("verify memory at $%x (%d bytes) error at offset %d",
				r.memory.Address, r.memory.Len(), mismatch.Offset),
		}
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(r.deps.Stdout, "Verified memory at $%x (%d bytes).\n", r.memory.Address, r.memory.Len())
	return nil
}

func (r *runner) receive(context.Context) error {
	if err := image.Save(r.deps.Fs, r.run.File, r.memory); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(r.deps.Stdout, "Wrote %d bytes to file '%s'.\n", r.memory.Len(), r.run.File)
	return nil
}

func (r *runner) dump(context.Context) error {
	_, _ = io.WriteString(r.deps.Stdout, "\n")
	return image.Dump(r.deps.Stdout, r.memory)
}
