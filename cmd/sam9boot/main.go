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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/sam9boot/internal/telemetry"
	"github.com/ZaparooProject/sam9boot/pkg/cli"
	"github.com/ZaparooProject/sam9boot/pkg/config"
	"github.com/ZaparooProject/sam9boot/pkg/helpers"
	"github.com/ZaparooProject/sam9boot/pkg/link"
	"github.com/ZaparooProject/sam9boot/pkg/service"
	"github.com/ZaparooProject/sam9boot/pkg/terminal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) (code int) {
	_, _ = io.WriteString(os.Stdout, cli.Banner())

	var logWriters []io.Writer
	debug := len(args) > 1 && cli.DebugRequested(args[1:])
	if debug {
		logWriters = []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	}

	cfg, err := cli.Setup(config.BaseDefaults, logWriters)
	if err != nil {
		return fail(err)
	}
	if debug {
		helpers.SetLogLevel(true)
	}
	defer telemetry.Close()

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			log.Error().Msgf("panic: %v", r)
			code = 1
		}
	}()

	if len(args) < 2 {
		cli.Help(os.Stdout, args[0], cfg.Port())
		service.PrintExit(os.Stdout, nil)
		return 0
	}

	runCfg, _, err := cli.Parse(args[1:], config.NewRun(cfg.Port()))
	if err != nil {
		return fail(err)
	}

	mode, err := cfg.SerialMode()
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	log.Info().
		Str("port", runCfg.Port).
		Str("file", runCfg.File).
		Msgf("starting sam9boot %s", config.AppVersion)

	err = service.Run(ctx, runCfg, service.Deps{
		Dial: func(path string) (link.Conn, error) {
			ch, err := link.OpenSerial(path, mode, link.DefaultSerialPortFactory)
			if err != nil {
				return nil, err
			}
			return ch, nil
		},
		Fs:          afero.NewOsFs(),
		Console:     terminal.NewStdConsole(),
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		QuietWindow: cfg.QuietWindow(),
	})
	service.PrintExit(os.Stdout, err)
	if err != nil {
		return 1
	}
	return 0
}

func fail(err error) int {
	log.Error().Err(err).Msg("sam9boot failed")
	service.PrintError(os.Stderr, err)
	service.PrintExit(os.Stdout, err)
	return 1
}
