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

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ZaparooProject/sam9boot/pkg/config"
	"github.com/ZaparooProject/sam9boot/pkg/image"
	"github.com/ZaparooProject/sam9boot/pkg/link"
	"github.com/ZaparooProject/sam9boot/pkg/monitor"
	"github.com/ZaparooProject/sam9boot/pkg/testing/helpers"
	"github.com/ZaparooProject/sam9boot/pkg/testing/sim"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const testBase uint32 = 0x300000

type testEnv struct {
	mon     *sim.Monitor
	fs      *helpers.FSHelper
	console *helpers.FakeConsole
	stdout  *bytes.Buffer
	stderr  *bytes.Buffer
	deps    Deps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		mon:     sim.NewMonitor(),
		fs:      helpers.NewMemoryFS(),
		console: helpers.NewFakeConsole("\x1b"),
		stdout:  &bytes.Buffer{},
		stderr:  &bytes.Buffer{},
	}
	env.deps = Deps{
		Dial: func(path string) (link.Conn, error) {
			assert.Equal(t, config.DefaultPort, path)
			return env.mon, nil
		},
		Fs:          env.fs.Fs,
		Console:     env.console,
		Clock:       clockwork.NewFakeClock(),
		Stdout:      env.stdout,
		Stderr:      env.stderr,
		QuietWindow: 1,
	}
	return env
}

func (e *testEnv) writeFile(t *testing.T, name string, data []byte) {
	t.Helper()
	require.NoError(t, e.fs.WriteImage(name, data))
}

func newRun(modify func(r *config.Run)) config.Run {
	r := config.NewRun(config.DefaultPort)
	modify(&r)
	return r
}

func TestRun_SyncAndVersion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := Run(context.Background(), newRun(func(*config.Run) {}), env.deps)
	require.NoError(t, err)

	out := env.stdout.String()
	assert.True(t, strings.HasPrefix(out, "\n#"+sim.Banner+sim.Prompt+"V#"), out)
	assert.Contains(t, out, sim.VersionString)
	assert.True(t, strings.HasSuffix(out, "\n\n"), "part id line and close both end a line")
	assert.Equal(t, []string{"", "V"}, env.mon.Commands)
	assert.True(t, env.mon.Closed)
	assert.Empty(t, env.stderr.String())
}

func TestRun_Quiet(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := Run(context.Background(), newRun(func(r *config.Run) { r.Quiet = true }), env.deps)
	require.NoError(t, err)

	assert.Equal(t, "\n\n\n", env.stdout.String())
	assert.Equal(t, []string{""}, env.mon.Commands, "no version query when quiet")
	assert.Empty(t, env.mon.Pending(), "banner is drained without echo")
}

func TestRun_PartID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.QueryID = true
		r.Quiet = true
	}), env.deps)
	require.NoError(t, err)

	assert.Contains(t, env.stdout.String(), "wFFFFF240,4#\n\r0x019803A0"+sim.Prompt+"PartId = $019803A0\n")
}

func TestRun_PartIDUnresponsive(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.mon.Silent = true
	env.mon.Discard()

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.QueryID = true
		r.Quiet = true
		v := testBase
		r.GoAddress = &v
	}), env.deps)

	var target *monitor.TargetUnresponsiveError
	require.ErrorAs(t, err, &target)
	assert.True(t, strings.HasPrefix(env.stderr.String(), "*** Failed to query part id at $fffff240"))
	assert.Empty(t, env.mon.Jumps, "go is skipped after a failure")
}

func TestRun_Send(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	data := []byte{0x78, 0x56, 0x34, 0x12, 0xAB, 0xCD}
	env.writeFile(t, "applet.bin", data)

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "applet.bin"
		r.Send = true
		r.Quiet = true
	}), env.deps)
	require.NoError(t, err)

	out := env.stdout.String()
	assert.Contains(t, out, "Loaded file 'applet.bin' (6 bytes) from disk.\n")
	assert.Contains(t, out, "Uploaded file 'applet.bin' (6 bytes) to memory at $300000.    \n")
	assert.Equal(t, data, env.mon.Read(testBase, len(data)))
	assert.Equal(t, []string{"", "W300000,12345678", "O300004,AB", "O300005,CD"}, env.mon.Commands)
}

func TestRun_SendCountLimitsFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeFile(t, "applet.bin", bytes.Repeat([]byte{0x5A}, 64))

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "applet.bin"
		r.Send = true
		r.Count = 8
		r.Quiet = true
	}), env.deps)
	require.NoError(t, err)

	assert.Equal(t, 2, env.mon.CountCommands("W"))
	assert.Contains(t, env.stdout.String(), "Loaded file 'applet.bin' (8 bytes) from disk.\n")
}

func TestRun_SendVerifyGo(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	data := bytes.Repeat([]byte("sam9boot"), 64)
	env.writeFile(t, "applet.bin", data)

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "applet.bin"
		r.Send = true
		r.Verify = true
		r.Quiet = true
		v := testBase
		r.GoAddress = &v
	}), env.deps)
	require.NoError(t, err)

	out := env.stdout.String()
	assert.Contains(t, out, "Uploading file 'applet.bin' (256 bytes) to memory at $300000...\r")
	assert.Contains(t, out, "Downloading memory from $300000 (256 bytes)...\r")
	assert.Contains(t, out, "Downloaded memory from $300000 (512 bytes).\n")
	assert.Contains(t, out, "Verified memory at $300000 (512 bytes).\n")
	assert.Contains(t, out, "G300000#\n"+sim.Prompt)
	assert.Equal(t, []uint32{testBase}, env.mon.Jumps)
}

func TestRun_SendVerify4096(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}
	env.writeFile(t, "applet.bin", data)

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "applet.bin"
		r.Send = true
		r.Verify = true
		r.Quiet = true
	}), env.deps)
	require.NoError(t, err)

	assert.Equal(t, 1024, env.mon.CountCommands("W"))
	assert.Equal(t, 1024, env.mon.CountCommands("w"))
	assert.Equal(t, 0, env.mon.CountCommands("O")+env.mon.CountCommands("o"))
	assert.Contains(t, env.stdout.String(), "Verified memory at $300000 (4096 bytes).\n")
}

func TestRun_VerifyMismatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	data := []byte("0123456789ABCDEF")
	env.writeFile(t, "applet.bin", data)
	target := bytes.Clone(data)
	target[3] = 'x'
	env.mon.Load(testBase, target)

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "applet.bin"
		r.Verify = true
		r.Quiet = true
		v := testBase
		r.GoAddress = &v
	}), env.deps)

	var mismatch *image.VerifyMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Offset)
	assert.Equal(t, "*** Verify memory at $300000 (16 bytes) error at offset 3!\n", env.stderr.String())
	assert.NotContains(t, env.stdout.String(), "Verified")
	assert.Empty(t, env.mon.Jumps)
}

func TestRun_ReceiveAndDump(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	data := []byte("RomBOOT dump\x00\x01\x02\x03AB")
	env.mon.Load(testBase, data)

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "dump.bin"
		r.Receive = true
		r.Dump = true
		r.Count = len(data)
		r.Quiet = true
	}), env.deps)
	require.NoError(t, err)

	saved, err := env.fs.ReadImage("dump.bin")
	require.NoError(t, err)
	assert.Equal(t, data, saved)

	out := env.stdout.String()
	assert.Contains(t, out, "Wrote 18 bytes to file 'dump.bin'.\n")
	assert.Contains(t, out, "\n$300000  52 6f 6d 42 4f 4f 54 20 64 75 6d 70 00 01 02 03  RomBOOT dump....\n")
	assert.Contains(t, out, "$300010  41 42")
}

func TestRun_DownloadUnresponsive(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.mon.Load(testBase, bytes.Repeat([]byte{1}, 1000))
	// sync, then 25 word reads
	env.mon.RespondTo = 26

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "dump.bin"
		r.Receive = true
		r.Count = 1000
		r.Quiet = true
	}), env.deps)

	var target *monitor.TargetUnresponsiveError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 100, target.Collected)
	assert.Equal(t,
		"*** Failed to download memory from $300000 (100 bytes, 1000 expected, target unresponsive at $300064)!\n",
		env.stderr.String())

	assert.False(t, env.fs.FileExists("dump.bin"), "nothing is written after a failed download")
}

func TestRun_LoadFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.File = "missing.bin"
		r.Send = true
		r.Quiet = true
	}), env.deps)

	var fileErr *image.FileError
	require.ErrorAs(t, err, &fileErr)
	assert.True(t, strings.HasPrefix(env.stderr.String(), "*** Failed to load file 'missing.bin'"))
	assert.Equal(t, 0, env.mon.CountCommands("W"))
}

func TestRun_Interactive(t *testing.T) {
	t.Parallel()

	t.Run("after success", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		err := Run(context.Background(), newRun(func(r *config.Run) {
			r.Interactive = true
			r.Quiet = true
			v := testBase
			r.GoAddress = &v
		}), env.deps)
		require.NoError(t, err)

		assert.Contains(t, env.console.Output.String(), "<enter> or # to GO")
		assert.Contains(t, env.console.Output.String(), "[[ exit terminal mode ]]")
		assert.Equal(t, helpers.ModeCooked, env.console.Mode)
		assert.Empty(t, env.mon.Jumps, "go waits for enter in the terminal")
	})

	t.Run("after failure", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(t)
		err := Run(context.Background(), newRun(func(r *config.Run) {
			r.File = "missing.bin"
			r.Verify = true
			r.Interactive = true
			r.Quiet = true
		}), env.deps)

		var fileErr *image.FileError
		require.ErrorAs(t, err, &fileErr)
		assert.Contains(t, env.console.Output.String(), "[[ exit terminal mode ]]")
		assert.Equal(t, 1, env.console.Restores)
	})

	t.Run("raw mode failure", func(t *testing.T) {
		t.Parallel()

		errNoTTY := errors.New("not a tty")
		env := newTestEnv(t)
		env.console.MakeRawErr = errNoTTY

		err := Run(context.Background(), newRun(func(r *config.Run) {
			r.Interactive = true
			r.Quiet = true
		}), env.deps)

		require.ErrorIs(t, err, errNoTTY)
		assert.Contains(t, env.stderr.String(), "*** Failed to enter raw mode")
	})
}

func TestRun_Trace(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.mon.Load(testBase, []byte{1, 2, 3, 4})

	err := Run(context.Background(), newRun(func(r *config.Run) {
		r.Dump = true
		r.Count = 4
		r.Trace = true
		r.Quiet = true
	}), env.deps)
	require.NoError(t, err)

	assert.Contains(t, env.stdout.String(), "w300000,4#\n\r0x04030201"+sim.Prompt)
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.writeFile(t, "applet.bin", []byte{1, 2, 3, 4})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, newRun(func(r *config.Run) {
		r.File = "applet.bin"
		r.Send = true
		r.Quiet = true
	}), env.deps)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, env.mon.CountCommands("W"))
	assert.True(t, env.mon.Closed)
}

func TestRun_DialFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.deps.Dial = func(path string) (link.Conn, error) {
		return nil, &link.OpenError{Path: path, Err: io.ErrUnexpectedEOF}
	}

	err := Run(context.Background(), newRun(func(*config.Run) {}), env.deps)

	var openErr *link.OpenError
	require.ErrorAs(t, err, &openErr)
	assert.Equal(t, "*** Unable to open device '/dev/ttyUSB0' for i/o: unexpected EOF!\n", env.stderr.String())
	assert.Empty(t, env.mon.Received)
}

// TestPropertySendReceiveRoundTrip verifies a file sent to the target and
// received back is unchanged.
func TestPropertySendReceiveRoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 1, 300).Draw(t, "data")
		addr := rapid.Uint32Range(0x200000, 0x400000).Draw(t, "addr")

		mon := sim.NewMonitor()
		fs := afero.NewMemMapFs()
		if err := afero.WriteFile(fs, "applet.bin", data, 0o644); err != nil {
			t.Fatal(err)
		}
		deps := Deps{
			Dial: func(string) (link.Conn, error) {
				mon.Closed = false
				return mon, nil
			},
			Fs:          fs,
			Clock:       clockwork.NewFakeClock(),
			QuietWindow: 1,
		}

		send := config.NewRun(config.DefaultPort)
		send.StartAddress = addr
		send.File = "applet.bin"
		send.Send = true
		send.Verify = true
		send.Quiet = true
		if err := Run(context.Background(), send, deps); err != nil {
			t.Fatalf("send: %v", err)
		}

		recv := config.NewRun(config.DefaultPort)
		recv.StartAddress = addr
		recv.File = "back.bin"
		recv.Receive = true
		recv.Count = len(data)
		recv.Quiet = true
		if err := Run(context.Background(), recv, deps); err != nil {
			t.Fatalf("receive: %v", err)
		}

		back, err := afero.ReadFile(fs, "back.bin")
		if err != nil || !bytes.Equal(back, data) {
			t.Fatalf("round trip mismatch at $%x: %v", addr, err)
		}
	})
}

func TestPrintError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	PrintError(&out, errors.New("unable to open device '/dev/ttyUSB0' for i/o"))
	PrintError(&out, nil)
	PrintError(&out, errors.New(""))

	assert.Equal(t, "*** Unable to open device '/dev/ttyUSB0' for i/o!\n*** !\n", out.String())
}

func TestPrintExit(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	PrintExit(&out, nil)
	PrintExit(&out, errors.New("boom"))

	assert.Equal(t, "Exit code 0 - success.\n\n*** Exit code 1 - failure!\n\n", out.String())
}
