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

package terminal_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/terminal"
	"github.com/ZaparooProject/sam9boot/pkg/testing/helpers"
	"github.com/ZaparooProject/sam9boot/pkg/testing/mocks"
	"github.com/ZaparooProject/sam9boot/pkg/testing/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exitLine = "\n[[ exit terminal mode ]]\n"

var testOpts = terminal.Options{QuietWindow: time.Millisecond}

func newTarget() *sim.Monitor {
	mon := sim.NewMonitor()
	mon.Discard()
	return mon
}

func TestPassThrough_EscapeRestoresConsole(t *testing.T) {
	t.Parallel()

	console := helpers.NewFakeConsole("ab\x1b")
	console.EOF = false
	target := newTarget()

	err := terminal.PassThrough(context.Background(), console, target, testOpts)
	require.NoError(t, err)

	assert.Equal(t, helpers.ModeCooked, console.Mode, "console is back in its pre-raw mode")
	assert.Equal(t, 1, console.Restores)
	assert.Equal(t, "ab\x1b", string(target.Received))

	out := console.Output.String()
	assert.True(t, strings.HasPrefix(out,
		"\n[[ interactive terminal mode - <esc> or <ctrl-c> to exit ]]\n"), out)
	assert.True(t, strings.HasSuffix(out, exitLine), out)
	assert.Contains(t, out, "ab")
	assert.NotContains(t, out, "\x1b", "control keys are not echoed")

	// The banner is written before raw mode and the exit line after it.
	assert.Equal(t, helpers.ModeCooked, console.Modes[0])
	assert.Equal(t, helpers.ModeCooked, console.Modes[len(console.Modes)-1])
}

func TestPassThrough_CtrlCExits(t *testing.T) {
	t.Parallel()

	console := helpers.NewFakeConsole("x\x03y")
	console.EOF = false
	target := newTarget()

	require.NoError(t, terminal.PassThrough(context.Background(), console, target, testOpts))

	assert.Equal(t, "x\x03", string(target.Received), "keys after the exit key stay unread")
	assert.Equal(t, helpers.ModeCooked, console.Mode)
}

func TestPassThrough_EnterSendsLineTerminator(t *testing.T) {
	t.Parallel()

	console := helpers.NewFakeConsole("V\r\x1b")
	target := newTarget()

	require.NoError(t, terminal.PassThrough(context.Background(), console, target, testOpts))

	assert.Equal(t, []string{"V"}, target.Commands)
	assert.Equal(t, "V#\x1b", string(target.Received))

	out := console.Output.String()
	assert.Contains(t, out, "V#"+"\n\r"+sim.VersionString+sim.Prompt,
		"the echoed terminator is followed by the relayed reply")
}

func TestPassThrough_OnlyPrintableKeysEchoed(t *testing.T) {
	t.Parallel()

	console := helpers.NewFakeConsole("\x01a\t~\x7f\x1b")
	target := newTarget()

	require.NoError(t, terminal.PassThrough(context.Background(), console, target, testOpts))

	assert.Equal(t, "\x01a\t~\x7f\x1b", string(target.Received), "every key is forwarded")

	out := strings.TrimSuffix(console.Output.String(), exitLine)
	assert.True(t, strings.HasSuffix(out, "a~"), "%q", out)
}

func TestPassThrough_GoInjection(t *testing.T) {
	t.Parallel()

	addr := uint32(0x300000)
	console := helpers.NewFakeConsole("\r\x1b")
	target := sim.NewMonitor()

	opts := testOpts
	opts.GoAddress = &addr
	require.NoError(t, terminal.PassThrough(context.Background(), console, target, opts))

	assert.Equal(t, "#\nG300000#\x1b", string(target.Received))
	assert.Equal(t, []uint32{0x300000}, target.Jumps, "enter launches the pending go command")

	out := console.Output.String()
	assert.True(t, strings.HasPrefix(out,
		"\n[[ interactive terminal mode - <esc> or <ctrl-c> to exit, <enter> or # to GO ]]\n"+
			"G300000#"), "%q", out)
	assert.NotContains(t, out, "RomBOOT", "sync reply is discarded")
}

func TestPassThrough_ConsoleEOF(t *testing.T) {
	t.Parallel()

	console := helpers.NewFakeConsole("abc")
	target := newTarget()

	require.NoError(t, terminal.PassThrough(context.Background(), console, target, testOpts))

	assert.Equal(t, "abc", string(target.Received))
	assert.Equal(t, helpers.ModeCooked, console.Mode)
	assert.True(t, strings.HasSuffix(console.Output.String(), exitLine))
}

func TestPassThrough_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	console := helpers.NewFakeConsole("")
	console.EOF = false
	target := newTarget()

	require.NoError(t, terminal.PassThrough(ctx, console, target, testOpts))

	assert.Empty(t, target.Received)
	assert.Equal(t, helpers.ModeCooked, console.Mode)
	assert.Equal(t, 1, console.Restores)
}

func TestPassThrough_RelaysTargetOutput(t *testing.T) {
	t.Parallel()

	target := newTarget()
	console := helpers.NewFakeConsole("")
	console.EOF = false
	console.OnIdle = func(c *helpers.FakeConsole) {
		if strings.Contains(c.Output.String(), "boot done") {
			c.Type("\x1b")
		}
	}
	target.Queue("boot done\n\r")

	require.NoError(t, terminal.PassThrough(context.Background(), console, target, testOpts))

	assert.Contains(t, console.Output.String(), "boot done\n\r")
}

func TestPassThrough_TargetFailureStillRestores(t *testing.T) {
	t.Parallel()

	console := helpers.NewFakeConsole("a\x1b")
	target := newTarget()
	require.NoError(t, target.Close())

	err := terminal.PassThrough(context.Background(), console, target, testOpts)
	require.Error(t, err)

	assert.Equal(t, helpers.ModeCooked, console.Mode)
	assert.True(t, strings.HasSuffix(console.Output.String(), exitLine))
}

func TestPassThrough_MakeRawFailure(t *testing.T) {
	t.Parallel()

	console := helpers.NewFakeConsole("\x1b")
	console.MakeRawErr = terminal.ErrNotTerminal
	target := newTarget()

	err := terminal.PassThrough(context.Background(), console, target, testOpts)
	require.ErrorIs(t, err, terminal.ErrNotTerminal)

	assert.Empty(t, target.Received)
	assert.Equal(t, 0, console.Restores)
	assert.NotContains(t, console.Output.String(), exitLine)
}

type mockRestoreConsole struct {
	*helpers.FakeConsole
	restorer *mocks.MockRestorer
}

func (c *mockRestoreConsole) MakeRaw() (terminal.Restorer, error) {
	return c.restorer, nil
}

func TestPassThrough_RestoreFailure(t *testing.T) {
	t.Parallel()

	errRestore := errors.New("tcsetattr failed")
	restorer := &mocks.MockRestorer{}
	restorer.On("Restore").Return(errRestore).Once()

	console := &mockRestoreConsole{
		FakeConsole: helpers.NewFakeConsole("\x1b"),
		restorer:    restorer,
	}

	err := terminal.PassThrough(context.Background(), console, newTarget(), testOpts)
	require.ErrorIs(t, err, errRestore)

	restorer.AssertExpectations(t)
	assert.True(t, strings.HasSuffix(console.Output.String(), exitLine))
}

func TestMakeRaw_NotTerminal(t *testing.T) {
	t.Parallel()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	raw, err := terminal.MakeRaw(int(r.Fd())) //nolint:gosec // descriptor fits in int
	require.ErrorIs(t, err, terminal.ErrNotTerminal)
	assert.Nil(t, raw)
}
