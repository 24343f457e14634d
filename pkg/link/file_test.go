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

//go:build unix

package link_test

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeChannel(t *testing.T) (*link.FileChannel, *os.File, *bytes.Buffer) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	var out bytes.Buffer
	return link.NewFileChannel(r, &out), w, &out
}

func TestFileChannel_Poll(t *testing.T) {
	t.Parallel()

	ch, w, _ := newPipeChannel(t)

	ready, err := ch.Poll(time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ready, "empty pipe is not ready")

	_, err = w.Write([]byte("ab"))
	require.NoError(t, err)

	var got []byte
	for {
		b, ok, err := link.ReadReady(ch, 10*time.Millisecond)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, b)
	}
	assert.Equal(t, []byte("ab"), got)
}

func TestFileChannel_EOF(t *testing.T) {
	t.Parallel()

	ch, w, _ := newPipeChannel(t)
	require.NoError(t, w.Close())

	ready, err := ch.Poll(10 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ready, "hang up reports ready")

	_, err = ch.ReadByte()
	require.ErrorIs(t, err, io.EOF)
}

func TestFileChannel_Write(t *testing.T) {
	t.Parallel()

	ch, _, out := newPipeChannel(t)

	n, err := ch.Write([]byte("[[ exit terminal mode ]]"))
	require.NoError(t, err)
	assert.Equal(t, 24, n)
	assert.Equal(t, "[[ exit terminal mode ]]", out.String())
	assert.Positive(t, ch.Fd())
}
