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
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ZaparooProject/sam9boot/pkg/image"
	"github.com/rs/zerolog/log"
)

const progressInterval = 256

// Direction names the way data moves in a transfer.
type Direction string

const (
	DirectionDownload Direction = "download"
	DirectionUpload   Direction = "upload"
)

// Progress describes how far a transfer has come.
type Progress struct {
	Direction Direction
	Start     uint32
	Address   uint32
	Done      int
	Total     int
	Elapsed   time.Duration
}

// ProgressCallback is called during transfers to report progress.
// Implementations should return quickly; they run inside the transfer loop.
type ProgressCallback func(Progress)

// cursor walks a transfer range. Words are moved while at least 4 bytes
// remain, then single bytes; the width never grows back.
type cursor struct {
	start     uint32
	address   uint32
	total     int
	remaining int
	width     int
}

func newCursor(start uint32, count int) cursor {
	width := ByteWidth
	if count > 3 {
		width = WordWidth
	}
	return cursor{
		start:     start,
		address:   start,
		total:     count,
		remaining: count,
		width:     width,
	}
}

// done is always address - start.
func (c *cursor) done() int {
	return c.total - c.remaining
}

func (c *cursor) advance() {
	c.address += uint32(c.width) //nolint:gosec // width is 1 or 4
	c.remaining -= c.width
	if c.remaining < WordWidth {
		c.width = ByteWidth
	}
}

// Download reads count bytes of target memory starting at start. A command
// that draws no reply within the quiet window aborts the transfer with a
// *TargetUnresponsiveError carrying the progress made so far.
func (s *Session) Download(ctx context.Context, start uint32, count int) (*image.Image, error) {
	if count <= 0 {
		return nil, ErrZeroCount
	}

	img := image.New(start, count)
	cur := newCursor(start, count)
	began := s.config.Clock.Now()

	log.Debug().Msgf("downloading %d bytes from $%x", count, start)

	for cur.remaining > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("download cancelled at $%x: %w", cur.address, err)
		}

		done := cur.done()
		resp, err := s.Exchange(readCommand(cur.width, cur.address), s.config.Trace)
		if err != nil {
			return nil, fmt.Errorf("download failed at $%x: %w", cur.address, err)
		}
		if resp.BytesRead() == 0 {
			return nil, &TargetUnresponsiveError{
				Op:        "download memory from",
				Start:     start,
				Address:   cur.address,
				Collected: done,
				Expected:  count,
			}
		}

		if cur.width == WordWidth {
			binary.LittleEndian.PutUint32(img.Data[done:], resp.Value)
		} else {
			img.Data[done] = byte(resp.Value)
		}

		if done%progressInterval == 0 {
			s.reportProgress(DirectionDownload, &cur, began)
		}
		cur.advance()
	}

	if collected := cur.done(); collected != count {
		return nil, &TransferShortfallError{
			Op:          "download memory from",
			Start:       start,
			Transferred: collected,
			Expected:    count,
		}
	}

	return img, nil
}

// Upload writes img to target memory at img.Address and returns the number
// of bytes sent. Replies are drained but not checked.
func (s *Session) Upload(ctx context.Context, img *image.Image) (int, error) {
	count := img.Len()
	if count == 0 {
		return 0, ErrZeroCount
	}

	cur := newCursor(img.Address, count)
	began := s.config.Clock.Now()

	log.Debug().Msgf("uploading %d bytes to $%x", count, img.Address)

	for cur.remaining > 0 {
		if err := ctx.Err(); err != nil {
			return cur.done(), fmt.Errorf("upload cancelled at $%x: %w", cur.address, err)
		}

		done := cur.done()
		value := uint32(img.Data[done])
		if cur.width == WordWidth {
			value = binary.LittleEndian.Uint32(img.Data[done:])
		}

		if _, err := s.Exchange(writeCommand(cur.width, cur.address, value), s.config.Trace); err != nil {
			return done, fmt.Errorf("upload failed at $%x: %w", cur.address, err)
		}

		cur.advance()
		if cur.done()%progressInterval == 0 {
			s.reportProgress(DirectionUpload, &cur, began)
		}
	}

	sent := cur.done()
	if sent != count {
		return sent, &TransferShortfallError{
			Op:          "upload memory to",
			Start:       img.Address,
			Transferred: sent,
			Expected:    count,
		}
	}

	return sent, nil
}

func (s *Session) reportProgress(dir Direction, cur *cursor, began time.Time) {
	if s.config.Progress == nil {
		return
	}
	s.config.Progress(Progress{
		Direction: dir,
		Start:     cur.start,
		Address:   cur.address,
		Done:      cur.done(),
		Total:     cur.total,
		Elapsed:   s.config.Clock.Since(began),
	})
}
