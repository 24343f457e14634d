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

package image

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Load reads count bytes of the file at path into an image at address. A
// count of zero loads the whole file. Files shorter than count fail with a
// read error rather than being padded.
func Load(fs afero.Fs, path string, address uint32, count int) (*Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &FileError{Op: "load", Path: path, Bytes: count, Reason: "open error", Err: err}
	}
	defer func(f afero.File) {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Str("path", path).Msg("failed to close image file")
		}
	}(f)

	info, err := f.Stat()
	if err != nil {
		return nil, &FileError{Op: "load", Path: path, Bytes: count, Reason: "stat error", Err: err}
	}

	size := int(info.Size())
	if size == 0 {
		return nil, &FileError{Op: "load", Path: path, Reason: "zero length"}
	}
	if count == 0 {
		count = size
	}

	img := New(address, count)
	if _, err := io.ReadFull(f, img.Data); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			err = fmt.Errorf("file holds %d bytes: %w", size, err)
		}
		return nil, &FileError{Op: "load", Path: path, Bytes: count, Reason: "read error", Err: err}
	}

	log.Debug().Str("path", path).Int("bytes", count).Msg("loaded image file")

	return img, nil
}

// Save writes the image contents to path, replacing any existing file.
func Save(fs afero.Fs, path string, img *Image) error {
	if err := afero.WriteFile(fs, path, img.Data, 0o644); err != nil {
		return &FileError{Op: "write", Path: path, Bytes: img.Len(), Reason: "write error", Err: err}
	}

	log.Debug().Str("path", path).Int("bytes", img.Len()).Msg("saved image file")

	return nil
}
