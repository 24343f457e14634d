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

// Package image holds memory images moved between the host and a target
// device: loading and saving them as flat files, comparing them and
// rendering them as a hex dump.
package image

import (
	"errors"
	"fmt"
)

// ErrNothingToVerify is returned when asked to verify an empty range.
var ErrNothingToVerify = errors.New("nothing to verify (zero bytes)")

// Image is a contiguous range of target memory starting at Address.
type Image struct {
	Data    []byte
	Address uint32
}

// New returns a zeroed image of count bytes at address.
func New(address uint32, count int) *Image {
	return &Image{
		Address: address,
		Data:    make([]byte, count),
	}
}

// Len returns the image size in bytes.
func (img *Image) Len() int {
	if img == nil {
		return 0
	}
	return len(img.Data)
}

// End returns the first address past the image.
func (img *Image) End() uint32 {
	return img.Address + uint32(img.Len()) //nolint:gosec // image sizes are bounded by the 32-bit address space
}

// FileError reports a failed load or save of an image file.
type FileError struct {
	Err    error
	Path   string
	Op     string
	Reason string
	Bytes  int
}

func (e *FileError) Error() string {
	return fmt.Sprintf("failed to %s file '%s' (%d bytes, %s)", e.Op, e.Path, e.Bytes, e.Reason)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// VerifyMismatchError reports the first offset at which two images differ.
type VerifyMismatchError struct {
	Offset   int
	Length   int
	Expected byte
	Actual   byte
}

func (e *VerifyMismatchError) Error() string {
	return fmt.Sprintf("verify error at offset %d of %d bytes (expected $%02x, found $%02x)",
		e.Offset, e.Length, e.Expected, e.Actual)
}
