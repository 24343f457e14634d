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

// Verify compares the expected file contents against memory read back from
// the target and returns a *VerifyMismatchError for the first differing
// byte. When the lengths differ the first offset past the shorter slice is
// reported.
func Verify(expected, actual []byte) error {
	length := max(len(expected), len(actual))
	if length == 0 {
		return ErrNothingToVerify
	}

	for i := range length {
		if i >= len(expected) || i >= len(actual) {
			mismatch := &VerifyMismatchError{Offset: i, Length: length}
			if i < len(expected) {
				mismatch.Expected = expected[i]
			}
			if i < len(actual) {
				mismatch.Actual = actual[i]
			}
			return mismatch
		}
		if expected[i] != actual[i] {
			return &VerifyMismatchError{
				Offset:   i,
				Length:   length,
				Expected: expected[i],
				Actual:   actual[i],
			}
		}
	}

	return nil
}
