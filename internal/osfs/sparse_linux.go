// Copyright 2026 The Live Restore Overlay Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package osfs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// NextDataOffset implements "seek to next data": the offset of the next
// byte range containing data at or after off, or (-1, nil) if none
// remains (ENXIO from lseek means off is at or past the last data/hole
// transition).
func (h *fileHandle) NextDataOffset(off int64) (int64, error) {
	n, err := unix.Seek(int(h.f.Fd()), off, unix.SEEK_DATA)
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			return -1, nil
		}
		return -1, err
	}
	return n, nil
}

// NextHoleOffset implements "seek to next hole": the offset of the next
// sparse hole at or after off. Every file has an implicit hole starting
// at EOF, so ENXIO here should not occur in practice; it is still mapped
// to (-1, nil) defensively, matching NextDataOffset's contract.
func (h *fileHandle) NextHoleOffset(off int64) (int64, error) {
	n, err := unix.Seek(int(h.f.Fd()), off, unix.SEEK_HOLE)
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			return -1, nil
		}
		return -1, err
	}
	return n, nil
}
