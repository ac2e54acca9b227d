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

//go:build !linux

package osfs

// NextDataOffset and NextHoleOffset fall back to treating every
// destination file as entirely data on platforms without SEEK_DATA/
// SEEK_HOLE. populateFromSparseMap then finds no filesystem-level holes,
// so a destination file that already exists when it is opened gets an
// empty hole list: all of its bytes are read from destination and none
// are fetched from source.
func (h *fileHandle) NextDataOffset(off int64) (int64, error) {
	size, err := h.Size()
	if err != nil {
		return -1, err
	}
	if off >= size {
		return -1, nil
	}
	return off, nil
}

func (h *fileHandle) NextHoleOffset(off int64) (int64, error) {
	return -1, nil
}
