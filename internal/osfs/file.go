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

package osfs

import "os"

// fileHandle is a disk-backed overlay.OSFileHandle. NextDataOffset and
// NextHoleOffset live in sparse_linux.go / sparse_other.go, since sparse
// probing is a platform-specific syscall.
type fileHandle struct {
	f *os.File
}

func (h *fileHandle) ReadAt(buf []byte, off int64) (int, error) {
	return h.f.ReadAt(buf, off)
}

func (h *fileHandle) WriteAt(buf []byte, off int64) (int, error) {
	return h.f.WriteAt(buf, off)
}

func (h *fileHandle) Truncate(size int64) error {
	return h.f.Truncate(size)
}

func (h *fileHandle) Sync() error {
	return h.f.Sync()
}

func (h *fileHandle) Size() (int64, error) {
	fi, err := h.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

func (h *fileHandle) Close() error {
	return h.f.Close()
}

func (h *fileHandle) Name() string {
	return h.f.Name()
}
