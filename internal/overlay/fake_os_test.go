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

package overlay

import (
	"io"
	"sort"
	"strings"
	"sync"
)

// fakeOS is an in-memory OSFileSystem, standing in for the real disk the
// way the teacher's fake GCS bucket stands in for a real bucket in tests.
// It does not simulate sparseness: every fakeOSFile reports itself as
// entirely data, so tests that need hole-list behavior seed holes
// directly rather than relying on populateFromSparseMap.
type fakeOS struct {
	mu    sync.Mutex
	files map[string]*fakeOSFile
}

func newFakeOS() *fakeOS {
	return &fakeOS{files: make(map[string]*fakeOSFile)}
}

type fakeOSFile struct {
	mu   sync.Mutex
	data []byte
}

func (fs *fakeOS) Open(path string, t FileType, flags OpenFlag) (OSFileHandle, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, ok := fs.files[path]
	if !ok {
		if flags&FlagCreate == 0 {
			return nil, ErrNotFound
		}
		f = &fakeOSFile{}
		fs.files[path] = f
	}
	return &fakeOSHandle{name: path, file: f}, nil
}

func (fs *fakeOS) Exists(path string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.files[path]
	return ok
}

func (fs *fakeOS) Size(path string) (int64, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[path]
	if !ok {
		return 0, ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.data)), nil
}

func (fs *fakeOS) Remove(path string, flags OpenFlag) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, path)
	return nil
}

func (fs *fakeOS) Rename(from, to string, flags OpenFlag) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[from]
	if !ok {
		return ErrNotFound
	}
	fs.files[to] = f
	delete(fs.files, from)
	return nil
}

func (fs *fakeOS) DirectoryList(dir, prefix string) ([]string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	seen := make(map[string]bool)
	var names []string
	dirWithSlash := dir
	if !strings.HasSuffix(dirWithSlash, "/") {
		dirWithSlash += "/"
	}
	for path := range fs.files {
		if !strings.HasPrefix(path, dirWithSlash) {
			continue
		}
		rest := strings.TrimPrefix(path, dirWithSlash)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			rest = rest[:idx]
		}
		if rest == "" || seen[rest] {
			continue
		}
		if prefix != "" && !strings.HasPrefix(rest, prefix) {
			continue
		}
		seen[rest] = true
		names = append(names, rest)
	}
	sort.Strings(names)
	return names, nil
}

func (fs *fakeOS) Terminate() error { return nil }

type fakeOSHandle struct {
	name string
	file *fakeOSFile
}

func (h *fakeOSHandle) ReadAt(buf []byte, off int64) (int, error) {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()

	if off >= int64(len(h.file.data)) {
		return 0, io.EOF
	}
	n := copy(buf, h.file.data[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (h *fakeOSHandle) WriteAt(buf []byte, off int64) (int, error) {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()

	end := off + int64(len(buf))
	if end > int64(len(h.file.data)) {
		grown := make([]byte, end)
		copy(grown, h.file.data)
		h.file.data = grown
	}
	copy(h.file.data[off:end], buf)
	return len(buf), nil
}

func (h *fakeOSHandle) Truncate(size int64) error {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()

	if size <= int64(len(h.file.data)) {
		h.file.data = h.file.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, h.file.data)
	h.file.data = grown
	return nil
}

func (h *fakeOSHandle) Sync() error { return nil }

func (h *fakeOSHandle) Size() (int64, error) {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()
	return int64(len(h.file.data)), nil
}

func (h *fakeOSHandle) Lock(exclusive bool) error { return nil }

func (h *fakeOSHandle) Close() error { return nil }

func (h *fakeOSHandle) Name() string { return h.name }

func (h *fakeOSHandle) NextDataOffset(off int64) (int64, error) {
	h.file.mu.Lock()
	defer h.file.mu.Unlock()
	if off >= int64(len(h.file.data)) {
		return -1, nil
	}
	return off, nil
}

func (h *fakeOSHandle) NextHoleOffset(off int64) (int64, error) {
	return -1, nil
}
