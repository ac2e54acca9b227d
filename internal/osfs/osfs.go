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

// Package osfs is the disk-backed implementation of the overlay package's
// OSFileSystem/OSFileHandle collaborator interfaces: the single layer of
// real file-system calls both the destination and source layers are
// opened through.
package osfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/liverestorefs/overlay/internal/overlay"
)

// FS is a disk-backed overlay.OSFileSystem.
type FS struct{}

// New returns a ready-to-use FS. There is no state to initialize: every
// method operates directly on the host file system.
func New() *FS { return &FS{} }

func (FS) Open(path string, t overlay.FileType, flags overlay.OpenFlag) (overlay.OSFileHandle, error) {
	if t == overlay.FileTypeDirectory {
		if flags&overlay.FlagCreate != 0 {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, err
			}
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return &fileHandle{f: f}, nil
	}

	osFlags := os.O_RDWR
	if flags&overlay.FlagReadonly != 0 {
		osFlags = os.O_RDONLY
	}
	if flags&overlay.FlagCreate != 0 {
		osFlags |= os.O_CREATE
	}
	if flags&overlay.FlagExclusive != 0 {
		osFlags |= os.O_EXCL
	}

	if flags&overlay.FlagCreate != 0 {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, osFlags, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileHandle{f: f}, nil
}

func (FS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (FS) Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Stat exposes the full os.FileInfo for path, beyond what
// overlay.OSFileSystem itself requires. A host engine that needs mode,
// mtime or other metadata for a restored file reads it through here
// rather than through the overlay, which deliberately stays ignorant of
// anything beyond size and sparseness.
func (FS) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (fs FS) Remove(path string, flags overlay.OpenFlag) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if flags&overlay.FlagDurable != 0 {
		return syncParent(path)
	}
	return nil
}

func (fs FS) Rename(from, to string, flags overlay.OpenFlag) error {
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return err
	}
	if err := os.Rename(from, to); err != nil {
		return err
	}
	if flags&overlay.FlagDurable != 0 {
		if err := syncParent(from); err != nil {
			return err
		}
		return syncParent(to)
	}
	return nil
}

func (FS) DirectoryList(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if prefix != "" && !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (FS) Terminate() error { return nil }

// syncParent fsyncs the directory containing path, making a preceding
// unlink or rename durable. Required on Linux: the rename/unlink syscalls
// themselves are not guaranteed durable until the containing directory is
// fsynced too.
func syncParent(path string) error {
	dir, err := os.Open(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("osfs: open parent of %s: %w", path, err)
	}
	defer dir.Close()
	return dir.Sync()
}
