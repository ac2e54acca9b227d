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
	"fmt"
	"path/filepath"
	"strings"
)

// FileSystem is the overlay's public surface: every logical-name operation
// a host storage engine needs, backed by the destination/source layers and
// the tombstone store. It holds no open-file state of its own — that lives
// in the FileHandle objects Open returns.
type FileSystem struct {
	destRoot string
	source   Layer
	os       OSFileSystem

	tombstones *tombstoneStore
	resolver   *layerResolver

	fillHolesOnClose bool
	metrics          metricsSink
}

// newFileSystem wires the four collaborators (path mapper, tombstone store,
// layer resolver, OS file system) into one FileSystem. Unexported: external
// callers go through Bootstrap, which also validates configuration.
func newFileSystem(destRoot string, source Layer, os OSFileSystem, fillHolesOnClose bool, metrics metricsSink) *FileSystem {
	return &FileSystem{
		destRoot:         destRoot,
		source:           source,
		os:               os,
		tombstones:       newTombstoneStore(destRoot, os),
		resolver:         newLayerResolver(destRoot, source, os),
		fillHolesOnClose: fillHolesOnClose,
		metrics:          metrics,
	}
}

// Open resolves name against both layers and returns a ready-to-use handle.
//
// The destination is always opened (created if absent). If a tombstone
// exists for name, or source has no entry for it, the handle is marked
// complete and carries no source backing. Otherwise source is opened
// read-only and the hole list is seeded one of two ways: a destination file
// that did not exist before this call is extended to source's size with a
// direct truncate (bypassing hole-list bookkeeping) and seeded with a
// single whole-file hole; one that already existed has its hole list
// rebuilt from the destination's own sparse-file map.
func (fs *FileSystem) Open(name string, fileType FileType, flags OpenFlag) (*FileHandle, error) {
	destPath, err := backingPath(Layer{Tag: Destination, Home: fs.destRoot}, fs.destRoot, name)
	if err != nil {
		return nil, err
	}

	alreadyExisted := fs.os.Exists(destPath)

	dest, err := fs.os.Open(destPath, fileType, flags|FlagCreate)
	if err != nil {
		return nil, fmt.Errorf("%w: open destination %s: %v", ErrIO, name, err)
	}

	if fs.tombstones.exists(name) {
		return newFileHandle(name, fileType, dest, nil, true, fs.fillHolesOnClose, fs.metrics), nil
	}

	srcPath, err := backingPath(fs.source, fs.destRoot, name)
	if err != nil {
		dest.Close()
		return nil, err
	}

	if !fs.os.Exists(srcPath) {
		return newFileHandle(name, fileType, dest, nil, true, fs.fillHolesOnClose, fs.metrics), nil
	}

	srcFlags := (flags &^ FlagCreate) | FlagReadonly
	src, err := fs.os.Open(srcPath, fileType, srcFlags)
	if err != nil {
		dest.Close()
		return nil, fmt.Errorf("%w: open source %s: %v", ErrIO, name, err)
	}

	srcSize, err := src.Size()
	if err != nil {
		dest.Close()
		src.Close()
		return nil, fmt.Errorf("%w: size source %s: %v", ErrIO, name, err)
	}

	h := newFileHandle(name, fileType, dest, src, false, fs.fillHolesOnClose, fs.metrics)

	if !alreadyExisted {
		if err := dest.Truncate(srcSize); err != nil {
			dest.Close()
			src.Close()
			return nil, fmt.Errorf("%w: extend destination %s: %v", ErrIO, name, err)
		}
		h.holes.initializeWhole(srcSize)
	} else {
		destSize, err := dest.Size()
		if err != nil {
			dest.Close()
			src.Close()
			return nil, fmt.Errorf("%w: size destination %s: %v", ErrIO, name, err)
		}
		if err := h.holes.populateFromSparseMap(dest, destSize); err != nil {
			dest.Close()
			src.Close()
			return nil, err
		}
	}

	// Invariant 5: the last hole must not reach past source's EOF. Ending
	// exactly at srcSize is the ordinary whole-file case, not a violation.
	if end, ok := h.holes.lastEnd(); ok && end > srcSize {
		dest.Close()
		src.Close()
		return nil, fmt.Errorf("%w: hole list for %s extends past source EOF (end=%d source_size=%d)",
			ErrInvalidArgument, name, end, srcSize)
	}

	return h, nil
}

// Exist reports whether name is present in either layer. A name present
// only in source is reported absent once a tombstone hides it, the same
// way Open refuses to consult source for a tombstoned name.
func (fs *FileSystem) Exist(name string) (bool, error) {
	tag, exists, err := fs.resolver.findLayer(name)
	if err != nil || !exists {
		return exists, err
	}
	if tag == Source && fs.tombstones.exists(name) {
		return false, nil
	}
	return true, nil
}

// Remove deletes name. A name present in neither layer succeeds silently.
// A destination-resident file is deleted outright; in all cases a
// tombstone is created last, after any destination deletion has completed,
// so a crash between the two leaves the retry idempotent on the next call.
func (fs *FileSystem) Remove(name string, flags OpenFlag) error {
	tag, exists, err := fs.resolver.findLayer(name)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if tag == Destination {
		destPath, err := backingPath(Layer{Tag: Destination, Home: fs.destRoot}, fs.destRoot, name)
		if err != nil {
			return err
		}
		if err := fs.os.Remove(destPath, flags); err != nil {
			return fmt.Errorf("%w: remove %s: %v", ErrIO, name, err)
		}
	}

	if err := fs.tombstones.create(name, flags.has(FlagDurable)); err != nil {
		return err
	}
	if fs.metrics != nil {
		fs.metrics.TombstoneCreated()
	}
	return nil
}

// Rename moves from to to. from must resolve in one of the two layers;
// only a destination-resident from is actually moved on disk, since a
// source file can never be mutated in place. Tombstones for both from and
// to are created last, after the on-disk rename (if any) has completed.
//
// Rename is not atomic with tombstone creation: a crash between the
// destination rename and the tombstone writes can leave a source file
// still visible at from. This mirrors a documented limitation rather than
// a bug (see SPEC_FULL's Open Question on rename durability): fixing it
// would require a write-ahead log this package does not keep.
func (fs *FileSystem) Rename(from, to string, flags OpenFlag) error {
	tag, exists, err := fs.resolver.findLayer(from)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: rename: %s not found", ErrNotFound, from)
	}

	if tag == Destination {
		fromPath, err := backingPath(Layer{Tag: Destination, Home: fs.destRoot}, fs.destRoot, from)
		if err != nil {
			return err
		}
		toPath, err := backingPath(Layer{Tag: Destination, Home: fs.destRoot}, fs.destRoot, to)
		if err != nil {
			return err
		}
		if err := fs.os.Rename(fromPath, toPath, flags); err != nil {
			return fmt.Errorf("%w: rename %s -> %s: %v", ErrIO, from, to, err)
		}
	}

	if err := fs.tombstones.create(from, flags.has(FlagDurable)); err != nil {
		return err
	}
	if err := fs.tombstones.create(to, flags.has(FlagDurable)); err != nil {
		return err
	}
	if fs.metrics != nil {
		fs.metrics.TombstoneCreated()
		fs.metrics.TombstoneCreated()
	}
	return nil
}

// Size returns the destination size of name. name must have a destination
// presence; a source-only name (never opened, never promoted) has no
// destination size to report.
func (fs *FileSystem) Size(name string) (int64, error) {
	tag, exists, err := fs.resolver.findLayer(name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if tag != Destination {
		return 0, fmt.Errorf("%w: %s has no destination presence", ErrInvalidArgument, name)
	}

	destPath, err := backingPath(Layer{Tag: Destination, Home: fs.destRoot}, fs.destRoot, name)
	if err != nil {
		return 0, err
	}
	n, err := fs.os.Size(destPath)
	if err != nil {
		return 0, fmt.Errorf("%w: size %s: %v", ErrIO, name, err)
	}
	return n, nil
}

// DirectoryList returns the union of dir's entries across both layers:
// every destination entry not itself a tombstone marker, plus every source
// entry whose logical name has neither a destination file nor a tombstone
// shadowing it. If single is set, it returns as soon as one entry is
// found, for callers that only need to know the directory is non-empty.
func (fs *FileSystem) DirectoryList(dir, prefix string, single bool) ([]string, error) {
	destDir, err := backingPath(Layer{Tag: Destination, Home: fs.destRoot}, fs.destRoot, dir)
	if err != nil {
		return nil, err
	}
	destEntries, err := fs.os.DirectoryList(destDir, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list destination %s: %v", ErrIO, dir, err)
	}

	seen := make(map[string]bool, len(destEntries))
	var result []string
	for _, e := range destEntries {
		if strings.HasSuffix(e, TombstoneSuffix) {
			continue
		}
		seen[e] = true
		result = append(result, e)
		if single {
			return result, nil
		}
	}

	srcDir, err := backingPath(fs.source, fs.destRoot, dir)
	if err != nil {
		return nil, err
	}
	srcEntries, err := fs.os.DirectoryList(srcDir, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list source %s: %v", ErrIO, dir, err)
	}

	for _, e := range srcEntries {
		if seen[e] {
			continue
		}
		if fs.tombstones.exists(filepath.Join(dir, e)) {
			continue
		}
		result = append(result, e)
		if single {
			return result, nil
		}
	}

	return result, nil
}

// Terminate releases resources held by the underlying OS file system
// object. It does not close any outstanding FileHandle; callers are
// responsible for closing every handle they opened first.
func (fs *FileSystem) Terminate() error {
	return fs.os.Terminate()
}
