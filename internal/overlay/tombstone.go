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

import "fmt"

// tombstoneStore records and queries per-file deletion markers persisted
// as zero-byte files in the destination layer. Once a tombstone exists for
// a logical name, the source must never be consulted for that name again.
//
// Callers must create the tombstone after the associated destination state
// change (unlink, or either side of a rename) completes: tombstone-after
// ordering is what keeps a crashed remove retry-safe (see
// FileSystem.Remove).
type tombstoneStore struct {
	destRoot string
	os       OSFileSystem
}

func newTombstoneStore(destRoot string, os OSFileSystem) *tombstoneStore {
	return &tombstoneStore{destRoot: destRoot, os: os}
}

// exists reports whether a tombstone marker exists for name.
func (ts *tombstoneStore) exists(name string) bool {
	return ts.os.Exists(tombstonePath(name))
}

// create writes a zero-byte tombstone marker for name, optionally fsyncing
// it before closing so the marker is durable across a crash immediately
// following creation. Creation is idempotent: an existing marker is not an
// error.
func (ts *tombstoneStore) create(name string, durable bool) error {
	path := tombstonePath(name)

	fh, err := ts.os.Open(path, FileTypeRegular, FlagCreate)
	if err != nil {
		return fmt.Errorf("tombstone create %s: %w", path, err)
	}

	if durable {
		if err := fh.Sync(); err != nil {
			fh.Close()
			return fmt.Errorf("tombstone sync %s: %w", path, err)
		}
	}

	return fh.Close()
}
