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

// Package overlay implements a live-restore overlay file system: a
// writable destination directory layered on top of a read-only source
// directory, such that callers may open, read, write, rename, and remove
// files while a background migration sweep progressively copies data from
// source into destination. Once every open file's hole list has drained,
// the destination is self-sufficient and the source may be detached.
//
// The package does not perform any I/O itself; it consumes an
// OSFileSystem (osfs.FS in the sibling internal/osfs package) for every
// operation that touches a real file system. This lets the data-plane
// logic here — hole tracking, layer resolution, the tombstone protocol —
// be exercised against an in-memory fake in tests without touching disk.
package overlay
