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
	"errors"
	"fmt"
	"syscall"
)

// Error kinds recognized by the overlay. Most alias kernel errno values the
// way github.com/jacobsa/fuse's errors.go aliases ENOENT/EIO/ENOSYS, so
// callers can test with errors.Is against the same constants the standard
// library's os package already uses.
var (
	// ErrNotFound is returned when a logical name has no backing in either
	// layer, or when rename's "from" name cannot be resolved.
	ErrNotFound = syscall.ENOENT

	// ErrInvalidArgument is returned when a logical name is not rooted in
	// the destination, or when open's post-condition on the hole list
	// (last hole must end at or before source size) fails.
	ErrInvalidArgument = syscall.EINVAL

	// ErrIO wraps failures propagated from the underlying OS file system.
	ErrIO = syscall.EIO

	// ErrCorruption indicates the hole list violated its own invariants
	// (overlapping or out-of-bound holes). This should never happen short
	// of a bug in this package; it is not a recoverable condition.
	ErrCorruption = errors.New("overlay: hole list invariant violated")

	// ErrShuttingDown is returned by the migration sweep when it observes
	// a process-wide shutdown signal mid-sweep.
	ErrShuttingDown = errors.New("overlay: shutting down")
)

// partialHoleOverlap is raised via panic, not returned, because a read whose
// range partially overlaps a hole is a caller-side programming error per
// spec: "must be rejected with a fatal assertion."
type partialHoleOverlap struct {
	name             string
	readOff, readEnd int64
	holeOff, holeEnd int64
}

func (e *partialHoleOverlap) Error() string {
	return fmt.Sprintf(
		"overlay: read [%d,%d) on %s partially overlaps hole [%d,%d)",
		e.readOff, e.readEnd, e.name, e.holeOff, e.holeEnd)
}
