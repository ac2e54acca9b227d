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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jacobsa/syncutil"
)

// FileHandle binds one logical name to a destination OS handle and,
// optionally, a source OS handle. It owns the hole list tracking which
// byte ranges of the destination are not yet authoritative.
//
// Not safe for concurrent access without Mu held — but unlike the
// teacher's FileInode, callers never need to take Mu themselves: every
// exported method here takes it internally, because the migration sweep
// (C7) and foreground engine I/O genuinely do run concurrently against
// the same handle (spec §5).
type FileHandle struct {
	// Mu guards everything below. Construction wires it to checkInvariants
	// the same way fs/inode.FileInode wires its own syncutil.InvariantMutex,
	// so any caller that (mis)manages to call Lock from two goroutines and
	// panics mid-critical-section surfaces a clear invariant violation
	// instead of silent corruption.
	Mu syncutil.InvariantMutex

	name     string
	fileType FileType

	// GUARDED_BY(Mu)
	dest OSFileHandle
	// GUARDED_BY(Mu); nil iff this file is not source-backed.
	src OSFileHandle
	// GUARDED_BY(Mu)
	holes holeList
	// GUARDED_BY(Mu); true iff no source backing or a tombstone was
	// present at open. Fixed for the lifetime of the handle.
	complete bool

	fillHolesOnClose bool
	metrics          metricsSink
}

// newFileHandle wires up a handle whose hole list is already populated
// (open() is responsible for that, since it alone knows whether the file
// was freshly created and needs extending to source size first).
func newFileHandle(name string, fileType FileType, dest, src OSFileHandle, complete bool, fillHolesOnClose bool, metrics metricsSink) *FileHandle {
	h := &FileHandle{
		name:             name,
		fileType:         fileType,
		dest:             dest,
		src:              src,
		complete:         complete,
		fillHolesOnClose: fillHolesOnClose,
		metrics:          metrics,
	}
	h.Mu = syncutil.NewInvariantMutex(h.checkInvariants)
	return h
}

func (h *FileHandle) checkInvariants() {
	if (h.src == nil) && !h.complete && !h.holes.isEmpty() {
		panic("overlay: handle has holes but no source and is not marked complete")
	}
	h.holes.checkInvariants()
}

// Name returns the logical name this handle was opened with.
func (h *FileHandle) Name() string { return h.name }

// Complete reports whether this handle's destination contents are already
// self-sufficient (no source backing, or a tombstone suppressed it).
func (h *FileHandle) Complete() bool {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return h.complete
}

// ReadAt implements the read half of the state machine in spec §4.5: a
// read that falls entirely within a hole is served from source and
// promoted (written through to destination); any other read is served
// directly from destination. A read that partially overlaps a hole is a
// caller-side programming error and panics rather than returning an
// error, matching the "fatal assertion" the spec calls for.
func (h *FileHandle) ReadAt(buf []byte, off int64) (int, error) {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	if h.complete || h.src == nil {
		return destRead(h.dest, buf, off, h.name)
	}

	canService, err := h.holes.canServiceRead(h.name, off, int64(len(buf)))
	if err != nil {
		// Partial overlap: fatal assertion, per spec.
		panic(err)
	}
	if canService {
		return destRead(h.dest, buf, off, h.name)
	}

	// Entirely inside a hole: serve from source, then promote.
	n, err := h.src.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: read %s from source: %v", ErrIO, h.name, err)
	}
	if n == 0 {
		return n, err
	}

	if _, werr := h.dest.WriteAt(buf[:n], off); werr != nil {
		return n, fmt.Errorf("%w: promote write %s: %v", ErrIO, h.name, werr)
	}
	// No dest.Sync() here, unlike WriteAt below: an unsynced promotion that
	// is lost to a crash is self-healing, because open() rebuilds the hole
	// list from the destination's sparse-file map (populateFromSparseMap)
	// rather than trusting this in-memory holeList across a restart. A
	// crash between this write and the fsync just leaves the range looking
	// like a hole again on reopen, which is the same state as if the
	// promotion had never happened — no data is reported present that
	// isn't, so §5's durability requirement for ordinary writes doesn't
	// apply here.
	if serr := h.holes.subtractRange(off, int64(n)); serr != nil {
		return n, serr
	}
	if h.metrics != nil {
		h.metrics.BytesPromoted(int64(n))
	}

	return n, err
}

func destRead(dest OSFileHandle, buf []byte, off int64, name string) (int, error) {
	n, err := dest.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: read %s from destination: %v", ErrIO, name, err)
	}
	return n, err
}

// WriteAt writes to destination, fsyncs it, then subtracts the written
// range from the hole list. The fsync is mandatory, not an optimization:
// once the hole is removed, the written bytes must already be durable, or
// a crash between the write and the fsync would leave the hole list
// believing data exists that never reached stable storage (spec §5).
func (h *FileHandle) WriteAt(buf []byte, off int64) (int, error) {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	n, err := h.dest.WriteAt(buf, off)
	if err != nil {
		return n, fmt.Errorf("%w: write %s: %v", ErrIO, h.name, err)
	}

	if err := h.dest.Sync(); err != nil {
		return n, fmt.Errorf("%w: fsync %s: %v", ErrIO, h.name, err)
	}

	if n > 0 {
		if err := h.holes.subtractRange(off, int64(n)); err != nil {
			return n, err
		}
	}

	return n, nil
}

// Truncate is a no-op if newLen equals the current size. Otherwise it
// subtracts [min(old,new), max(old,new)) from the hole list — both a
// shrink and an extension retire that range from "needs source", since
// either the bytes are gone or they are newly zero-filled — then forwards
// to destination.
func (h *FileHandle) Truncate(newLen int64) error {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	curLen, err := h.dest.Size()
	if err != nil {
		return fmt.Errorf("%w: size %s: %v", ErrIO, h.name, err)
	}
	if newLen == curLen {
		return nil
	}

	lo, hi := curLen, newLen
	if lo > hi {
		lo, hi = hi, lo
	}
	if err := h.holes.subtractRange(lo, hi-lo); err != nil {
		return err
	}

	if err := h.dest.Truncate(newLen); err != nil {
		return fmt.Errorf("%w: truncate %s: %v", ErrIO, h.name, err)
	}
	return nil
}

// Size returns the destination size. Source size is irrelevant after open.
func (h *FileHandle) Size() (int64, error) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	n, err := h.dest.Size()
	if err != nil {
		return 0, fmt.Errorf("%w: size %s: %v", ErrIO, h.name, err)
	}
	return n, nil
}

// Sync forwards to destination only.
func (h *FileHandle) Sync() error {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if err := h.dest.Sync(); err != nil {
		return fmt.Errorf("%w: sync %s: %v", ErrIO, h.name, err)
	}
	return nil
}

// Lock forwards to destination only.
func (h *FileHandle) Lock(exclusive bool) error {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if err := h.dest.Lock(exclusive); err != nil {
		return fmt.Errorf("%w: lock %s: %v", ErrIO, h.name, err)
	}
	return nil
}

// Close optionally drains the hole list (if debug.fill_holes_on_close is
// set), then releases both OS handles and frees the hole list.
func (h *FileHandle) Close() error {
	if h.fillHolesOnClose {
		if err := FillHoles(context.Background(), h); err != nil {
			// Closing must still proceed; a failed best-effort drain on
			// close is not a reason to leak file descriptors.
			_ = err
		}
	}

	h.Mu.Lock()
	defer h.Mu.Unlock()

	var errs []error
	if err := h.dest.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close destination %s: %v", ErrIO, h.name, err))
	}
	h.holes.head = nil

	if h.src != nil {
		if err := h.src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%w: close source %s: %v", ErrIO, h.name, err))
		}
		h.src = nil
	}

	return errors.Join(errs...)
}

// peekHoleHead exposes the migration sweep's view of the hole list (C7
// iterate-for-migration) without exposing the hole list type itself.
func (h *FileHandle) peekHoleHead() (off, length int64, ok bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if h.complete {
		return 0, 0, false
	}
	return h.holes.peekHead()
}

// metricsSink is the minimal surface the overlay package needs from
// internal/metrics, kept here (rather than importing that package
// directly) to avoid the core data-plane depending on Prometheus types.
type metricsSink interface {
	BytesPromoted(n int64)
	TombstoneCreated()
	SetHolesRemaining(n int)
	MigrationStarted()
	MigrationFinished()
}
