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

	"golang.org/x/sync/semaphore"

	"github.com/liverestorefs/overlay/internal/logger"
	"github.com/liverestorefs/overlay/internal/overlayclock"
)

// migrationChunkSize bounds how much of a hole is read (and therefore
// promoted) per iteration of the migration sweep.
const migrationChunkSize = 4 * 1024

// FillHoles iterates fh's hole list to completion, promoting remaining
// source bytes into the destination one chunk at a time. It is the "C7
// migration sweep": each iteration reads through FileHandle.ReadAt, which
// itself calls subtractRange, so the head of the list is guaranteed to
// either shrink or be removed on every pass — the loop terminates in
// finitely many steps by the same argument that bounds the hole list's
// size.
//
// FillHoles checks ctx before every chunk and returns ErrShuttingDown
// (wrapped with ctx's error) the moment it is canceled, matching the
// spec's requirement that the sweep observe a process-wide shutdown
// signal before each chunk and abort if set.
func FillHoles(ctx context.Context, fh *FileHandle) error {
	buf := make([]byte, migrationChunkSize)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrShuttingDown, ctx.Err())
		default:
		}

		off, length, ok := fh.peekHoleHead()
		if !ok {
			return nil
		}
		if length > migrationChunkSize {
			length = migrationChunkSize
		}

		if _, err := fh.ReadAt(buf[:length], off); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("overlay: migration sweep on %s: %w", fh.Name(), err)
		}
	}
}

// Migrator runs FillHoles concurrently across many open handles, bounded
// by a weighted semaphore sized from the live_restore.threads_max
// configuration key. This is a convenience the host engine may use in
// place of rolling its own worker pool; it is not a replacement for the
// scheduler the spec treats as an external collaborator, since nothing
// here decides *when* a file should be migrated, only how many sweeps run
// at once when asked.
type Migrator struct {
	sem     *semaphore.Weighted
	clock   overlayclock.Clock
	metrics metricsSink
}

// NewMigrator builds a Migrator that runs at most threadsMax sweeps
// concurrently. threadsMax <= 0 is treated as 1. clock paces the sweep's
// start/finish log lines; a nil clock defaults to the real wall clock.
// metrics may be nil, in which case the migrations-in-flight and
// holes-remaining gauges are simply not updated.
func NewMigrator(threadsMax int, clock overlayclock.Clock, metrics metricsSink) *Migrator {
	if threadsMax <= 0 {
		threadsMax = 1
	}
	if clock == nil {
		clock = overlayclock.Real()
	}
	return &Migrator{sem: semaphore.NewWeighted(int64(threadsMax)), clock: clock, metrics: metrics}
}

// MigrateAll runs FillHoles for every handle in handles, honoring the
// Migrator's concurrency cap and ctx cancellation. Once all sweeps have
// returned, every sweep's error is joined (errors.Join) and returned; an
// error in one sweep does not prevent the others from running to completion.
func (m *Migrator) MigrateAll(ctx context.Context, handles []*FileHandle) error {
	start := m.clock.Now()
	logger.Infof("live-restore: migration sweep starting over %d handles", len(handles))
	m.reportHolesRemaining(handles)

	errs := make([]error, len(handles))

	done := make(chan struct{}, len(handles))
	for i, fh := range handles {
		i, fh := i, fh
		if err := m.sem.Acquire(ctx, 1); err != nil {
			errs[i] = fmt.Errorf("%w: acquiring migration slot: %v", ErrShuttingDown, err)
			done <- struct{}{}
			continue
		}
		go func() {
			defer m.sem.Release(1)
			defer func() { done <- struct{}{} }()
			if m.metrics != nil {
				m.metrics.MigrationStarted()
				defer m.metrics.MigrationFinished()
			}
			errs[i] = FillHoles(ctx, fh)
		}()
	}

	for range handles {
		<-done
	}

	m.reportHolesRemaining(handles)

	err := errors.Join(errs...)
	logger.Infof("live-restore: migration sweep over %d handles finished in %s", len(handles), m.clock.Now().Sub(start))
	return err
}

// reportHolesRemaining updates the holes-remaining gauge to the number of
// handles that still have at least one un-migrated hole. Called before and
// after a sweep so the gauge reflects both the starting backlog and however
// much of it the sweep drained.
func (m *Migrator) reportHolesRemaining(handles []*FileHandle) {
	if m.metrics == nil {
		return
	}
	remaining := 0
	for _, fh := range handles {
		if _, _, ok := fh.peekHoleHead(); ok {
			remaining++
		}
	}
	m.metrics.SetHolesRemaining(remaining)
}
