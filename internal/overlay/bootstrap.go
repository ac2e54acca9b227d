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

	"github.com/liverestorefs/overlay/internal/config"
	"github.com/liverestorefs/overlay/internal/logger"
	"github.com/liverestorefs/overlay/internal/overlayclock"
)

// Overlay is the fully wired result of Bootstrap: a ready-to-use
// FileSystem plus the Migrator a host engine drives to make restore
// progress independent of foreground I/O.
type Overlay struct {
	FS       *FileSystem
	Config   *config.Config
	Migrator *Migrator
}

// Bootstrap is the "C8 bootstrap/lifecycle" entry point: it decodes and
// validates the configuration map, constructs the layered FileSystem, and
// smoke-tests that the source root is actually reachable before handing
// back a live Overlay. destRoot is the writable root every logical name is
// rooted at; osFS is the single-layer collaborator both destination and
// source are opened through (see internal/osfs for the disk-backed one).
//
// A metricsSink may be nil; a nil clock defaults to the real wall clock.
func Bootstrap(destRoot string, raw map[string]interface{}, osFS OSFileSystem, metrics metricsSink, clock overlayclock.Clock) (*Overlay, error) {
	cfg, err := config.Decode(raw)
	if err != nil {
		return nil, err
	}

	source := Layer{Tag: Source, Home: cfg.Path}

	// Smoke test: the source root must already exist and be openable as a
	// directory before this overlay is considered live. A source path
	// that is missing or unreadable at mount time is a configuration
	// error, not something the overlay itself can recover from.
	srcRootHandle, err := osFS.Open(cfg.Path, FileTypeDirectory, FlagReadonly)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open source root %s: %w", cfg.Path, err)
	}
	if err := srcRootHandle.Close(); err != nil {
		return nil, fmt.Errorf("bootstrap: close source root %s: %w", cfg.Path, err)
	}

	fs := newFileSystem(destRoot, source, osFS, cfg.Debug.FillHolesOnClose, metrics)
	migrator := NewMigrator(cfg.ThreadsMax, clock, metrics)

	logger.Infof("live-restore: bootstrapped destination=%s source=%s threads_max=%d",
		destRoot, cfg.Path, cfg.ThreadsMax)

	return &Overlay{FS: fs, Config: cfg, Migrator: migrator}, nil
}

// Close tears down the Overlay's FileSystem. It does not close any
// FileHandle the caller still has open; those must be closed first.
func (o *Overlay) Close() error {
	return o.FS.Terminate()
}
