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

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liverestorefs/overlay/internal/logger"
	"github.com/liverestorefs/overlay/internal/metrics"
	"github.com/liverestorefs/overlay/internal/osfs"
	"github.com/liverestorefs/overlay/internal/overlay"
	"github.com/liverestorefs/overlay/internal/overlayclock"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run one migration sweep over every file currently visible under dest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := viper.GetString("dest")
			if dest == "" {
				return fmt.Errorf("--dest is required")
			}

			fsImpl := osfs.New()
			reg := prometheus.NewRegistry()
			rec := metrics.NewRecorder(reg)

			ov, err := overlay.Bootstrap(dest, liveRestoreConfigMap(), fsImpl, rec, overlayclock.Real())
			if err != nil {
				return err
			}
			defer ov.Close()

			names, err := collectFiles(ov.FS, fsImpl, dest)
			if err != nil {
				return err
			}

			handles := make([]*overlay.FileHandle, 0, len(names))
			for _, name := range names {
				// Opened read-write, not FlagReadonly: migration promotes
				// bytes from source by writing them through to
				// destination, which a read-only destination handle
				// would reject.
				h, err := ov.FS.Open(name, overlay.FileTypeData, 0)
				if err != nil {
					logger.Warnf("live-restore: skipping %s: %v", name, err)
					continue
				}
				handles = append(handles, h)
			}

			err = ov.Migrator.MigrateAll(context.Background(), handles)

			for _, h := range handles {
				if cerr := h.Close(); cerr != nil {
					logger.Warnf("live-restore: closing %s: %v", h.Name(), cerr)
				}
			}

			if err != nil {
				return err
			}
			fmt.Printf("migrated %d file(s) under %s\n", len(handles), dest)
			return nil
		},
	}
}

// collectFiles walks dir (logical, destRoot-relative) through the overlay's
// own directory listing, descending recursively, using fsImpl.Stat on the
// destination side to tell files from subdirectories.
func collectFiles(ov *overlay.FileSystem, fsImpl *osfs.FS, dir string) ([]string, error) {
	entries, err := ov.DirectoryList(dir, "", false)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		full := filepath.Join(dir, e)
		fi, err := fsImpl.Stat(full)
		if err != nil {
			// Source-only entry with no destination presence yet; treat
			// as a file, since only regular files are ever opened lazily.
			files = append(files, full)
			continue
		}
		if fi.IsDir() {
			sub, err := collectFiles(ov, fsImpl, full)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
			continue
		}
		files = append(files, full)
	}
	return files, nil
}
