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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liverestorefs/overlay/internal/logger"
	"github.com/liverestorefs/overlay/internal/overlay"
)

// newGCTombstonesCmd removes tombstone markers under dest. This is only
// safe to run once a host engine has decided source will never be
// consulted again (migration finished, or source decommissioned): a
// tombstone deleted while source is still live would make a deleted name
// reappear.
func newGCTombstonesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc-tombstones",
		Short: "Remove tombstone markers under dest. Only safe after source is fully decommissioned.",
	}
	confirmed := cmd.Flags().Bool("confirm-source-decommissioned", false, "acknowledge that source will never be read again")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !*confirmed {
			return fmt.Errorf("refusing to run without --confirm-source-decommissioned")
		}

		dest := viper.GetString("dest")
		if dest == "" {
			return fmt.Errorf("--dest is required")
		}

		n, err := gcTombstones(dest)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d tombstone marker(s) under %s\n", n, dest)
		return nil
	}
	return cmd
}

func gcTombstones(dir string) (int, error) {
	var count int
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, overlay.TombstoneSuffix) {
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Warnf("live-restore: gc-tombstones: removing %s: %v", path, rmErr)
			return nil
		}
		count++
		return nil
	})
	return count, err
}
