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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liverestorefs/overlay/internal/logger"
	"github.com/liverestorefs/overlay/internal/metrics"
	"github.com/liverestorefs/overlay/internal/osfs"
	"github.com/liverestorefs/overlay/internal/overlay"
	"github.com/liverestorefs/overlay/internal/overlayclock"
)

func newBootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Validate configuration and smoke-test the source root, then exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := viper.GetString("dest")
			if dest == "" {
				return fmt.Errorf("--dest is required")
			}

			reg := prometheus.NewRegistry()
			rec := metrics.NewRecorder(reg)

			ov, err := overlay.Bootstrap(dest, liveRestoreConfigMap(), osfs.New(), rec, overlayclock.Real())
			if err != nil {
				return err
			}
			defer ov.Close()

			logger.Infof("live-restore: bootstrap OK for %s", dest)
			fmt.Printf("ok: destination=%s source=%s threads_max=%d fill_holes_on_close=%v\n",
				dest, ov.Config.Path, ov.Config.ThreadsMax, ov.Config.Debug.FillHolesOnClose)
			return nil
		},
	}
}
