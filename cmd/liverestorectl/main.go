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

// Command liverestorectl is a small host-engine stand-in: it exercises the
// live-restore overlay the way a real storage engine would, without
// requiring one. It is useful for smoke-testing a destination/source pair
// and for driving a one-shot migration sweep from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "liverestorectl",
		Short: "Operate a live-restore overlay destination/source pair from the command line.",
	}

	bindPersistentFlags(root.PersistentFlags())
	viper.SetEnvPrefix("live_restore")
	viper.AutomaticEnv()

	root.AddCommand(newBootstrapCmd(), newMigrateCmd(), newGCTombstonesCmd())
	return root
}

// bindPersistentFlags declares the flags every subcommand shares and binds
// each to its viper key. The normalization hook installed here leaves flag
// names unchanged; the "fill-holes-on-close" -> "debug.fill_holes_on_close"
// and hyphen/underscore renames are made by the explicit BindPFlag calls
// below.
func bindPersistentFlags(flags *pflag.FlagSet) {
	flags.SetNormalizeFunc(func(fs *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(name)
	})

	flags.String("dest", "", "destination (writable) root directory")
	flags.String("source", "", "source (read-only) root directory")
	flags.Int("threads-max", 0, "advisory cap on concurrent migration sweeps (0 = package default)")
	flags.Bool("fill-holes-on-close", false, "drain a file's remaining holes synchronously on close")

	viper.BindPFlag("dest", flags.Lookup("dest"))
	viper.BindPFlag("source", flags.Lookup("source"))
	viper.BindPFlag("threads_max", flags.Lookup("threads-max"))
	viper.BindPFlag("debug.fill_holes_on_close", flags.Lookup("fill-holes-on-close"))
}

func liveRestoreConfigMap() map[string]interface{} {
	m := map[string]interface{}{
		"path": viper.GetString("source"),
		"debug": map[string]interface{}{
			"fill_holes_on_close": viper.GetBool("debug.fill_holes_on_close"),
		},
	}
	// threads_max 0 is left out so config.Decode applies DefaultThreadsMax.
	if n := viper.GetInt("threads_max"); n != 0 {
		m["threads_max"] = n
	}
	return m
}
