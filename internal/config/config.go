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

// Package config decodes the live_restore configuration map a host storage
// engine hands to Bootstrap at mount time into a typed, validated Config.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DefaultThreadsMax is used when the caller's configuration map omits
// threads_max entirely.
const DefaultThreadsMax = 8

// MaxThreadsMax is the upper bound threads_max is validated against; it is
// advisory in the same sense WiredTiger treats it, but a value this far out
// of range is almost certainly a typo rather than intent.
const MaxThreadsMax = 255

// Config is the decoded, validated form of the configuration map C8's
// Bootstrap accepts.
type Config struct {
	// Path is the source directory being restored from. Required.
	Path string `mapstructure:"path"`

	// ThreadsMax bounds how many files the migration sweep processes
	// concurrently. Advisory only: a Migrator built from this value caps
	// the sweep's own concurrency, but nothing in this package enforces
	// it against callers driving FillHoles directly.
	ThreadsMax int `mapstructure:"threads_max"`

	Debug DebugConfig `mapstructure:"debug"`
}

// DebugConfig groups settings meant for testing and diagnosis, not for
// production tuning.
type DebugConfig struct {
	// FillHolesOnClose drains a file's remaining holes synchronously when
	// its handle is closed, instead of relying solely on the background
	// migration sweep. Useful for tests that need a deterministic,
	// fully-migrated destination without driving a Migrator.
	FillHolesOnClose bool `mapstructure:"fill_holes_on_close"`
}

// Decode turns a raw configuration map (as handed to Bootstrap) into a
// Config, applying defaults and validating the result. The "debug" block
// may be provided either as a nested map, debug.fill_holes_on_close, or as
// a single flat dotted key "debug.fill_holes_on_close" — both forms appear
// in the wild depending on whether the caller's own config string parser
// nests or flattens sub-keys, so unflatten runs before decode either way.
func Decode(raw map[string]interface{}) (*Config, error) {
	cfg := &Config{ThreadsMax: DefaultThreadsMax}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := dec.Decode(unflattenDottedKeys(raw)); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
