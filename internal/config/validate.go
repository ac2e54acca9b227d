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

package config

import "errors"

const (
	ErrPathRequired   = "live_restore: path is required"
	ErrThreadsMaxLow  = "live_restore: threads_max can't be negative"
	ErrThreadsMaxHigh = "live_restore: threads_max is too high! Max supported: 255"
)

func validate(cfg *Config) error {
	if cfg.Path == "" {
		return errors.New(ErrPathRequired)
	}
	if cfg.ThreadsMax < 0 {
		return errors.New(ErrThreadsMaxLow)
	}
	if cfg.ThreadsMax > MaxThreadsMax {
		return errors.New(ErrThreadsMaxHigh)
	}
	return nil
}
