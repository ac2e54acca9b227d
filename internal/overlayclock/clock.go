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

// Package overlayclock re-exports jacobsa/timeutil's Clock so the rest of
// this module never imports that package directly: the Migrator's
// sweep-duration log line takes its time from here, and a SimulatedClock
// can be substituted in tests the same way the teacher substitutes one
// for GCS bucket mtimes.
package overlayclock

import "github.com/jacobsa/timeutil"

// Clock is the time source every timestamped operation in this module
// takes as a dependency, instead of calling time.Now directly.
type Clock = timeutil.Clock

// SimulatedClock lets tests control time deterministically without
// sleeping.
type SimulatedClock = timeutil.SimulatedClock

// Real returns the process's real wall clock.
func Real() Clock { return timeutil.RealClock() }
