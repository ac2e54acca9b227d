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

// Package metrics exposes Prometheus instrumentation for the live-restore
// overlay: bytes promoted from source, tombstones created, and migration
// sweeps in flight. None of this is read by the overlay itself; it exists
// purely so a host process can scrape /metrics and watch a restore
// converge.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder implements the small metricsSink interface the overlay package
// defines for itself: bytes promoted, tombstone creation, and the
// migration sweep's holes-remaining and in-flight hooks.
type Recorder struct {
	bytesPromoted      prometheus.Counter
	tombstonesCreated  prometheus.Counter
	holesRemaining     prometheus.Gauge
	migrationsInFlight prometheus.Gauge
}

// NewRecorder constructs a Recorder and registers its collectors with reg.
// Passing prometheus.NewRegistry() (rather than the global DefaultRegisterer)
// keeps tests free of global state.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		bytesPromoted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "live_restore",
			Name:      "bytes_promoted_total",
			Help:      "Total bytes copied from source into destination by reads and the migration sweep.",
		}),
		tombstonesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "live_restore",
			Name:      "tombstones_created_total",
			Help:      "Total tombstone markers created by remove and rename.",
		}),
		holesRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "live_restore",
			Name:      "holes_remaining",
			Help:      "Number of open file handles that still have at least one un-migrated hole.",
		}),
		migrationsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "live_restore",
			Name:      "migrations_in_flight",
			Help:      "Number of file handles currently being drained by the migration sweep.",
		}),
	}

	reg.MustRegister(r.bytesPromoted, r.tombstonesCreated, r.holesRemaining, r.migrationsInFlight)
	return r
}

// BytesPromoted implements the overlay package's metricsSink interface.
func (r *Recorder) BytesPromoted(n int64) {
	r.bytesPromoted.Add(float64(n))
}

func (r *Recorder) TombstoneCreated() {
	r.tombstonesCreated.Inc()
}

func (r *Recorder) SetHolesRemaining(n int) {
	r.holesRemaining.Set(float64(n))
}

func (r *Recorder) MigrationStarted() {
	r.migrationsInFlight.Inc()
}

func (r *Recorder) MigrationFinished() {
	r.migrationsInFlight.Dec()
}
