// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package telemetry provides opt-in Prometheus instrumentation for the
// checker. It is safe to use disabled: a nil *Telemetry (returned by New
// when Config.Enabled is false) satisfies search.Metrics as a no-op by
// virtue of every method checking for nil before touching a collector.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lincheck/internal/search"
)

// Config controls whether telemetry is collected and, optionally, where it
// is served from.
type Config struct {
	Enabled bool
	// MetricsAddr, when non-empty, starts a dedicated HTTP server exposing
	// /metrics. Leave empty if metrics are scraped some other way.
	MetricsAddr string
}

// Telemetry is the checker's Prometheus instrumentation. It implements
// search.Metrics so it can be handed straight to search.RunOptions.
type Telemetry struct {
	possibilitiesExpanded prometheus.Counter
	seenSetSize           prometheus.Gauge
	keySearchDuration     prometheus.Histogram
	verdictsTotal         *prometheus.CounterVec
	registry              *prometheus.Registry
}

var _ search.Metrics = (*Telemetry)(nil)

// New builds a Telemetry instance. When cfg.Enabled is false, New returns
// nil: every method on a nil *Telemetry receiver is a no-op, so callers can
// pass the result straight through without a branch.
func New(cfg Config) *Telemetry {
	if !cfg.Enabled {
		return nil
	}

	reg := prometheus.NewRegistry()
	t := &Telemetry{
		possibilitiesExpanded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lincheck_possibilities_expanded_total",
			Help: "Total number of search possibilities popped and expanded across all keys.",
		}),
		seenSetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lincheck_seen_set_size",
			Help: "Size of the most recently completed key's deduplication set.",
		}),
		keySearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lincheck_key_search_duration_seconds",
			Help:    "Wall-clock time spent searching a single key's sub-timeline.",
			Buckets: prometheus.DefBuckets,
		}),
		verdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lincheck_key_verdicts_total",
			Help: "Count of per-key verdicts, labeled by outcome.",
		}, []string{"verdict"}),
		registry: reg,
	}
	reg.MustRegister(t.possibilitiesExpanded, t.seenSetSize, t.keySearchDuration, t.verdictsTotal)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			_ = server.ListenAndServe()
		}()
	}

	return t
}

// ObserveExpanded implements search.Metrics.
func (t *Telemetry) ObserveExpanded(n int) {
	if t == nil {
		return
	}
	t.possibilitiesExpanded.Add(float64(n))
}

// ObserveSeenSetSize implements search.Metrics.
func (t *Telemetry) ObserveSeenSetSize(n int) {
	if t == nil {
		return
	}
	t.seenSetSize.Set(float64(n))
}

// ObserveKeyDuration records how long one key's search took.
func (t *Telemetry) ObserveKeyDuration(d time.Duration) {
	if t == nil {
		return
	}
	t.keySearchDuration.Observe(d.Seconds())
}

// ObserveVerdict records one key's final verdict.
func (t *Telemetry) ObserveVerdict(v search.Verdict) {
	if t == nil {
		return
	}
	t.verdictsTotal.WithLabelValues(v.String()).Inc()
}
