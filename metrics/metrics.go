// Copyright 2025 Poiesic Systems
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

// Package metrics exposes Prometheus instrumentation for searches, degraded
// upstream calls and the vector index.
package metrics

import (
	"net/http"
	"time"

	"github.com/poiesic/kbsearch/core"
	"github.com/poiesic/kbsearch/index"
	"github.com/poiesic/kbsearch/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kbsearch"

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry          *prometheus.Registry
	searchesTotal     *prometheus.CounterVec
	searchDuration    *prometheus.HistogramVec
	searchResults     prometheus.Histogram
	degradedTotal     *prometheus.CounterVec
	answerFallbacks   prometheus.Counter
	searchLogFailures prometheus.Counter
}

var _ search.SearchMonitor = (*Metrics)(nil)

// New creates the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Total number of searches by ranking mode",
			},
			[]string{"mode"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Duration of searches in seconds by ranking mode",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"mode"},
		),
		searchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_results",
				Help:      "Distinct articles matched per search",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
		),
		degradedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_total",
				Help:      "Upstream failures replaced by a fallback value, by component",
			},
			[]string{"component"},
		),
		answerFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answer_fallbacks_total",
				Help:      "Answers replaced by the fallback apology",
			},
		),
		searchLogFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_log_failures_total",
				Help:      "Search log appends that failed",
			},
		),
	}

	m.registry.MustRegister(
		m.searchesTotal,
		m.searchDuration,
		m.searchResults,
		m.degradedTotal,
		m.answerFallbacks,
		m.searchLogFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackIndex exports the number of entries in idx as a gauge.
// It must be called at most once per Metrics.
func (m *Metrics) TrackIndex(idx *index.Index) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_entries",
			Help:      "Number of chunk vectors in the live index",
		},
		func() float64 { return float64(idx.Len()) },
	))
}

// ObserveDegraded counts an upstream failure. Its signature matches
// ai.DegradedObserver.
func (m *Metrics) ObserveDegraded(component string, _ error) {
	m.degradedTotal.WithLabelValues(component).Inc()
}

func (m *Metrics) Start(_ string) {}

func (m *Metrics) PathChosen(mode core.SearchMode) {
	m.searchesTotal.WithLabelValues(string(mode)).Inc()
}

func (m *Metrics) AfterFiltering(_ int) {}

func (m *Metrics) AnswerFallback(err error) {
	m.answerFallbacks.Inc()
	m.ObserveDegraded("answerer", err)
}

func (m *Metrics) SearchLogFailed(_ error) {
	m.searchLogFailures.Inc()
}

func (m *Metrics) Finish(resp *core.SearchResponse, elapsed time.Duration) {
	m.searchDuration.WithLabelValues(string(resp.Mode)).Observe(elapsed.Seconds())
	m.searchResults.Observe(float64(resp.Total))
}
