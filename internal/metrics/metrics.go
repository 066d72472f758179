// Package metrics exposes Prometheus instrumentation for the matcher.
// Every collector lives on a private registry so tests can build as many
// instances as they like without duplicate-registration panics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "nightspot"
	subsystem = "matcher"
)

// Matching holds the matcher's collectors. A nil *Matching is valid and
// records nothing, which keeps callers free of nil checks in tests.
type Matching struct {
	registry *prometheus.Registry

	arrivals            prometheus.Counter
	matches             prometheus.Counter
	queued              prometheus.Counter
	racesLost           prometheus.Counter
	notificationsFailed prometheus.Counter
	venueFallbacks      prometheus.Counter
	scorerErrors        prometheus.Counter
	searchDuration      prometheus.Histogram
}

// NewMatching registers the matcher collectors, plus the Go runtime and
// process collectors, on a fresh registry.
func NewMatching() *Matching {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}

	return &Matching{
		registry:            reg,
		arrivals:            counter("arrivals_total", "Accepted arrivals"),
		matches:             counter("matches_total", "Groups formed and persisted as events"),
		queued:              counter("queued_total", "Arrivals left waiting after the group search"),
		racesLost:           counter("races_lost_total", "Match attempts abandoned because a concurrent match removed a member first"),
		notificationsFailed: counter("notifications_failed_total", "Group notifications that failed or timed out"),
		venueFallbacks:      counter("venue_fallbacks_total", "Events that used the fallback venue"),
		scorerErrors:        counter("scorer_errors_total", "Questionnaire answers the personality scorer could not score"),
		searchDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "group_search_duration_seconds",
			Help:      "Time spent searching one slot for an eligible group",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Matching) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Matching) Registry() *prometheus.Registry {
	return m.registry
}

// Arrival counts a user entering the waiting pool.
func (m *Matching) Arrival() {
	if m != nil {
		m.arrivals.Inc()
	}
}

// Matched counts a formed group.
func (m *Matching) Matched() {
	if m != nil {
		m.matches.Inc()
	}
}

// Queued counts an arrival that was left waiting.
func (m *Matching) Queued() {
	if m != nil {
		m.queued.Inc()
	}
}

// RaceLost counts a group lost to a concurrent match.
func (m *Matching) RaceLost() {
	if m != nil {
		m.racesLost.Inc()
	}
}

// NotificationFailed counts a group that could not be notified.
func (m *Matching) NotificationFailed() {
	if m != nil {
		m.notificationsFailed.Inc()
	}
}

// VenueFallback counts a match that used the fallback venue.
func (m *Matching) VenueFallback() {
	if m != nil {
		m.venueFallbacks.Inc()
	}
}

// ScorerError counts an answer the scorer could not rate.
func (m *Matching) ScorerError() {
	if m != nil {
		m.scorerErrors.Inc()
	}
}

// ObserveSearch records how long one FindEligibleGroup call took.
func (m *Matching) ObserveSearch(d time.Duration) {
	if m != nil {
		m.searchDuration.Observe(d.Seconds())
	}
}
