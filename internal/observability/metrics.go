// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package observability

import (
	"net/http"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "m3da"

// Metrics groups the instruments of the TCP server and the HTTP API. Each
// Metrics owns its registry, so several can coexist in one process.
type Metrics struct {
	registry *stdprometheus.Registry

	// Sessions is the number of open device connections
	Sessions metrics.Gauge

	// Envelopes counts envelopes by direction (in, out)
	Envelopes metrics.Counter

	// Messages counts payload PDUs by outcome (stored, ignored, sent)
	Messages metrics.Counter

	// DecodeErrors counts sessions closed on a decode failure
	DecodeErrors metrics.Counter

	// Bytes counts raw connection bytes by direction (in, out)
	Bytes metrics.Counter

	// HandleDuration observes the time spent handling one envelope
	HandleDuration metrics.Histogram

	// Requests counts HTTP API requests by method and status code
	Requests metrics.Counter
}

// NewMetrics creates the instruments in a fresh registry
func NewMetrics() *Metrics {
	reg := stdprometheus.NewRegistry()

	sessions := stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "sessions",
		Help:      "Open device sessions.",
	}, nil)
	envelopes := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "envelopes_total",
		Help:      "Envelopes received and sent.",
	}, []string{"direction"})
	messages := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "messages_total",
		Help:      "Payload PDUs by outcome.",
	}, []string{"outcome"})
	decodeErrors := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "decode_errors_total",
		Help:      "Sessions closed because their stream could not be decoded.",
	}, nil)
	bytes := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "bytes_total",
		Help:      "Bytes read from and written to device connections.",
	}, []string{"direction"})
	handle := stdprometheus.NewSummaryVec(stdprometheus.SummaryOpts{
		Namespace:  namespace,
		Subsystem:  "server",
		Name:       "handle_duration_seconds",
		Help:       "Time spent handling one envelope.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"error"})
	requests := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP API requests.",
	}, []string{"method", "code"})

	reg.MustRegister(sessions, envelopes, messages, decodeErrors, bytes, handle, requests)

	return &Metrics{
		registry:       reg,
		Sessions:       prometheus.NewGauge(sessions),
		Envelopes:      prometheus.NewCounter(envelopes),
		Messages:       prometheus.NewCounter(messages),
		DecodeErrors:   prometheus.NewCounter(decodeErrors),
		Bytes:          prometheus.NewCounter(bytes),
		HandleDuration: prometheus.NewSummary(handle),
		Requests:       prometheus.NewCounter(requests),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
