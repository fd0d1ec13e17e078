// Package metrics holds the process-wide Prometheus collectors. They are
// registered on the default registry and exposed by "q serve" at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "q_stream_events_total",
		Help: "Events decoded from completion streams.",
	}, []string{"type"})

	DroppedCarry = promauto.NewCounter(prometheus.CounterOpts{
		Name: "q_stream_dropped_carry_total",
		Help: "Streams that ended with unparsed trailing text.",
	})

	Turns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "q_turns_total",
		Help: "Chat turns by outcome.",
	}, []string{"outcome"})

	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "q_turn_duration_seconds",
		Help:    "Wall time of a chat turn including tool hops.",
		Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "q_tool_calls_total",
		Help: "Tool invocations by outcome.",
	}, []string{"outcome"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "q_http_requests_total",
		Help: "Total number of HTTP requests served.",
	}, []string{"code", "method"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "q_http_request_duration_seconds",
		Help:    "HTTP request latencies.",
		Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"code", "method"})
)

// Outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeNotFound  = "not_found"
	OutcomeMaxHops   = "max_hops"
	OutcomeCancelled = "cancelled"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps h with request counting and latency tracking.
func Instrument(h http.Handler) http.Handler {
	h = promhttp.InstrumentHandlerCounter(httpRequests, h)
	return promhttp.InstrumentHandlerDuration(httpDuration, h)
}
