package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		streamEvents,
		streamsTotal,
		streamDuration,
		decodeFailures,
		authRefreshes,
		contextTokens,
		activeStreams,
		precheckWarnings,
	)
}

var (
	streamEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_stream_events_total",
			Help: "Count of normalized agent-loop events per type.",
		},
		[]string{"type"},
	)

	streamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_streams_total",
			Help: "Count of finished stream attempts per outcome.",
		},
		[]string{"outcome"}, // complete | error | cancelled
	)

	streamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_stream_duration_seconds",
			Help:    "Stream attempt duration from open to terminal state.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	decodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_frame_decode_failures_total",
			Help: "Count of data frames dropped due to malformed JSON.",
		},
	)

	authRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_auth_refreshes_total",
			Help: "Count of access-token refresh attempts by result.",
		},
		[]string{"success"},
	)

	contextTokens = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chat_context_tokens",
			Help: "Last reported context token usage per session.",
		},
		[]string{"session"},
	)

	activeStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_active_streams",
			Help: "Number of stream read loops currently open.",
		},
	)

	precheckWarnings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_context_precheck_warnings_total",
			Help: "Count of pre-send warnings for messages that may crowd the context window.",
		},
	)
)

func EventProcessed(kind string) {
	streamEvents.WithLabelValues(kind).Inc()
}

func StreamFinished(outcome string, seconds float64) {
	streamsTotal.WithLabelValues(outcome).Inc()
	streamDuration.WithLabelValues(outcome).Observe(seconds)
}

func DecodeFailure() {
	decodeFailures.Inc()
}

func AuthRefresh(success bool) {
	authRefreshes.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func ContextTokens(sessionID string, tokens int) {
	contextTokens.WithLabelValues(sessionID).Set(float64(tokens))
}

func StreamOpened() { activeStreams.Inc() }
func StreamClosed() { activeStreams.Dec() }

func PrecheckWarning() { precheckWarnings.Inc() }
