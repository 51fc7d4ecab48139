package metrics

import "github.com/prometheus/client_golang/prometheus"

// Chat streaming Prometheus metrics.
var (
	ChatStreamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lenny",
			Name:      "chat_streams_total",
			Help:      "Chat streams by outcome",
		},
		[]string{"outcome"}, // completed / errored / canceled
	)

	ChatEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lenny",
			Name:      "chat_events_total",
			Help:      "Stream events emitted by type",
		},
		[]string{"type"},
	)

	ChatGenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lenny",
			Name:      "chat_generation_duration_seconds",
			Help:      "Time from generation start to the last model fragment",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"model"},
	)

	ChatSourcesPerAnswer = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lenny",
			Name:      "chat_sources_per_answer",
			Help:      "Number of source citations sent per answer",
			Buckets:   []float64{0, 1, 2, 4, 6, 8},
		},
	)

	SearchResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lenny",
			Name:      "search_results_total",
			Help:      "Search hits kept after the similarity threshold, by corpus",
		},
		[]string{"corpus"},
	)

	SearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lenny",
			Name:      "search_errors_total",
			Help:      "Failed content store searches, by corpus",
		},
		[]string{"corpus"},
	)
)

var chatMetricsRegistered bool

// RegisterChatMetrics registers chat and search metrics. Must be called once from main.
func RegisterChatMetrics() {
	if chatMetricsRegistered {
		return
	}
	prometheus.MustRegister(ChatStreamsTotal)
	prometheus.MustRegister(ChatEventsTotal)
	prometheus.MustRegister(ChatGenerationDuration)
	prometheus.MustRegister(ChatSourcesPerAnswer)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(SearchErrorsTotal)
	chatMetricsRegistered = true
}
