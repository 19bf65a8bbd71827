package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifyd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifyd_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// ConsumedMessages counts inbound Kafka messages by topic and decode result
	ConsumedMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifyd_consumed_messages_total",
			Help: "Number of Kafka messages consumed",
		},
		[]string{"topic", "result"},
	)

	// DispatchOutcomes one increment per dispatch
	DispatchOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifyd_dispatch_outcomes_total",
			Help: "Number of dispatches by kind, status and drop reason",
		},
		[]string{"kind", "status", "reason"},
	)

	DispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifyd_dispatch_duration_seconds",
			Help:    "Duration of a single dispatch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	EndpointResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifyd_endpoint_resolutions_total",
			Help: "Endpoint lookups by outcome",
		},
		[]string{"outcome"},
	)

	PushSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifyd_push_sends_total",
			Help: "Push gateway sends by result",
		},
		[]string{"result"},
	)

	//PushSendDuration time spent waiting on the push gateway
	PushSendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notifyd_push_send_duration_seconds",
			Help:    "Duration of push gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(
		HTTPRequests, RequestDuration,
		ConsumedMessages,
		DispatchOutcomes, DispatchDuration,
		EndpointResolutions,
		PushSends, PushSendDuration,
	)
}
