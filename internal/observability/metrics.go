package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProbeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mediaproxy",
		Name:      "probe_duration_seconds",
		Help:      "Duration of metadata probes against the source platform",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
	})

	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mediaproxy",
		Name:      "downloads_total",
		Help:      "Download requests by mode and outcome",
	}, []string{"mode", "status"})

	ActiveDeliveries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mediaproxy",
		Name:      "active_deliveries",
		Help:      "Number of byte streams currently being relayed",
	})

	BytesStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mediaproxy",
		Name:      "bytes_streamed_total",
		Help:      "Total media bytes relayed to clients",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mediaproxy",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mediaproxy",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
