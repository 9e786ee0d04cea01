package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bridge.
type Metrics struct {
	StoreRecords       *prometheus.GaugeVec
	StoreEvents        *prometheus.CounterVec
	PromptCacheLookups *prometheus.CounterVec
	WidgetSessions     *prometheus.CounterVec
	WebhookDeliveries  *prometheus.CounterVec
	SignedURLs         *prometheus.CounterVec
	UpstreamErrors     *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		StoreRecords: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_records",
			Help:      "Live records per session-fact store.",
		}, []string{"store"}),
		StoreEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_events_total",
			Help:      "Store operations by store and event.",
		}, []string{"store", "event"}),
		PromptCacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prompt_cache_lookups_total",
			Help:      "Prompt cache lookups by result.",
		}, []string{"result"}),
		WidgetSessions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_sessions_total",
			Help:      "Hosted widget session mints by outcome.",
		}, []string{"outcome"}),
		WebhookDeliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries by outcome.",
		}, []string{"outcome"}),
		SignedURLs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signed_urls_total",
			Help:      "Presigned URL requests by operation.",
		}, []string{"operation"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream failures by service and class.",
		}, []string{"service", "class"}),
	}
}

// FailureClass buckets an upstream HTTP status for the error counter.
func FailureClass(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return "throttled"
	case status >= 500:
		return "server"
	case status >= 400:
		return "rejected"
	default:
		return "transport"
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
