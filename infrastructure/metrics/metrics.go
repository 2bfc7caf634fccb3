package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ Recorder = (*Metrics)(nil)

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	PublishTotal        *prometheus.CounterVec
	PublishDuration     *prometheus.HistogramVec
	TokenRefreshTotal   *prometheus.CounterVec
	StatsSyncTotal      *prometheus.CounterVec
	AnalyticsCacheTotal *prometheus.CounterVec
	ScheduledSweepItems prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns Prometheus metrics when enabled and a no-op recorder otherwise.
// Collectors are registered once per process.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}
	once.Do(func() {
		defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PublishTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crosspost_publish_total",
			Help: "Publish attempts per platform and result",
		}, []string{"platform", "result"}),
		PublishDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crosspost_publish_duration_seconds",
			Help:    "Duration of a single platform publish",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"platform"}),
		TokenRefreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crosspost_token_refresh_total",
			Help: "Credential refresh attempts per platform and result",
		}, []string{"platform", "result"}),
		StatsSyncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crosspost_stats_sync_total",
			Help: "Stats reconciliation calls per platform and result",
		}, []string{"platform", "result"}),
		AnalyticsCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "crosspost_analytics_cache_total",
			Help: "Analytics cache lookups",
		}, []string{"result"}),
		ScheduledSweepItems: factory.NewCounter(prometheus.CounterOpts{
			Name: "crosspost_scheduled_items_total",
			Help: "Scheduled content items processed by the sweep",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) RecordPublish(platform, result string, duration time.Duration) {
	m.PublishTotal.WithLabelValues(platform, result).Inc()
	m.PublishDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

func (m *Metrics) RecordTokenRefresh(platform, result string) {
	m.TokenRefreshTotal.WithLabelValues(platform, result).Inc()
}

func (m *Metrics) RecordStatsSync(platform, result string) {
	m.StatsSyncTotal.WithLabelValues(platform, result).Inc()
}

func (m *Metrics) RecordAnalyticsCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AnalyticsCacheTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordScheduledSweep(processed int) {
	m.ScheduledSweepItems.Add(float64(processed))
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
