package metrics

import "time"

// NoopMetrics discards everything, used when metrics are disabled
type NoopMetrics struct{}

var _ Recorder = (*NoopMetrics)(nil)

func NewNoopMetrics() Recorder { return &NoopMetrics{} }

func (n *NoopMetrics) RecordPublish(platform, result string, duration time.Duration)             {}
func (n *NoopMetrics) RecordTokenRefresh(platform, result string)                                {}
func (n *NoopMetrics) RecordStatsSync(platform, result string)                                   {}
func (n *NoopMetrics) RecordAnalyticsCache(hit bool)                                             {}
func (n *NoopMetrics) RecordScheduledSweep(processed int)                                        {}
func (n *NoopMetrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {}
