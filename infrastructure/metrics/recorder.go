package metrics

import "time"

// Recorder records publishing pipeline metrics
type Recorder interface {
	RecordPublish(platform, result string, duration time.Duration)
	RecordTokenRefresh(platform, result string)
	RecordStatsSync(platform, result string)
	RecordAnalyticsCache(hit bool)
	RecordScheduledSweep(processed int)
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
}

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)
