package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	TeamsGenerated     *prometheus.CounterVec
	SchedulesGenerated *prometheus.CounterVec
	ResultsRecorded    prometheus.Counter
	Conflicts          prometheus.Counter
	PublishFailed      prometheus.Counter
	GenerationDuration prometheus.Histogram
	StartupTimeSeconds prometheus.Gauge
}

// Persistent mirrors every counter into a MetricsStore.
type Persistent struct {
	inner Metrics
	store MetricsStore
}

// Keys written by Persistent.
const (
	KeyTeamsGenerated     = "teams_generated"
	KeySchedulesGenerated = "schedules_generated"
	KeyResultsRecorded    = "results_recorded"
	KeyConflicts          = "conflicts"
	KeyPublishFailed      = "publish_failed"
)
