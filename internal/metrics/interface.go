package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncTeamsGenerated(strategy string)
	IncSchedulesGenerated(format string)
	IncResultsRecorded()
	IncConflicts()
	IncPublishFailed()
	ObserveGenerationDuration(duration float64)
	SetStartupTime(duration float64)
}

// MetricsStore keeps lifetime counters that survive restarts.
type MetricsStore interface {
	Increment(key string)
	GetAll() (map[string]int, error)
}
