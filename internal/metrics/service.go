package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		TeamsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamsheet_teams_generated_total",
			Help: "The total number of team splits generated.",
		}, []string{"strategy"}),
		SchedulesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamsheet_schedules_generated_total",
			Help: "The total number of schedules generated.",
		}, []string{"format"}),
		ResultsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamsheet_results_recorded_total",
			Help: "The total number of match results recorded.",
		}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamsheet_conflicts_total",
			Help: "The total number of changes rejected because another change was in flight or stale.",
		}),
		PublishFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamsheet_publish_failed_total",
			Help: "The total number of domain events that failed to publish.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamsheet_generation_duration_seconds",
			Help:    "The duration of team and schedule generation.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamsheet_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.TeamsGenerated,
		s.SchedulesGenerated,
		s.ResultsRecorded,
		s.Conflicts,
		s.PublishFailed,
		s.GenerationDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncTeamsGenerated(strategy string) {
	s.TeamsGenerated.WithLabelValues(strategy).Inc()
}

func (s *Service) IncSchedulesGenerated(format string) {
	s.SchedulesGenerated.WithLabelValues(format).Inc()
}

func (s *Service) IncResultsRecorded() {
	s.ResultsRecorded.Inc()
}

func (s *Service) IncConflicts() {
	s.Conflicts.Inc()
}

func (s *Service) IncPublishFailed() {
	s.PublishFailed.Inc()
}

func (s *Service) ObserveGenerationDuration(duration float64) {
	s.GenerationDuration.Observe(duration)
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
