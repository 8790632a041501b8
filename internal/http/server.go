package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mauv0809/teamsheet/internal/http/handlers"
	"github.com/mauv0809/teamsheet/internal/metrics"
	"github.com/mauv0809/teamsheet/internal/roster"
	"github.com/mauv0809/teamsheet/internal/tournament"
)

func NewServer(rosterStore roster.Store, svc *tournament.Service, metricsStore metrics.MetricsStore, metricsHandler http.Handler) *Server {
	server := &Server{
		Roster:         rosterStore,
		Tournament:     svc,
		MetricsStore:   metricsStore,
		MetricsHandler: metricsHandler,
		Router:         chi.NewRouter(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)

	s.Router.Handle("/metrics", Chain(s.MetricsHandler, middleware.NoCache))

	// Everything else goes through paramsMiddleware for verbose and dry_run.
	s.Router.Group(func(r chi.Router) {
		r.Use(paramsMiddleware)

		r.Get("/health", handlers.HealthCheckHandler())
		r.Get("/stats", handlers.StatsHandler(s.MetricsStore))

		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/roster", handlers.ListParticipantsHandler(s.Roster))
			r.Put("/participants", handlers.UpsertParticipantHandler(s.Roster))
			r.Put("/participants/{participantID}/attendance", handlers.AttendanceHandler(s.Roster))

			r.Post("/teams", handlers.GenerateTeamsHandler(s.Tournament))
			r.Get("/teams", handlers.ListTeamsHandler(s.Tournament))

			r.Post("/matches", handlers.GenerateMatchesHandler(s.Tournament))
			r.Get("/matches", handlers.ListMatchesHandler(s.Tournament))
			r.Post("/matches/{matchID}/result", handlers.RecordResultHandler(s.Tournament))

			r.Get("/state", handlers.StateHandler(s.Tournament))
			r.Get("/standings", handlers.StandingsHandler(s.Tournament))
			r.Get("/schedules", handlers.ScheduleHistoryHandler(s.Tournament))
		})

		r.Get("/schedules/{batchID}/matches", handlers.ScheduleMatchesHandler(s.Tournament))
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
