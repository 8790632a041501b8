package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/teamsheet/internal/metrics"
	"github.com/mauv0809/teamsheet/internal/roster"
	"github.com/mauv0809/teamsheet/internal/tournament"
)

type Server struct {
	Roster         roster.Store
	Tournament     *tournament.Service
	MetricsStore   metrics.MetricsStore
	MetricsHandler http.Handler
	Router         chi.Router
}
