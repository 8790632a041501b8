package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
	"github.com/mauv0809/teamsheet/internal/tournament"
)

type GenerateTeamsRequest struct {
	TeamCount                 int     `json:"team_count"`
	Strategy                  string  `json:"strategy,omitempty"`
	ExpectedGenerationBatchID string  `json:"expected_generation_batch_id,omitempty"`
	Seed                      *uint64 `json:"seed,omitempty"`
}

type GenerateTeamsResponse struct {
	GenerationBatchID string       `json:"generation_batch_id,omitempty"`
	DryRun            bool         `json:"dry_run"`
	Teams             []teams.Team `json:"teams"`
}

type GenerateMatchesRequest struct {
	CompetitionType         string  `json:"competition_type"`
	Format                  string  `json:"format"`
	ExpectedScheduleBatchID string  `json:"expected_schedule_batch_id,omitempty"`
	Seed                    *uint64 `json:"seed,omitempty"`
}

type GenerateMatchesResponse struct {
	ScheduleBatchID string           `json:"schedule_batch_id"`
	Matches         []schedule.Match `json:"matches"`
}

type ResultRequest struct {
	ScoreA *int `json:"score_a"`
	ScoreB *int `json:"score_b"`
}

// ResultResponse lists the recorded match first, then any match it advanced into.
type ResultResponse struct {
	Matches []schedule.Match `json:"matches"`
}

func GenerateTeamsHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		var req GenerateTeamsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		cfg := tournament.GenerateTeamsConfig{
			EventID:                   eventID,
			TeamCount:                 req.TeamCount,
			Strategy:                  teams.Strategy(req.Strategy),
			ExpectedGenerationBatchID: req.ExpectedGenerationBatchID,
			Seed:                      req.Seed,
		}

		if IsDryRunFromContext(r) {
			log.Info("Dry run, previewing teams", "eventID", eventID)
			split, err := svc.PreviewTeams(r.Context(), cfg)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, GenerateTeamsResponse{DryRun: true, Teams: split})
			return
		}

		split, err := svc.GenerateTeams(r.Context(), cfg)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, GenerateTeamsResponse{GenerationBatchID: split[0].GenerationBatchID, Teams: split})
	}
}

func ListTeamsHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Teams(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func GenerateMatchesHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateMatchesRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		matches, err := svc.GenerateMatches(r.Context(), tournament.GenerateMatchesConfig{
			EventID:                 chi.URLParam(r, "eventID"),
			CompetitionType:         tournament.CompetitionType(req.CompetitionType),
			Format:                  schedule.Format(req.Format),
			ExpectedScheduleBatchID: req.ExpectedScheduleBatchID,
			Seed:                    req.Seed,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, GenerateMatchesResponse{ScheduleBatchID: matches[0].ScheduleBatchID, Matches: matches})
	}
}

func ListMatchesHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Matches(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func RecordResultHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResultRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.ScoreA == nil || req.ScoreB == nil {
			writeError(w, errBadRequest)
			return
		}
		changed, err := svc.RecordResult(r.Context(), chi.URLParam(r, "eventID"), chi.URLParam(r, "matchID"), *req.ScoreA, *req.ScoreB)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ResultResponse{Matches: changed})
	}
}

func StateHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := svc.State(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func StandingsHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		standings, err := svc.Standings(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, standings)
	}
}

func ScheduleHistoryHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batches, err := svc.ScheduleHistory(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, batches)
	}
}

func ScheduleMatchesHandler(svc *tournament.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.ScheduleMatches(r.Context(), chi.URLParam(r, "batchID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
