package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/teamsheet/internal/roster"
)

// ParticipantRequest creates or updates a participant. Attending defaults to true.
type ParticipantRequest struct {
	ID          string   `json:"id,omitempty"`
	DisplayName string   `json:"display_name"`
	SkillScore  *float64 `json:"skill_score,omitempty"`
	Attending   *bool    `json:"attending,omitempty"`
	Guest       bool     `json:"guest,omitempty"`
}

type AttendanceRequest struct {
	Attending bool `json:"attending"`
}

func UpsertParticipantHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		var req ParticipantRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		attending := true
		if req.Attending != nil {
			attending = *req.Attending
		}

		var (
			p   roster.Participant
			err error
		)
		if req.Guest && req.ID == "" {
			p, err = store.AddGuest(r.Context(), eventID, req.DisplayName, req.SkillScore)
		} else {
			p, err = store.UpsertParticipant(r.Context(), roster.Participant{
				ID:          req.ID,
				EventID:     eventID,
				DisplayName: req.DisplayName,
				SkillScore:  req.SkillScore,
				Attending:   attending,
				Guest:       req.Guest,
			})
		}
		if err != nil {
			writeError(w, err)
			return
		}
		log.Info("Saved participant", "eventID", eventID, "participantID", p.ID, "guest", p.Guest)
		writeJSON(w, http.StatusOK, p)
	}
}

func AttendanceHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		participantID := chi.URLParam(r, "participantID")
		var req AttendanceRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := store.SetAttendance(r.Context(), eventID, participantID, req.Attending); err != nil {
			writeError(w, err)
			return
		}
		log.Info("Updated attendance", "eventID", eventID, "participantID", participantID, "attending", req.Attending)
		w.WriteHeader(http.StatusNoContent)
	}
}

func ListParticipantsHandler(store roster.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participants, err := store.ListParticipants(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, participants)
	}
}
