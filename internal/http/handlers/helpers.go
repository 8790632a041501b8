package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/teamsheet/internal/roster"
	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
	"github.com/mauv0809/teamsheet/internal/tournament"
)

// ContextKey is a custom type to avoid key collisions in context.
type ContextKey string

const (
	DryRunKey ContextKey = "dryRun"
)

// IsDryRunFromContext is a helper to safely retrieve the dry_run flag from the request context.
func IsDryRunFromContext(r *http.Request) bool {
	dryRun, ok := r.Context().Value(DryRunKey).(bool)
	return ok && dryRun
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

var errBadRequest = errors.New("bad request")

type errorClass struct {
	target  error
	status  int
	code    string
	message string
}

// errorClasses is checked in order; the first match wins.
var errorClasses = []errorClass{
	{tournament.ErrInvalidTeamCount, http.StatusUnprocessableEntity, "invalid_team_count", "チーム数は1以上、参加者数以下にしてください"},
	{tournament.ErrInsufficientParticipants, http.StatusUnprocessableEntity, "insufficient_participants", "2人以上の参加者が必要です"},
	{tournament.ErrInsufficientCompetitors, http.StatusUnprocessableEntity, "insufficient_competitors", "対戦相手が2つ以上必要です"},
	{tournament.ErrAlreadyGeneratingConflict, http.StatusConflict, "conflict", "他の操作が進行中か、内容が更新されています。再読み込みしてからやり直してください"},
	{tournament.ErrInvalidMatchState, http.StatusConflict, "invalid_match_state", "この試合には結果を登録できません"},
	{tournament.ErrNotALeague, http.StatusConflict, "not_a_league", "順位表はリーグ戦でのみ表示できます"},
	{tournament.ErrAmbiguousResult, http.StatusUnprocessableEntity, "ambiguous_result", "トーナメントの試合は引き分けにできません"},
	{tournament.ErrMatchNotFound, http.StatusNotFound, "not_found", "試合が見つかりません"},
	{tournament.ErrScheduleNotFound, http.StatusNotFound, "not_found", "対戦表が見つかりません"},
	{roster.ErrParticipantNotFound, http.StatusNotFound, "not_found", "参加者が見つかりません"},
	{roster.ErrParticipantIDTaken, http.StatusConflict, "participant_id_taken", "この参加者IDは別のイベントで使われています"},
	{roster.ErrInvalidParticipant, http.StatusBadRequest, "bad_request", "参加者の名前を入力してください"},
	{teams.ErrUnknownStrategy, http.StatusBadRequest, "bad_request", "チーム分けの方法が不正です"},
	{schedule.ErrUnknownFormat, http.StatusBadRequest, "bad_request", "試合形式が不正です"},
	{tournament.ErrUnknownCompetitionType, http.StatusBadRequest, "bad_request", "対戦の種類が不正です"},
	{tournament.ErrInvalidScore, http.StatusBadRequest, "bad_request", "スコアは0以上にしてください"},
	{tournament.ErrEventIDRequired, http.StatusBadRequest, "bad_request", "イベントIDが必要です"},
	{errBadRequest, http.StatusBadRequest, "bad_request", "リクエストが不正です"},
}

// classify maps an error to its HTTP status and user-facing message.
func classify(err error) (int, ErrorResponse) {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.status, ErrorResponse{Code: c.code, Message: c.message, Detail: err.Error()}
		}
	}
	return http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: "サーバーエラーが発生しました", Detail: err.Error()}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err)
	} else {
		log.Warn("Request rejected", "status", status, "code", body.Code, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", "error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
