package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrInvalidParticipant  = errors.New("invalid participant")
	ErrParticipantIDTaken  = errors.New("participant id belongs to another event")
)

// New creates a new participant Store.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

// UpsertParticipant inserts a participant or updates its name, rating and flags.
// An empty ID gets a fresh one.
func (s *store) UpsertParticipant(ctx context.Context, p Participant) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(p.EventID) == "" {
		return Participant{}, fmt.Errorf("%w: event id is required", ErrInvalidParticipant)
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return Participant{}, fmt.Errorf("%w: display name is required", ErrInvalidParticipant)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	// An id owned by another event is never rewritten.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, event_id, display_name, skill_score, attending, guest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			skill_score = excluded.skill_score,
			attending = excluded.attending,
			guest = excluded.guest
		WHERE participants.event_id = excluded.event_id;
	`, p.ID, p.EventID, p.DisplayName, nullFloat(p.SkillScore), p.Attending, p.Guest, p.CreatedAt.UnixNano())
	if err != nil {
		return Participant{}, fmt.Errorf("failed to upsert participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Participant{}, fmt.Errorf("failed to upsert participant: %w", err)
	}
	if affected == 0 {
		log.Warn("Participant id belongs to another event", "eventID", p.EventID, "participantID", p.ID)
		return Participant{}, fmt.Errorf("%w: %s", ErrParticipantIDTaken, p.ID)
	}

	log.Debug("Upserted participant", "eventID", p.EventID, "participantID", p.ID)
	return p, nil
}

// AddGuest adds a manually entered, attending guest.
func (s *store) AddGuest(ctx context.Context, eventID, displayName string, skill *float64) (Participant, error) {
	p, err := s.UpsertParticipant(ctx, Participant{
		EventID:     eventID,
		DisplayName: displayName,
		SkillScore:  skill,
		Attending:   true,
		Guest:       true,
	})
	if err != nil {
		return Participant{}, err
	}
	log.Info("Added guest participant", "eventID", eventID, "name", displayName)
	return p, nil
}

func (s *store) SetAttendance(ctx context.Context, eventID, participantID string, attending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE participants SET attending = ? WHERE id = ? AND event_id = ?`, attending, participantID, eventID)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	return requireRow(res, participantID)
}

func (s *store) SetSkill(ctx context.Context, eventID, participantID string, skill *float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE participants SET skill_score = ? WHERE id = ? AND event_id = ?`, nullFloat(skill), participantID, eventID)
	if err != nil {
		return fmt.Errorf("failed to update skill score: %w", err)
	}
	return requireRow(res, participantID)
}

// ListParticipants returns every participant of the event in creation order.
func (s *store) ListParticipants(ctx context.Context, eventID string) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, `
		SELECT id, event_id, display_name, skill_score, attending, guest, created_at
		FROM participants
		WHERE event_id = ?
		ORDER BY created_at ASC, id ASC
	`, eventID)
}

// Snapshot returns the attending roster of the event.
func (s *store) Snapshot(ctx context.Context, eventID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	participants, err := s.query(ctx, `
		SELECT id, event_id, display_name, skill_score, attending, guest, created_at
		FROM participants
		WHERE event_id = ? AND attending = 1
		ORDER BY created_at ASC, id ASC
	`, eventID)
	if err != nil {
		return Snapshot{}, err
	}

	competitors := make([]Competitor, 0, len(participants))
	for _, p := range participants {
		competitors = append(competitors, p.Competitor())
	}
	return Snapshot{EventID: eventID, Competitors: competitors, TakenAt: time.Now()}, nil
}

func (s *store) query(ctx context.Context, query string, args ...any) ([]Participant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := []Participant{}
	for rows.Next() {
		var p Participant
		var skill sql.NullFloat64
		var createdAt int64
		if err := rows.Scan(&p.ID, &p.EventID, &p.DisplayName, &skill, &p.Attending, &p.Guest, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		if skill.Valid {
			v := skill.Float64
			p.SkillScore = &v
		}
		p.CreatedAt = time.Unix(0, createdAt)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func requireRow(res sql.Result, participantID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
