package tournament

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
)

// NewStore creates a new SQL-backed Store.
func NewStore(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const generationColumns = `id, event_id, seq, strategy, team_count, created_at, superseded_at`
const scheduleColumns = `id, event_id, seq, generation_batch_id, format, competition_type, created_at, superseded_at`
const matchColumns = `id, event_id, schedule_batch_id, generation_batch_id, format, round, slot, side_a, side_b, score_a, score_b, status, winner`

// ActiveGeneration reads the active batch id and its teams in one transaction.
func (s *store) ActiveGeneration(ctx context.Context, eventID string) (*GenerationBatch, []teams.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	batch, err := scanGeneration(tx.QueryRowContext(ctx, `
		SELECT `+generationColumns+`
		FROM generation_batches
		WHERE event_id = ? AND superseded_at IS NULL
		ORDER BY seq DESC LIMIT 1
	`, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, []teams.Team{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get active generation batch: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, event_id, generation_batch_id, position, name, color, member_ids_json, total_skill
		FROM teams
		WHERE generation_batch_id = ?
		ORDER BY position ASC
	`, batch.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	result := []teams.Team{}
	for rows.Next() {
		var team teams.Team
		var membersJSON string
		if err := rows.Scan(&team.ID, &team.EventID, &team.GenerationBatchID, &team.Position, &team.Name, &team.Color, &membersJSON, &team.TotalSkill); err != nil {
			return nil, nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		if err := json.Unmarshal([]byte(membersJSON), &team.MemberIDs); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal team members: %w", err)
		}
		result = append(result, team)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return batch, result, nil
}

// ActiveSchedule reads the active batch id and its matches in one transaction.
func (s *store) ActiveSchedule(ctx context.Context, eventID string) (*ScheduleBatch, []schedule.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	batch, err := scanSchedule(tx.QueryRowContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedule_batches
		WHERE event_id = ? AND superseded_at IS NULL
		ORDER BY seq DESC LIMIT 1
	`, eventID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, []schedule.Match{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get active schedule batch: %w", err)
	}

	matches, err := queryMatches(ctx, tx, batch.ID)
	if err != nil {
		return nil, nil, err
	}
	return batch, matches, nil
}

func (s *store) CommitTeams(ctx context.Context, batch *GenerationBatch, split []teams.Team, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM generation_batches WHERE event_id = ?`, batch.EventID).Scan(&batch.Seq); err != nil {
		return "", fmt.Errorf("failed to get next generation seq: %w", err)
	}

	var supersededSchedule sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM schedule_batches
		WHERE event_id = ? AND superseded_at IS NULL AND generation_batch_id IS NOT NULL
	`, batch.EventID).Scan(&supersededSchedule)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up active schedule: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE generation_batches SET superseded_at = ? WHERE event_id = ? AND superseded_at IS NULL
	`, now.UnixNano(), batch.EventID); err != nil {
		return "", fmt.Errorf("failed to supersede generation batch: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE schedule_batches SET superseded_at = ?
		WHERE event_id = ? AND superseded_at IS NULL AND generation_batch_id IS NOT NULL
	`, now.UnixNano(), batch.EventID); err != nil {
		return "", fmt.Errorf("failed to supersede schedule batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO generation_batches (id, event_id, seq, strategy, team_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, batch.ID, batch.EventID, batch.Seq, batch.Strategy, batch.TeamCount, batch.CreatedAt.UnixNano()); err != nil {
		return "", fmt.Errorf("failed to insert generation batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO teams (id, event_id, generation_batch_id, position, name, color, member_ids_json, total_skill)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare team insert: %w", err)
	}
	defer stmt.Close()

	for _, team := range split {
		membersJSON, err := json.Marshal(team.MemberIDs)
		if err != nil {
			return "", fmt.Errorf("failed to marshal team members: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, team.ID, team.EventID, team.GenerationBatchID, team.Position, team.Name, team.Color, string(membersJSON), team.TotalSkill); err != nil {
			return "", fmt.Errorf("failed to insert team %s: %w", team.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit generation batch: %w", err)
	}
	log.Debug("Committed generation batch", "eventID", batch.EventID, "batchID", batch.ID, "seq", batch.Seq)
	return supersededSchedule.String, nil
}

func (s *store) CommitSchedule(ctx context.Context, batch *ScheduleBatch, matches []schedule.Match, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM schedule_batches WHERE event_id = ?`, batch.EventID).Scan(&batch.Seq); err != nil {
		return "", fmt.Errorf("failed to get next schedule seq: %w", err)
	}

	var superseded sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT id FROM schedule_batches WHERE event_id = ? AND superseded_at IS NULL`, batch.EventID).Scan(&superseded)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to look up active schedule: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE schedule_batches SET superseded_at = ? WHERE event_id = ? AND superseded_at IS NULL
	`, now.UnixNano(), batch.EventID); err != nil {
		return "", fmt.Errorf("failed to supersede schedule batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schedule_batches (id, event_id, seq, generation_batch_id, format, competition_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, batch.ID, batch.EventID, batch.Seq, nullString(batch.GenerationBatchID), batch.Format, batch.CompetitionType, batch.CreatedAt.UnixNano()); err != nil {
		return "", fmt.Errorf("failed to insert schedule batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range matches {
		scoreA, scoreB := resultColumns(m.Result)
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.EventID, m.ScheduleBatchID, nullString(m.GenerationBatchID), m.Format, m.Round, m.Slot,
			nullPtr(m.SideA), nullPtr(m.SideB), scoreA, scoreB, m.Status, nullPtr(m.Winner),
		); err != nil {
			return "", fmt.Errorf("failed to insert match R%dS%d: %w", m.Round, m.Slot, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit schedule batch: %w", err)
	}
	log.Debug("Committed schedule batch", "eventID", batch.EventID, "batchID", batch.ID, "seq", batch.Seq, "matches", len(matches))
	return superseded.String, nil
}

// UpdateMatches fails with ErrInvalidMatchState when the batch was superseded
// after the caller read it.
func (s *store) UpdateMatches(ctx context.Context, scheduleBatchID string, matches []schedule.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var supersededAt sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT superseded_at FROM schedule_batches WHERE id = ?`, scheduleBatchID).Scan(&supersededAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrScheduleNotFound, scheduleBatchID)
	}
	if err != nil {
		return fmt.Errorf("failed to check schedule batch: %w", err)
	}
	if supersededAt.Valid {
		return fmt.Errorf("%w: schedule batch %s has been superseded", ErrInvalidMatchState, scheduleBatchID)
	}

	for _, m := range matches {
		scoreA, scoreB := resultColumns(m.Result)
		res, err := tx.ExecContext(ctx, `
			UPDATE matches
			SET side_a = ?, side_b = ?, score_a = ?, score_b = ?, status = ?, winner = ?
			WHERE id = ? AND schedule_batch_id = ?
		`, nullPtr(m.SideA), nullPtr(m.SideB), scoreA, scoreB, m.Status, nullPtr(m.Winner), m.ID, scheduleBatchID)
		if err != nil {
			return fmt.Errorf("failed to update match %s: %w", m.ID, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		} else if n == 0 {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, m.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match updates: %w", err)
	}
	return nil
}

func (s *store) FindMatch(ctx context.Context, matchID string) (*schedule.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMatch(s.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// ListScheduleBatches returns every schedule batch of the event, newest first.
func (s *store) ListScheduleBatches(ctx context.Context, eventID string) ([]ScheduleBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedule_batches
		WHERE event_id = ?
		ORDER BY seq DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule batches: %w", err)
	}
	defer rows.Close()

	batches := []ScheduleBatch{}
	for rows.Next() {
		batch, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule batch row: %w", err)
		}
		batches = append(batches, *batch)
	}
	return batches, rows.Err()
}

func (s *store) ScheduleMatches(ctx context.Context, scheduleBatchID string) (*ScheduleBatch, []schedule.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	batch, err := scanSchedule(tx.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM schedule_batches WHERE id = ?`, scheduleBatchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrScheduleNotFound, scheduleBatchID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get schedule batch: %w", err)
	}
	matches, err := queryMatches(ctx, tx, batch.ID)
	if err != nil {
		return nil, nil, err
	}
	return batch, matches, nil
}

func queryMatches(ctx context.Context, q queryer, scheduleBatchID string) ([]schedule.Match, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+matchColumns+`
		FROM matches
		WHERE schedule_batch_id = ?
		ORDER BY round ASC, slot ASC
	`, scheduleBatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []schedule.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

type scanner interface{ Scan(...any) error }

func scanGeneration(row scanner) (*GenerationBatch, error) {
	var b GenerationBatch
	var createdAt int64
	var supersededAt sql.NullInt64
	if err := row.Scan(&b.ID, &b.EventID, &b.Seq, &b.Strategy, &b.TeamCount, &createdAt, &supersededAt); err != nil {
		return nil, err
	}
	b.CreatedAt = time.Unix(0, createdAt)
	b.SupersededAt = timePtr(supersededAt)
	return &b, nil
}

func scanSchedule(row scanner) (*ScheduleBatch, error) {
	var b ScheduleBatch
	var generationID sql.NullString
	var createdAt int64
	var supersededAt sql.NullInt64
	if err := row.Scan(&b.ID, &b.EventID, &b.Seq, &generationID, &b.Format, &b.CompetitionType, &createdAt, &supersededAt); err != nil {
		return nil, err
	}
	b.GenerationBatchID = generationID.String
	b.CreatedAt = time.Unix(0, createdAt)
	b.SupersededAt = timePtr(supersededAt)
	return &b, nil
}

func scanMatch(row scanner) (*schedule.Match, error) {
	var m schedule.Match
	var generationID, sideA, sideB, winner sql.NullString
	var scoreA, scoreB sql.NullInt64
	err := row.Scan(
		&m.ID, &m.EventID, &m.ScheduleBatchID, &generationID, &m.Format, &m.Round, &m.Slot,
		&sideA, &sideB, &scoreA, &scoreB, &m.Status, &winner,
	)
	if err != nil {
		return nil, err
	}
	m.GenerationBatchID = generationID.String
	m.SideA = stringPtr(sideA)
	m.SideB = stringPtr(sideB)
	m.Winner = stringPtr(winner)
	if scoreA.Valid && scoreB.Valid {
		m.Result = &schedule.Result{ScoreA: int(scoreA.Int64), ScoreB: int(scoreB.Int64)}
	}
	return &m, nil
}

func resultColumns(r *schedule.Result) (sql.NullInt64, sql.NullInt64) {
	if r == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(r.ScoreA), Valid: true}, sql.NullInt64{Int64: int64(r.ScoreB), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64)
	return &t
}
