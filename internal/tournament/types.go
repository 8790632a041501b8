package tournament

import (
	"database/sql"
	"sync"
	"time"

	"github.com/mauv0809/teamsheet/internal/metrics"
	"github.com/mauv0809/teamsheet/internal/pubsub"
	"github.com/mauv0809/teamsheet/internal/rng"
	"github.com/mauv0809/teamsheet/internal/roster"
	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
	"golang.org/x/sync/semaphore"
)

// CompetitionType says whether teams or individuals are scheduled.
type CompetitionType string

const (
	CompetitionTeam       CompetitionType = "team"
	CompetitionIndividual CompetitionType = "individual"
)

// Phase is the derived lifecycle state of an event.
type Phase string

const (
	PhaseNoTeams          Phase = "NoTeams"
	PhaseTeamsGenerated   Phase = "TeamsGenerated"
	PhaseMatchesGenerated Phase = "MatchesGenerated"
	PhaseInProgress       Phase = "InProgress"
	PhaseCompleted        Phase = "Completed"
)

// GenerationBatch scopes one team split. Later batches supersede it.
type GenerationBatch struct {
	ID           string         `json:"id"`
	EventID      string         `json:"event_id"`
	Seq          int            `json:"seq"`
	Strategy     teams.Strategy `json:"strategy"`
	TeamCount    int            `json:"team_count"`
	CreatedAt    time.Time      `json:"created_at"`
	SupersededAt *time.Time     `json:"superseded_at,omitempty"`
}

// ScheduleBatch groups all matches produced by one generation call.
type ScheduleBatch struct {
	ID                string          `json:"id"`
	EventID           string          `json:"event_id"`
	Seq               int             `json:"seq"`
	GenerationBatchID string          `json:"generation_batch_id,omitempty"`
	Format            schedule.Format `json:"format"`
	CompetitionType   CompetitionType `json:"competition_type"`
	CreatedAt         time.Time       `json:"created_at"`
	SupersededAt      *time.Time      `json:"superseded_at,omitempty"`
}

// Active reports whether the batch has not been superseded.
func (b ScheduleBatch) Active() bool { return b.SupersededAt == nil }

// GenerateTeamsConfig is the organizer command to split the roster into teams.
type GenerateTeamsConfig struct {
	EventID   string
	TeamCount int
	Strategy  teams.Strategy
	// ExpectedGenerationBatchID, when set, must match the active batch.
	ExpectedGenerationBatchID string
	Seed                      *uint64
}

// GenerateMatchesConfig is the organizer command to build a schedule.
type GenerateMatchesConfig struct {
	EventID         string
	CompetitionType CompetitionType
	Format          schedule.Format
	// ExpectedScheduleBatchID, when set, must match the active batch.
	ExpectedScheduleBatchID string
	Seed                    *uint64
}

// TeamsView is the active team split of an event.
type TeamsView struct {
	Batch *GenerationBatch `json:"batch"`
	Teams []teams.Team     `json:"teams"`
}

// MatchesView is the matches of one schedule batch.
type MatchesView struct {
	Batch   *ScheduleBatch   `json:"batch"`
	Matches []schedule.Match `json:"matches"`
}

// EventState summarizes where an event is in its lifecycle.
type EventState struct {
	EventID           string  `json:"event_id"`
	Phase             Phase   `json:"phase"`
	GenerationBatchID string  `json:"generation_batch_id,omitempty"`
	ScheduleBatchID   string  `json:"schedule_batch_id,omitempty"`
	PendingMatches    int     `json:"pending_matches"`
	CompletedMatches  int     `json:"completed_matches"`
	Champion          *string `json:"champion,omitempty"`
}

// Standing is one row of a league table.
type Standing struct {
	CompetitorID string `json:"competitor_id"`
	Played       int    `json:"played"`
	Won          int    `json:"won"`
	Drawn        int    `json:"drawn"`
	Lost         int    `json:"lost"`
	ScoreFor     int    `json:"score_for"`
	ScoreAgainst int    `json:"score_against"`
	Points       int    `json:"points"`
}

// Service owns the teams and matches of every event and is the only writer.
type Service struct {
	store   Store
	roster  roster.Source
	metrics metrics.Metrics
	pubsub  pubsub.PubSubClient

	now       func() time.Time
	newID     func() string
	newSource func(seed *uint64) rng.Source

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// store handles all database operations for batches, teams and matches.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
