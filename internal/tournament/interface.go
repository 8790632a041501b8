package tournament

import (
	"context"
	"time"

	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
)

// Store persists batches. Every write is all-or-nothing.
type Store interface {
	// ActiveGeneration returns the active team split, or a nil batch when none exists.
	ActiveGeneration(ctx context.Context, eventID string) (*GenerationBatch, []teams.Team, error)
	// ActiveSchedule returns the active schedule, or a nil batch when none exists.
	ActiveSchedule(ctx context.Context, eventID string) (*ScheduleBatch, []schedule.Match, error)
	// CommitTeams stores a new generation batch, assigning its Seq, and
	// supersedes the previous one plus any schedule built on teams.
	CommitTeams(ctx context.Context, batch *GenerationBatch, teams []teams.Team, now time.Time) (supersededScheduleID string, err error)
	// CommitSchedule stores a new schedule batch, assigning its Seq, and
	// supersedes the previous one.
	CommitSchedule(ctx context.Context, batch *ScheduleBatch, matches []schedule.Match, now time.Time) (supersededScheduleID string, err error)
	// UpdateMatches rewrites matches of a schedule batch that is still active.
	UpdateMatches(ctx context.Context, scheduleBatchID string, matches []schedule.Match) error
	// FindMatch looks a match up in any batch, superseded ones included.
	FindMatch(ctx context.Context, matchID string) (*schedule.Match, error)
	ListScheduleBatches(ctx context.Context, eventID string) ([]ScheduleBatch, error)
	ScheduleMatches(ctx context.Context, scheduleBatchID string) (*ScheduleBatch, []schedule.Match, error)
}
