package schedule

import (
	"errors"
	"fmt"

	"github.com/mauv0809/teamsheet/internal/rng"
)

// Format is the competition format of a schedule.
type Format string

const (
	FormatLeague  Format = "league"
	FormatBracket Format = "bracket"
)

// Status is the lifecycle state of a single match.
type Status string

const (
	StatusPending     Status = "pending"
	StatusByeAdvanced Status = "bye-advanced"
	StatusCompleted   Status = "completed"
)

// Bye is the synthetic opponent used to pad odd leagues and partial brackets.
const Bye = "BYE"

var (
	ErrInsufficientCompetitors = errors.New("at least two competitors are required")
	ErrDuplicateCompetitor     = errors.New("competitor appears more than once")
	ErrUnknownFormat           = errors.New("unknown schedule format")
)

// ParseFormat maps the wire name of a format onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatLeague, FormatBracket:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Result is the recorded score of a match.
type Result struct {
	ScoreA int `json:"score_a"`
	ScoreB int `json:"score_b"`
}

// Match is one slot of a schedule. In a bracket, a pending match with both
// sides nil is a placeholder waiting on the winners of its feeder matches.
type Match struct {
	ID                string  `json:"id"`
	EventID           string  `json:"event_id"`
	ScheduleBatchID   string  `json:"schedule_batch_id"`
	GenerationBatchID string  `json:"generation_batch_id,omitempty"`
	Format            Format  `json:"format"`
	Round             int     `json:"round"`
	Slot              int     `json:"slot"`
	SideA             *string `json:"side_a"`
	SideB             *string `json:"side_b"`
	Result            *Result `json:"result"`
	Status            Status  `json:"status"`
	Winner            *string `json:"winner,omitempty"`
}

// IsPlaceholder reports whether the match still waits for its participants.
func (m Match) IsPlaceholder() bool {
	return m.Status == StatusPending && (m.SideA == nil || m.SideB == nil)
}

// IsBye reports whether one side of the match is the synthetic bye.
func (m Match) IsBye() bool {
	return (m.SideA != nil && *m.SideA == Bye) || (m.SideB != nil && *m.SideB == Bye)
}

// Playable reports whether a result can be recorded for the match.
func (m Match) Playable() bool {
	return m.Status == StatusPending && !m.IsPlaceholder() && !m.IsBye()
}

// Options tune schedule generation.
type Options struct {
	// Seeded places bracket competitors by skill (descending) instead of a shuffle.
	Seeded bool
	// Source breaks ties and shuffles unseeded brackets. Nil means non-deterministic.
	Source rng.Source
}

func ptr(s string) *string { return &s }
