package teams

import (
	"errors"
	"fmt"
)

// Strategy selects how a roster is split into teams.
type Strategy string

const (
	StrategyRandom        Strategy = "random"
	StrategySkillBalanced Strategy = "skill-balanced"
)

var (
	ErrInvalidTeamCount         = errors.New("team count must be at least 1")
	ErrInsufficientParticipants = errors.New("not enough participants for the requested team count")
	ErrDuplicateCompetitor      = errors.New("competitor appears more than once in the roster")
	ErrUnknownStrategy          = errors.New("unknown team assignment strategy")
)

// ParseStrategy maps the wire name of a strategy onto a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyRandom, StrategySkillBalanced:
		return Strategy(s), nil
	case "":
		return StrategyRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Team is one bucket of a team split. ID, EventID and GenerationBatchID are
// left empty by Assign and filled in when the split is committed.
type Team struct {
	ID                string   `json:"id"`
	EventID           string   `json:"event_id"`
	GenerationBatchID string   `json:"generation_batch_id"`
	Position          int      `json:"position"`
	Name              string   `json:"name"`
	Color             string   `json:"color"`
	MemberIDs         []string `json:"member_ids"`
	TotalSkill        float64  `json:"total_skill"`
}

var palette = []string{"red", "blue", "green", "yellow", "purple", "orange", "pink", "teal"}

// DefaultName returns the display name of the team at position i (0-based).
func DefaultName(i int) string {
	if i < 26 {
		return fmt.Sprintf("Team %c", 'A'+i)
	}
	return fmt.Sprintf("Team %d", i+1)
}

// DefaultColor returns the bib color of the team at position i (0-based).
func DefaultColor(i int) string {
	return palette[i%len(palette)]
}
