package roster

import (
	"database/sql"
	"sync"
	"time"
)

// Kind distinguishes single players from whole teams competing as one side.
type Kind string

const (
	KindIndividual Kind = "individual"
	KindTeam       Kind = "team"
)

// Competitor is one eligible entrant as seen by team assignment and scheduling.
// A nil SkillScore means the competitor is unrated.
type Competitor struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	SkillScore  *float64 `json:"skill_score,omitempty"`
	Kind        Kind     `json:"kind"`
}

// Snapshot is the immutable attending roster of an event at one point in time.
type Snapshot struct {
	EventID     string       `json:"event_id"`
	Competitors []Competitor `json:"competitors"`
	TakenAt     time.Time    `json:"taken_at"`
}

// Participant is a roster row owned by the participant store.
type Participant struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	DisplayName string    `json:"display_name"`
	SkillScore  *float64  `json:"skill_score,omitempty"`
	Attending   bool      `json:"attending"`
	Guest       bool      `json:"guest"`
	CreatedAt   time.Time `json:"created_at"`
}

// Competitor converts the participant into an individual competitor.
func (p Participant) Competitor() Competitor {
	return Competitor{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		SkillScore:  p.SkillScore,
		Kind:        KindIndividual,
	}
}

// store handles all database operations for event participants.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}
