package tournament

import (
	"errors"
	"fmt"

	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
)

var (
	ErrInvalidTeamCount         = teams.ErrInvalidTeamCount
	ErrInsufficientParticipants = teams.ErrInsufficientParticipants
	ErrInsufficientCompetitors  = schedule.ErrInsufficientCompetitors

	ErrAlreadyGeneratingConflict = errors.New("another change to this event is in flight or the event has moved on")
	ErrInvalidMatchState         = errors.New("match does not accept a result in its current state")
	ErrAmbiguousResult           = errors.New("elimination matches cannot end in a tie")
	ErrNotALeague                = errors.New("standings need an active league schedule")

	ErrEventIDRequired        = errors.New("event id is required")
	ErrMatchNotFound          = errors.New("match not found")
	ErrScheduleNotFound       = errors.New("schedule batch not found")
	ErrInvalidScore           = errors.New("scores must not be negative")
	ErrUnknownCompetitionType = errors.New("unknown competition type")
)

// ParseCompetitionType maps the wire name of a competition type.
func ParseCompetitionType(s string) (CompetitionType, error) {
	switch CompetitionType(s) {
	case CompetitionTeam, CompetitionIndividual:
		return CompetitionType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompetitionType, s)
	}
}
