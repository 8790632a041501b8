package schedule

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/teamsheet/internal/roster"
)

// Generate produces the full match plan for the competitors in the given format.
// The returned matches carry no ids; the caller assigns them when committing.
func Generate(competitors []roster.Competitor, format Format, opts Options) ([]Match, error) {
	if len(competitors) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientCompetitors, len(competitors))
	}
	seen := make(map[string]struct{}, len(competitors))
	for _, c := range competitors {
		if _, ok := seen[c.ID]; ok || c.ID == Bye {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCompetitor, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	var matches []Match
	switch format {
	case FormatLeague:
		matches = League(competitors)
	case FormatBracket:
		matches = Bracket(competitors, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	log.Debug("Generated schedule", "format", format, "competitors", len(competitors), "matches", len(matches))
	return matches, nil
}
