package teams

import (
	"fmt"
	"sort"

	"github.com/mauv0809/teamsheet/internal/rng"
	"github.com/mauv0809/teamsheet/internal/roster"
)

// Assign partitions the roster into teamCount teams. Every competitor ends up
// in exactly one team and team sizes differ by at most one.
func Assign(competitors []roster.Competitor, teamCount int, strategy Strategy, src rng.Source) ([]Team, error) {
	if teamCount < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTeamCount, teamCount)
	}
	if len(competitors) < teamCount {
		return nil, fmt.Errorf("%w: %d participants for %d teams", ErrInsufficientParticipants, len(competitors), teamCount)
	}
	seen := make(map[string]struct{}, len(competitors))
	for _, c := range competitors {
		if _, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCompetitor, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	scores := EffectiveScores(competitors)
	order := make([]roster.Competitor, len(competitors))
	copy(order, competitors)
	rng.Shuffle(src, order)

	var picks []int
	switch strategy {
	case StrategyRandom:
		picks = roundRobinOrder(len(order), teamCount)
	case StrategySkillBalanced:
		// The shuffle above is the tie-break among equal scores.
		sort.SliceStable(order, func(i, j int) bool {
			return scores[order[i].ID] > scores[order[j].ID]
		})
		picks = snakeOrder(len(order), teamCount)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	teams := make([]Team, teamCount)
	for i := range teams {
		teams[i] = Team{
			Position:  i,
			Name:      DefaultName(i),
			Color:     DefaultColor(i),
			MemberIDs: make([]string, 0, len(order)/teamCount+1),
		}
	}
	for i, c := range order {
		t := &teams[picks[i]]
		t.MemberIDs = append(t.MemberIDs, c.ID)
		t.TotalSkill += scores[c.ID]
	}
	return teams, nil
}

// EffectiveScores returns the score used for balancing each competitor. Unrated
// competitors count as the median of the rated ones, or 0 when nobody is rated.
func EffectiveScores(competitors []roster.Competitor) map[string]float64 {
	rated := make([]float64, 0, len(competitors))
	for _, c := range competitors {
		if c.SkillScore != nil {
			rated = append(rated, *c.SkillScore)
		}
	}
	fallback := median(rated)

	scores := make(map[string]float64, len(competitors))
	for _, c := range competitors {
		if c.SkillScore != nil {
			scores[c.ID] = *c.SkillScore
		} else {
			scores[c.ID] = fallback
		}
	}
	return scores
}

// HasRatings reports whether at least one competitor carries a skill score.
func HasRatings(competitors []roster.Competitor) bool {
	for _, c := range competitors {
		if c.SkillScore != nil {
			return true
		}
	}
	return false
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// roundRobinOrder deals pick i to team i mod k.
func roundRobinOrder(n, k int) []int {
	picks := make([]int, n)
	for i := range picks {
		picks[i] = i % k
	}
	return picks
}

// snakeOrder deals 0..k-1, then k-1..0, and so on.
func snakeOrder(n, k int) []int {
	picks := make([]int, n)
	for i := range picks {
		round, pos := i/k, i%k
		if round%2 == 1 {
			pos = k - 1 - pos
		}
		picks[i] = pos
	}
	return picks
}
