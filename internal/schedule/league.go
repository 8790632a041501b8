package schedule

import "github.com/mauv0809/teamsheet/internal/roster"

// League builds a single round-robin with the circle method. Odd fields get a
// bye so that every competitor appears exactly once in every round.
func League(competitors []roster.Competitor) []Match {
	ids := make([]string, 0, len(competitors)+1)
	for _, c := range competitors {
		ids = append(ids, c.ID)
	}
	if len(ids)%2 == 1 {
		ids = append(ids, Bye)
	}

	n := len(ids)
	rounds := n - 1
	others := ids[1:]
	circle := make([]string, n)
	matches := make([]Match, 0, rounds*n/2)

	for r := 0; r < rounds; r++ {
		circle[0] = ids[0]
		for k := range others {
			circle[k+1] = others[(k+r)%len(others)]
		}

		for i := 0; i < n/2; i++ {
			a, b := circle[i], circle[n-1-i]
			// Alternate the fixed competitor's side from round to round.
			if i == 0 && r%2 == 1 {
				a, b = b, a
			}
			if a == Bye {
				a, b = b, a
			}
			m := Match{
				Format: FormatLeague,
				Round:  r + 1,
				Slot:   i + 1,
				SideA:  ptr(a),
				SideB:  ptr(b),
				Status: StatusPending,
			}
			if b == Bye {
				m.Status = StatusByeAdvanced
			}
			matches = append(matches, m)
		}
	}
	return matches
}
