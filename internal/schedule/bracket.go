package schedule

import (
	"sort"

	"github.com/mauv0809/teamsheet/internal/rng"
	"github.com/mauv0809/teamsheet/internal/roster"
	"github.com/mauv0809/teamsheet/internal/teams"
)

// Bracket builds a single-elimination bracket. Competitors are padded with byes
// up to the next power of two and placed with the standard seeding table, so
// byes go to the top seeds and top seeds meet as late as possible. Rounds after
// the first are placeholders.
func Bracket(competitors []roster.Competitor, opts Options) []Match {
	order := SeedOrder(competitors, opts)
	size := BracketSize(len(order))
	positions := SeedPositions(size)

	matches := make([]Match, 0, size-1)
	for slot := 1; slot <= size/2; slot++ {
		a := seedAt(order, positions[2*slot-2])
		b := seedAt(order, positions[2*slot-1])
		m := Match{
			Format: FormatBracket,
			Round:  1,
			Slot:   slot,
			SideA:  ptr(a),
			SideB:  ptr(b),
			Status: StatusPending,
		}
		switch {
		case b == Bye:
			m.Status = StatusByeAdvanced
			m.Winner = ptr(a)
		case a == Bye:
			m.Status = StatusByeAdvanced
			m.Winner = ptr(b)
		}
		matches = append(matches, m)
	}

	for round, slots := 2, size/4; slots >= 1; round, slots = round+1, slots/2 {
		for slot := 1; slot <= slots; slot++ {
			matches = append(matches, Match{
				Format: FormatBracket,
				Round:  round,
				Slot:   slot,
				Status: StatusPending,
			})
		}
	}
	return matches
}

// SeedOrder returns the competitors in seed order (seed 1 first). Seeded
// brackets rank by effective skill; otherwise the order is a one-time shuffle.
func SeedOrder(competitors []roster.Competitor, opts Options) []roster.Competitor {
	src := opts.Source
	if src == nil {
		src = rng.NewRandom()
	}
	order := make([]roster.Competitor, len(competitors))
	copy(order, competitors)
	rng.Shuffle(src, order)

	if opts.Seeded {
		scores := teams.EffectiveScores(order)
		sort.SliceStable(order, func(i, j int) bool {
			return scores[order[i].ID] > scores[order[j].ID]
		})
	}
	return order
}

// BracketSize returns the smallest power of two that is >= n.
func BracketSize(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// Rounds returns the number of rounds of a bracket with the given size.
func Rounds(size int) int {
	rounds := 0
	for s := size; s > 1; s >>= 1 {
		rounds++
	}
	return rounds
}

// SeedPositions returns the seed number (1-based) placed at each bracket
// position, e.g. [1 8 4 5 2 7 3 6] for eight slots. Adjacent positions meet in
// the first round.
func SeedPositions(size int) []int {
	positions := []int{1}
	for len(positions) < size {
		total := len(positions)*2 + 1
		next := make([]int, 0, len(positions)*2)
		for _, seed := range positions {
			next = append(next, seed, total-seed)
		}
		positions = next
	}
	return positions
}

// NextSlot returns where the winner of (round, slot) plays next and whether it
// takes side A there.
func NextSlot(round, slot int) (nextRound, nextSlot int, sideA bool) {
	return round + 1, (slot + 1) / 2, slot%2 == 1
}

// FeederSlots returns the two slots of the previous round feeding (round, slot).
func FeederSlots(slot int) (int, int) {
	return 2*slot - 1, 2 * slot
}

func seedAt(order []roster.Competitor, seed int) string {
	if seed > len(order) {
		return Bye
	}
	return order[seed-1].ID
}
