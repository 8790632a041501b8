package tournament_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mauv0809/teamsheet/internal/database"
	"github.com/mauv0809/teamsheet/internal/metrics"
	"github.com/mauv0809/teamsheet/internal/pubsub"
	"github.com/mauv0809/teamsheet/internal/roster"
	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
	"github.com/mauv0809/teamsheet/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventID = "event-1"

type testEnv struct {
	svc     *tournament.Service
	roster  roster.Store
	store   tournament.Store
	metrics *metrics.Mock
	pubsub  *pubsub.MockPubSubClient
}

// setupTestService wires a Service to an in-memory database and mock side effects.
func setupTestService(t *testing.T, wrap ...func(roster.Source) roster.Source) (*testEnv, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	env := &testEnv{
		roster:  roster.New(db),
		store:   tournament.NewStore(db),
		metrics: metrics.NewMock(),
		pubsub:  pubsub.NewMock("TEST"),
	}
	var source roster.Source = env.roster
	for _, w := range wrap {
		source = w(source)
	}
	env.svc = tournament.New(env.store, source, env.metrics, env.pubsub)
	return env, teardown
}

func seed(v uint64) *uint64 { return &v }

func skill(v float64) *float64 { return &v }

// addPlayers adds attending participants p1..pn with the given ratings.
func addPlayers(t *testing.T, rs roster.Store, skills ...*float64) []string {
	t.Helper()
	ids := make([]string, 0, len(skills))
	for i, s := range skills {
		p, err := rs.UpsertParticipant(context.Background(), roster.Participant{
			ID:          fmt.Sprintf("p%d", i+1),
			EventID:     eventID,
			DisplayName: fmt.Sprintf("Player %d", i+1),
			SkillScore:  s,
			Attending:   true,
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	return ids
}

func unrated(n int) []*float64 { return make([]*float64, n) }

func memberSet(split []teams.Team) []string {
	var all []string
	for _, team := range split {
		all = append(all, team.MemberIDs...)
	}
	sort.Strings(all)
	return all
}

func findMatch(t *testing.T, matches []schedule.Match, round, slot int) schedule.Match {
	t.Helper()
	for _, m := range matches {
		if m.Round == round && m.Slot == slot {
			return m
		}
	}
	t.Fatalf("no match at round %d slot %d", round, slot)
	return schedule.Match{}
}

func sides(m schedule.Match) [2]string {
	var out [2]string
	if m.SideA != nil {
		out[0] = *m.SideA
	}
	if m.SideB != nil {
		out[1] = *m.SideB
	}
	return out
}

func TestGenerateTeams(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	ids := addPlayers(t, env.roster, unrated(10)...)

	split, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{
		EventID:   eventID,
		TeamCount: 2,
		Strategy:  teams.StrategyRandom,
		Seed:      seed(1),
	})
	require.NoError(t, err)
	require.Len(t, split, 2)
	assert.Len(t, split[0].MemberIDs, 5)
	assert.Len(t, split[1].MemberIDs, 5)
	sort.Strings(ids)
	assert.Equal(t, ids, memberSet(split))
	assert.Equal(t, "Team A", split[0].Name)

	view, err := env.svc.Teams(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, view.Batch)
	assert.Equal(t, 1, view.Batch.Seq)
	assert.Equal(t, split, view.Teams)
	for _, team := range view.Teams {
		assert.Equal(t, view.Batch.ID, team.GenerationBatchID)
	}

	assert.Equal(t, 1, env.metrics.TeamsGenerated("random"))
	calls := env.pubsub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, pubsub.EventTeamsGenerated, calls[0].Topic)
	event := calls[0].Data.(tournament.TeamsGenerated)
	assert.Equal(t, view.Batch.ID, event.GenerationBatchID)
	assert.Empty(t, event.SupersededScheduleBatchID)

	state, err := env.svc.State(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, tournament.PhaseTeamsGenerated, state.Phase)
}

func TestGenerateTeamsIsReproducibleWithSeed(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, skill(5), skill(3), nil, skill(8), skill(1), nil, skill(4))

	cfg := tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 3, Strategy: teams.StrategySkillBalanced, Seed: seed(42)}
	first, err := env.svc.GenerateTeams(ctx, cfg)
	require.NoError(t, err)
	second, err := env.svc.GenerateTeams(ctx, cfg)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].MemberIDs, second[i].MemberIDs)
		assert.Equal(t, first[i].TotalSkill, second[i].TotalSkill)
		assert.NotEqual(t, first[i].GenerationBatchID, second[i].GenerationBatchID)
	}

	view, err := env.svc.Teams(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Batch.Seq)
	assert.Equal(t, second[0].GenerationBatchID, view.Batch.ID)
}

func TestGenerateTeamsErrors(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	addPlayers(t, env.roster, unrated(3)...)

	tests := []struct {
		name string
		cfg  tournament.GenerateTeamsConfig
		want error
	}{
		{"zero teams", tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 0}, tournament.ErrInvalidTeamCount},
		{"more teams than players", tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 4}, tournament.ErrInsufficientParticipants},
		{"empty roster", tournament.GenerateTeamsConfig{EventID: "other", TeamCount: 2}, tournament.ErrInsufficientParticipants},
		{"missing event", tournament.GenerateTeamsConfig{TeamCount: 2}, tournament.ErrEventIDRequired},
		{"unknown strategy", tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2, Strategy: "alphabetical"}, teams.ErrUnknownStrategy},
		{"stale expected batch", tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2, ExpectedGenerationBatchID: "gone"}, tournament.ErrAlreadyGeneratingConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.GenerateTeams(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	view, err := env.svc.Teams(context.Background(), eventID)
	require.NoError(t, err)
	assert.Nil(t, view.Batch, "failed generations must not leave a batch behind")
	assert.Equal(t, 1, env.metrics.Conflicts())
}

func TestGenerateTeamsWithExpectedBatch(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(4)...)

	first, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2})
	require.NoError(t, err)
	_, err = env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{
		EventID:                   eventID,
		TeamCount:                 2,
		ExpectedGenerationBatchID: first[0].GenerationBatchID,
	})
	require.NoError(t, err)

	// The first batch is no longer active.
	_, err = env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{
		EventID:                   eventID,
		TeamCount:                 2,
		ExpectedGenerationBatchID: first[0].GenerationBatchID,
	})
	assert.ErrorIs(t, err, tournament.ErrAlreadyGeneratingConflict)
}

// blockingSource holds Snapshot until release is closed.
type blockingSource struct {
	roster.Source
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSource) Snapshot(ctx context.Context, eventID string) (roster.Snapshot, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.Source.Snapshot(ctx, eventID)
}

func TestConcurrentGenerationIsRejected(t *testing.T) {
	blocking := &blockingSource{entered: make(chan struct{}), release: make(chan struct{})}
	env, teardown := setupTestService(t, func(s roster.Source) roster.Source {
		blocking.Source = s
		return blocking
	})
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(6)...)

	done := make(chan error, 1)
	go func() {
		_, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2})
		done <- err
	}()
	<-blocking.entered

	_, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 3})
	assert.ErrorIs(t, err, tournament.ErrAlreadyGeneratingConflict)
	_, err = env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionIndividual, Format: schedule.FormatLeague})
	assert.ErrorIs(t, err, tournament.ErrAlreadyGeneratingConflict)

	// Other events are not blocked.
	_, err = env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: "event-2", TeamCount: 2})
	assert.ErrorIs(t, err, tournament.ErrInsufficientParticipants)

	close(blocking.release)
	require.NoError(t, <-done)

	view, err := env.svc.Teams(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, view.Teams, 2)
	assert.Equal(t, 2, env.metrics.Conflicts())
}

// blockingPublisher holds the first SendMessage until release is closed.
type blockingPublisher struct {
	*pubsub.MockPubSubClient
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingPublisher) SendMessage(topic pubsub.EventType, data any) error {
	if b.calls.Add(1) == 1 {
		close(b.entered)
		<-b.release
	}
	return b.MockPubSubClient.SendMessage(topic, data)
}

func TestSlowPublishDoesNotHoldEvent(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(6)...)

	publisher := &blockingPublisher{
		MockPubSubClient: pubsub.NewMock("TEST"),
		entered:          make(chan struct{}),
		release:          make(chan struct{}),
	}
	svc := tournament.New(env.store, env.roster, env.metrics, publisher)

	done := make(chan error, 1)
	go func() {
		_, err := svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2})
		done <- err
	}()
	<-publisher.entered

	_, err := svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 3})
	require.NoError(t, err)

	close(publisher.release)
	require.NoError(t, <-done)

	view, err := svc.Teams(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, view.Teams, 3)
	assert.Equal(t, 0, env.metrics.Conflicts())
	assert.Len(t, publisher.Calls(), 2)
}

func TestTeamLeagueAndRegeneration(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(8)...)

	split, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 4, Seed: seed(3)})
	require.NoError(t, err)

	matches, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{
		EventID:         eventID,
		CompetitionType: tournament.CompetitionTeam,
		Format:          schedule.FormatLeague,
		Seed:            seed(3),
	})
	require.NoError(t, err)
	require.Len(t, matches, 6)

	teamIDs := map[string]bool{}
	for _, team := range split {
		teamIDs[team.ID] = true
	}
	pairs := map[[2]string]bool{}
	for _, m := range matches {
		assert.Equal(t, schedule.StatusPending, m.Status)
		assert.Equal(t, split[0].GenerationBatchID, m.GenerationBatchID)
		assert.True(t, teamIDs[*m.SideA])
		assert.True(t, teamIDs[*m.SideB])
		p := sides(m)
		sort.Strings(p[:])
		assert.False(t, pairs[p], "pair %v scheduled twice", p)
		pairs[p] = true
	}

	state, err := env.svc.State(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, tournament.PhaseMatchesGenerated, state.Phase)
	assert.Equal(t, 6, state.PendingMatches)

	// New teams invalidate the schedule built on the old ones.
	_, err = env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2})
	require.NoError(t, err)

	view, err := env.svc.Matches(ctx, eventID)
	require.NoError(t, err)
	assert.Nil(t, view.Batch)
	assert.Empty(t, view.Matches)

	state, err = env.svc.State(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, tournament.PhaseTeamsGenerated, state.Phase)

	history, err := env.svc.ScheduleHistory(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].Active())

	old, err := env.svc.ScheduleMatches(ctx, history[0].ID)
	require.NoError(t, err)
	assert.Len(t, old.Matches, 6)

	calls := env.pubsub.Calls()
	last := calls[len(calls)-1].Data.(tournament.TeamsGenerated)
	assert.Equal(t, history[0].ID, last.SupersededScheduleBatchID)

	_, err = env.svc.RecordResult(ctx, eventID, matches[0].ID, 1, 0)
	assert.ErrorIs(t, err, tournament.ErrInvalidMatchState)
}

func TestGenerateMatchesErrors(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()

	_, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionTeam, Format: schedule.FormatLeague})
	assert.ErrorIs(t, err, tournament.ErrInsufficientCompetitors)

	_, err = env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionIndividual, Format: schedule.FormatLeague})
	assert.ErrorIs(t, err, tournament.ErrInsufficientParticipants)

	addPlayers(t, env.roster, unrated(1)...)
	_, err = env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionIndividual, Format: schedule.FormatBracket})
	assert.ErrorIs(t, err, tournament.ErrInsufficientCompetitors)

	_, err = env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: "pairs", Format: schedule.FormatBracket})
	assert.ErrorIs(t, err, tournament.ErrUnknownCompetitionType)

	_, err = env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionIndividual, Format: "swiss"})
	assert.ErrorIs(t, err, schedule.ErrUnknownFormat)

	_, err = env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionIndividual, Format: schedule.FormatLeague, ExpectedScheduleBatchID: "gone"})
	assert.ErrorIs(t, err, tournament.ErrAlreadyGeneratingConflict)

	history, err := env.svc.ScheduleHistory(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSeededBracketRunsToChampion(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, skill(5), skill(4), skill(3), skill(2), skill(1))

	matches, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{
		EventID:         eventID,
		CompetitionType: tournament.CompetitionIndividual,
		Format:          schedule.FormatBracket,
		Seed:            seed(9),
	})
	require.NoError(t, err)
	require.Len(t, matches, 7)

	assert.Equal(t, [2]string{"p1", schedule.Bye}, sides(findMatch(t, matches, 1, 1)))
	assert.Equal(t, [2]string{"p4", "p5"}, sides(findMatch(t, matches, 1, 2)))
	assert.Equal(t, [2]string{"p2", schedule.Bye}, sides(findMatch(t, matches, 1, 3)))
	assert.Equal(t, [2]string{"p3", schedule.Bye}, sides(findMatch(t, matches, 1, 4)))
	assert.True(t, findMatch(t, matches, 2, 1).IsPlaceholder())
	// Both feeders are byes, so the semi-final is known upfront.
	assert.Equal(t, [2]string{"p2", "p3"}, sides(findMatch(t, matches, 2, 2)))
	assert.True(t, findMatch(t, matches, 3, 1).IsPlaceholder())

	bye := findMatch(t, matches, 1, 1)
	_, err = env.svc.RecordResult(ctx, eventID, bye.ID, 1, 0)
	assert.ErrorIs(t, err, tournament.ErrInvalidMatchState)

	final := findMatch(t, matches, 3, 1)
	_, err = env.svc.RecordResult(ctx, eventID, final.ID, 1, 0)
	assert.ErrorIs(t, err, tournament.ErrInvalidMatchState)

	quarter := findMatch(t, matches, 1, 2)
	_, err = env.svc.RecordResult(ctx, eventID, quarter.ID, 2, 2)
	assert.ErrorIs(t, err, tournament.ErrAmbiguousResult)

	changed, err := env.svc.RecordResult(ctx, eventID, quarter.ID, 3, 1)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, "p4", *changed[0].Winner)
	assert.Equal(t, [2]string{"p1", "p4"}, sides(changed[1]))

	_, err = env.svc.RecordResult(ctx, eventID, quarter.ID, 3, 1)
	assert.ErrorIs(t, err, tournament.ErrInvalidMatchState, "completed matches are immutable")

	state, err := env.svc.State(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, tournament.PhaseInProgress, state.Phase)

	semi1 := findMatch(t, matches, 2, 1)
	semi2 := findMatch(t, matches, 2, 2)
	_, err = env.svc.RecordResult(ctx, eventID, semi1.ID, 2, 0)
	require.NoError(t, err)
	changed, err = env.svc.RecordResult(ctx, eventID, semi2.ID, 0, 1)
	require.NoError(t, err)
	require.Len(t, changed, 2)
	assert.Equal(t, [2]string{"p1", "p3"}, sides(changed[1]))

	_, err = env.svc.RecordResult(ctx, eventID, final.ID, 0, 4)
	require.NoError(t, err)

	state, err = env.svc.State(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, tournament.PhaseCompleted, state.Phase)
	require.NotNil(t, state.Champion)
	assert.Equal(t, "p3", *state.Champion)
	assert.Equal(t, 4, state.CompletedMatches)
	assert.Equal(t, 0, state.PendingMatches)

	assert.Equal(t, 4, env.metrics.ResultsRecorded())
	assert.Equal(t, 1, env.metrics.SchedulesGenerated("bracket"))

	_, err = env.svc.Standings(ctx, eventID)
	assert.ErrorIs(t, err, tournament.ErrNotALeague)
}

func TestLeagueStandings(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(3)...)

	matches, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{
		EventID:         eventID,
		CompetitionType: tournament.CompetitionIndividual,
		Format:          schedule.FormatLeague,
	})
	require.NoError(t, err)

	standings, err := env.svc.Standings(ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, standings, 3)

	scores := map[[2]string][2]int{
		{"p1", "p2"}: {2, 1},
		{"p1", "p3"}: {0, 0},
		{"p2", "p3"}: {3, 0},
	}
	played := 0
	for _, m := range matches {
		if !m.Playable() {
			assert.True(t, m.IsBye())
			continue
		}
		key := sides(m)
		score, ok := scores[key]
		if !ok {
			key = [2]string{key[1], key[0]}
			score, ok = scores[key]
			score = [2]int{score[1], score[0]}
		}
		require.True(t, ok, "unexpected pairing %v", sides(m))
		_, err := env.svc.RecordResult(ctx, eventID, m.ID, score[0], score[1])
		require.NoError(t, err)
		played++
	}
	assert.Equal(t, 3, played)

	standings, err = env.svc.Standings(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	// p1: W 2-1, D 0-0 = 4 pts. p2: L 1-2, W 3-0 = 3 pts. p3: D, L = 1 pt.
	assert.Equal(t, tournament.Standing{CompetitorID: "p1", Played: 2, Won: 1, Drawn: 1, ScoreFor: 2, ScoreAgainst: 1, Points: 4}, standings[0])
	assert.Equal(t, tournament.Standing{CompetitorID: "p2", Played: 2, Won: 1, Lost: 1, ScoreFor: 4, ScoreAgainst: 2, Points: 3}, standings[1])
	assert.Equal(t, tournament.Standing{CompetitorID: "p3", Played: 2, Drawn: 1, Lost: 1, ScoreFor: 0, ScoreAgainst: 3, Points: 1}, standings[2])

	state, err := env.svc.State(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, tournament.PhaseCompleted, state.Phase)
	assert.Nil(t, state.Champion)
}

func TestRecordResultErrors(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(4)...)

	first, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionIndividual, Format: schedule.FormatLeague})
	require.NoError(t, err)

	_, err = env.svc.RecordResult(ctx, eventID, first[0].ID, -1, 2)
	assert.ErrorIs(t, err, tournament.ErrInvalidScore)

	_, err = env.svc.RecordResult(ctx, eventID, "missing", 1, 0)
	assert.ErrorIs(t, err, tournament.ErrMatchNotFound)

	_, err = env.svc.RecordResult(ctx, "event-2", first[0].ID, 1, 0)
	assert.ErrorIs(t, err, tournament.ErrMatchNotFound)

	second, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{
		EventID:                 eventID,
		CompetitionType:         tournament.CompetitionIndividual,
		Format:                  schedule.FormatLeague,
		ExpectedScheduleBatchID: first[0].ScheduleBatchID,
	})
	require.NoError(t, err)

	_, err = env.svc.RecordResult(ctx, eventID, first[0].ID, 1, 0)
	assert.ErrorIs(t, err, tournament.ErrInvalidMatchState, "superseded matches are read-only")

	changed, err := env.svc.RecordResult(ctx, eventID, second[0].ID, 1, 1)
	require.NoError(t, err, "league matches may be drawn")
	require.Len(t, changed, 1)
	assert.Nil(t, changed[0].Winner)

	history, err := env.svc.ScheduleHistory(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Seq)
	assert.True(t, history[0].Active())
	assert.False(t, history[1].Active())

	_, err = env.svc.ScheduleMatches(ctx, "missing")
	assert.ErrorIs(t, err, tournament.ErrScheduleNotFound)
}

func TestIndividualScheduleSurvivesTeamRegeneration(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(4)...)

	matches, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionIndividual, Format: schedule.FormatBracket})
	require.NoError(t, err)

	_, err = env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2})
	require.NoError(t, err)

	view, err := env.svc.Matches(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, view.Batch)
	assert.Equal(t, matches[0].ScheduleBatchID, view.Batch.ID)
	assert.Empty(t, view.Batch.GenerationBatchID)
}

func TestSkillBalancedTeamsSeedTheBracket(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, skill(9), skill(8), skill(1), skill(1), skill(1), skill(1))

	split, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 3, Strategy: teams.StrategySkillBalanced, Seed: seed(5)})
	require.NoError(t, err)

	matches, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionTeam, Format: schedule.FormatBracket, Seed: seed(5)})
	require.NoError(t, err)

	best := split[0]
	for _, team := range split[1:] {
		if team.TotalSkill > best.TotalSkill {
			best = team
		}
	}
	top := findMatch(t, matches, 1, 1)
	assert.Equal(t, best.ID, *top.SideA, "the strongest team is seed one")
	assert.Equal(t, schedule.Bye, *top.SideB)
}

func TestUnevenTeamsSeedByMeanSkill(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, skill(7), skill(7), skill(6), skill(6), skill(6), skill(5), skill(5))

	split, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 3, Strategy: teams.StrategySkillBalanced, Seed: seed(3)})
	require.NoError(t, err)

	mean := func(team teams.Team) float64 { return team.TotalSkill / float64(len(team.MemberIDs)) }
	byTotal, byMean := split[0], split[0]
	for _, team := range split[1:] {
		if team.TotalSkill > byTotal.TotalSkill {
			byTotal = team
		}
		if mean(team) > mean(byMean) {
			byMean = team
		}
	}
	require.Len(t, byTotal.MemberIDs, 3)
	require.NotEqual(t, byTotal.ID, byMean.ID, "the three-member team has the largest total but not the best average")

	matches, err := env.svc.GenerateMatches(ctx, tournament.GenerateMatchesConfig{EventID: eventID, CompetitionType: tournament.CompetitionTeam, Format: schedule.FormatBracket, Seed: seed(3)})
	require.NoError(t, err)

	top := findMatch(t, matches, 1, 1)
	assert.Equal(t, byMean.ID, *top.SideA)
	assert.Equal(t, schedule.Bye, *top.SideB)
}

func TestPublishFailureDoesNotFailCommand(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, unrated(4)...)
	env.pubsub.SendMessageFunc = func(pubsub.EventType, any) error { return errors.New("unavailable") }

	split, err := env.svc.GenerateTeams(ctx, tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2})
	require.NoError(t, err)
	assert.Len(t, split, 2)
	assert.Equal(t, 1, env.metrics.PublishFailed())
}

func TestPreviewTeamsDoesNotCommit(t *testing.T) {
	env, teardown := setupTestService(t)
	defer teardown()
	ctx := context.Background()
	addPlayers(t, env.roster, skill(1), skill(2), skill(3), skill(4))

	cfg := tournament.GenerateTeamsConfig{EventID: eventID, TeamCount: 2, Strategy: teams.StrategySkillBalanced, Seed: seed(11)}
	preview, err := env.svc.PreviewTeams(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, preview, 2)
	assert.Equal(t, 5.0, preview[0].TotalSkill)
	assert.Equal(t, 5.0, preview[1].TotalSkill)

	view, err := env.svc.Teams(ctx, eventID)
	require.NoError(t, err)
	assert.Nil(t, view.Batch)
	assert.Empty(t, env.pubsub.Calls())

	committed, err := env.svc.GenerateTeams(ctx, cfg)
	require.NoError(t, err)
	for i := range preview {
		assert.Equal(t, preview[i].MemberIDs, committed[i].MemberIDs, "same seed, same split")
	}
}
