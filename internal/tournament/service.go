package tournament

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/teamsheet/internal/metrics"
	"github.com/mauv0809/teamsheet/internal/pubsub"
	"github.com/mauv0809/teamsheet/internal/rng"
	"github.com/mauv0809/teamsheet/internal/roster"
	"github.com/mauv0809/teamsheet/internal/schedule"
	"github.com/mauv0809/teamsheet/internal/teams"
	"golang.org/x/sync/semaphore"
)

// New creates a new Service.
func New(store Store, source roster.Source, metrics metrics.Metrics, pubsub pubsub.PubSubClient) *Service {
	return &Service{
		store:     store,
		roster:    source,
		metrics:   metrics,
		pubsub:    pubsub,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
		newSource: rng.FromSeed,
		locks:     make(map[string]*semaphore.Weighted),
	}
}

// acquire takes the single-writer lock of an event without waiting. The
// returned release func may be called more than once.
func (s *Service) acquire(eventID string) (func(), error) {
	if eventID == "" {
		return nil, ErrEventIDRequired
	}
	s.mu.Lock()
	sem, ok := s.locks[eventID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		s.locks[eventID] = sem
	}
	s.mu.Unlock()

	if !sem.TryAcquire(1) {
		s.metrics.IncConflicts()
		log.Warn("Rejected concurrent change", "eventID", eventID)
		return nil, fmt.Errorf("%w: event %s", ErrAlreadyGeneratingConflict, eventID)
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}

// GenerateTeams splits the attending roster into a new generation batch and
// supersedes the previous split together with any schedule built on it.
func (s *Service) GenerateTeams(ctx context.Context, cfg GenerateTeamsConfig) ([]teams.Team, error) {
	release, err := s.acquire(cfg.EventID)
	if err != nil {
		return nil, err
	}
	defer release()
	start := s.now()

	strategy, err := teams.ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}

	current, _, err := s.store.ActiveGeneration(ctx, cfg.EventID)
	if err != nil {
		return nil, err
	}
	if cfg.ExpectedGenerationBatchID != "" && (current == nil || current.ID != cfg.ExpectedGenerationBatchID) {
		s.metrics.IncConflicts()
		return nil, fmt.Errorf("%w: expected generation batch %s is no longer active", ErrAlreadyGeneratingConflict, cfg.ExpectedGenerationBatchID)
	}

	snapshot, err := s.roster.Snapshot(ctx, cfg.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	split, err := teams.Assign(snapshot.Competitors, cfg.TeamCount, strategy, s.newSource(cfg.Seed))
	if err != nil {
		return nil, err
	}

	now := s.now()
	batch := &GenerationBatch{
		ID:        s.newID(),
		EventID:   cfg.EventID,
		Strategy:  strategy,
		TeamCount: cfg.TeamCount,
		CreatedAt: now,
	}
	for i := range split {
		split[i].ID = s.newID()
		split[i].EventID = cfg.EventID
		split[i].GenerationBatchID = batch.ID
	}

	supersededSchedule, err := s.store.CommitTeams(ctx, batch, split, now)
	if err != nil {
		return nil, err
	}

	s.metrics.IncTeamsGenerated(string(strategy))
	s.metrics.ObserveGenerationDuration(s.now().Sub(start).Seconds())
	log.Info("Generated teams", "eventID", cfg.EventID, "batchID", batch.ID, "seq", batch.Seq, "strategy", strategy, "teams", len(split), "participants", len(snapshot.Competitors))
	if supersededSchedule != "" {
		log.Info("Superseded schedule after team regeneration", "eventID", cfg.EventID, "scheduleBatchID", supersededSchedule)
	}

	// The commit is done; a slow publish must not hold the event.
	release()
	s.publish(pubsub.EventTeamsGenerated, TeamsGenerated{
		EventID:                   cfg.EventID,
		GenerationBatchID:         batch.ID,
		Seq:                       batch.Seq,
		Strategy:                  string(strategy),
		TeamCount:                 len(split),
		SupersededScheduleBatchID: supersededSchedule,
	})
	return split, nil
}

// PreviewTeams runs the split for cfg without storing it. Nothing is superseded.
func (s *Service) PreviewTeams(ctx context.Context, cfg GenerateTeamsConfig) ([]teams.Team, error) {
	if cfg.EventID == "" {
		return nil, ErrEventIDRequired
	}
	strategy, err := teams.ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}
	snapshot, err := s.roster.Snapshot(ctx, cfg.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	split, err := teams.Assign(snapshot.Competitors, cfg.TeamCount, strategy, s.newSource(cfg.Seed))
	if err != nil {
		return nil, err
	}
	for i := range split {
		split[i].EventID = cfg.EventID
	}
	log.Debug("Previewed teams", "eventID", cfg.EventID, "strategy", strategy, "teams", len(split))
	return split, nil
}

// GenerateMatches builds a schedule for the active teams or the individual
// roster and supersedes the previous schedule of the event.
func (s *Service) GenerateMatches(ctx context.Context, cfg GenerateMatchesConfig) ([]schedule.Match, error) {
	release, err := s.acquire(cfg.EventID)
	if err != nil {
		return nil, err
	}
	defer release()
	start := s.now()

	if _, err := schedule.ParseFormat(string(cfg.Format)); err != nil {
		return nil, err
	}
	if _, err := ParseCompetitionType(string(cfg.CompetitionType)); err != nil {
		return nil, err
	}

	if cfg.ExpectedScheduleBatchID != "" {
		current, _, err := s.store.ActiveSchedule(ctx, cfg.EventID)
		if err != nil {
			return nil, err
		}
		if current == nil || current.ID != cfg.ExpectedScheduleBatchID {
			s.metrics.IncConflicts()
			return nil, fmt.Errorf("%w: expected schedule batch %s is no longer active", ErrAlreadyGeneratingConflict, cfg.ExpectedScheduleBatchID)
		}
	}

	competitors, generationID, seeded, err := s.competitors(ctx, cfg)
	if err != nil {
		return nil, err
	}

	matches, err := schedule.Generate(competitors, cfg.Format, schedule.Options{
		Seeded: seeded,
		Source: s.newSource(cfg.Seed),
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	batch := &ScheduleBatch{
		ID:                s.newID(),
		EventID:           cfg.EventID,
		GenerationBatchID: generationID,
		Format:            cfg.Format,
		CompetitionType:   cfg.CompetitionType,
		CreatedAt:         now,
	}
	for i := range matches {
		matches[i].ID = s.newID()
		matches[i].EventID = cfg.EventID
		matches[i].ScheduleBatchID = batch.ID
		matches[i].GenerationBatchID = generationID
	}
	if cfg.Format == schedule.FormatBracket {
		advance(matches)
	}

	superseded, err := s.store.CommitSchedule(ctx, batch, matches, now)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSchedulesGenerated(string(cfg.Format))
	s.metrics.ObserveGenerationDuration(s.now().Sub(start).Seconds())
	log.Info("Generated matches", "eventID", cfg.EventID, "batchID", batch.ID, "seq", batch.Seq, "format", cfg.Format, "type", cfg.CompetitionType, "competitors", len(competitors), "matches", len(matches), "seeded", seeded)

	release()
	s.publish(pubsub.EventScheduleGenerated, ScheduleGenerated{
		EventID:                   cfg.EventID,
		ScheduleBatchID:           batch.ID,
		Seq:                       batch.Seq,
		Format:                    string(cfg.Format),
		CompetitionType:           string(cfg.CompetitionType),
		Matches:                   len(matches),
		SupersededScheduleBatchID: superseded,
	})
	return matches, nil
}

// competitors resolves who is scheduled and whether a ranking exists for seeding.
func (s *Service) competitors(ctx context.Context, cfg GenerateMatchesConfig) ([]roster.Competitor, string, bool, error) {
	if cfg.CompetitionType == CompetitionIndividual {
		snapshot, err := s.roster.Snapshot(ctx, cfg.EventID)
		if err != nil {
			return nil, "", false, fmt.Errorf("failed to load roster: %w", err)
		}
		if len(snapshot.Competitors) == 0 {
			return nil, "", false, fmt.Errorf("%w: no attending participants", ErrInsufficientParticipants)
		}
		return snapshot.Competitors, "", teams.HasRatings(snapshot.Competitors), nil
	}

	batch, split, err := s.store.ActiveGeneration(ctx, cfg.EventID)
	if err != nil {
		return nil, "", false, err
	}
	if batch == nil {
		return nil, "", false, fmt.Errorf("%w: no teams have been generated", ErrInsufficientCompetitors)
	}
	seeded := batch.Strategy == teams.StrategySkillBalanced
	competitors := make([]roster.Competitor, 0, len(split))
	for _, team := range split {
		c := roster.Competitor{ID: team.ID, DisplayName: team.Name, Kind: roster.KindTeam}
		// Teams may differ in size by one, so rank by skill per member.
		if seeded && len(team.MemberIDs) > 0 {
			mean := team.TotalSkill / float64(len(team.MemberIDs))
			c.SkillScore = &mean
		}
		competitors = append(competitors, c)
	}
	return competitors, batch.ID, seeded, nil
}

// RecordResult completes a pending match of the active schedule and, in a
// bracket, fills the next round once both feeder matches have a winner. It
// returns every match it changed.
func (s *Service) RecordResult(ctx context.Context, eventID, matchID string, scoreA, scoreB int) ([]schedule.Match, error) {
	release, err := s.acquire(eventID)
	if err != nil {
		return nil, err
	}
	defer release()

	if scoreA < 0 || scoreB < 0 {
		return nil, fmt.Errorf("%w: %d-%d", ErrInvalidScore, scoreA, scoreB)
	}

	batch, matches, err := s.store.ActiveSchedule(ctx, eventID)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range matches {
		if matches[i].ID == matchID {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Distinguish a superseded match from an unknown one.
		old, err := s.store.FindMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		if old.EventID != eventID {
			return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		return nil, fmt.Errorf("%w: match %s belongs to superseded schedule %s", ErrInvalidMatchState, matchID, old.ScheduleBatchID)
	}

	m := &matches[idx]
	if !m.Playable() {
		return nil, fmt.Errorf("%w: match %s is %s", ErrInvalidMatchState, matchID, describe(*m))
	}
	if m.Format == schedule.FormatBracket && scoreA == scoreB {
		return nil, fmt.Errorf("%w: %d-%d", ErrAmbiguousResult, scoreA, scoreB)
	}

	m.Result = &schedule.Result{ScoreA: scoreA, ScoreB: scoreB}
	m.Status = schedule.StatusCompleted
	switch {
	case scoreA > scoreB:
		m.Winner = m.SideA
	case scoreB > scoreA:
		m.Winner = m.SideB
	}

	changed := []schedule.Match{*m}
	if m.Format == schedule.FormatBracket {
		for _, i := range advance(matches) {
			changed = append(changed, matches[i])
		}
	}

	if err := s.store.UpdateMatches(ctx, batch.ID, changed); err != nil {
		return nil, err
	}

	s.metrics.IncResultsRecorded()
	phase := phaseOf(batch, matches)
	log.Info("Recorded result", "eventID", eventID, "matchID", matchID, "score", fmt.Sprintf("%d-%d", scoreA, scoreB), "advanced", len(changed)-1, "phase", phase)

	advanced := make([]string, 0, len(changed)-1)
	for _, c := range changed[1:] {
		advanced = append(advanced, c.ID)
	}
	release()
	s.publish(pubsub.EventResultRecorded, ResultRecorded{
		EventID:          eventID,
		ScheduleBatchID:  batch.ID,
		MatchID:          matchID,
		ScoreA:           scoreA,
		ScoreB:           scoreB,
		Winner:           deref(m.Winner),
		AdvancedMatchIDs: advanced,
		Phase:            string(phase),
	})
	return changed, nil
}

// advance fills bracket placeholders whose two feeder matches both have a
// winner, and returns the indices it changed.
func advance(matches []schedule.Match) []int {
	type key struct{ round, slot int }
	index := make(map[key]int, len(matches))
	for i, m := range matches {
		index[key{m.Round, m.Slot}] = i
	}

	order := make([]int, len(matches))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return matches[order[a]].Round < matches[order[b]].Round })

	var changed []int
	for _, i := range order {
		m := &matches[i]
		if m.Round < 2 || !m.IsPlaceholder() {
			continue
		}
		slotA, slotB := schedule.FeederSlots(m.Slot)
		fa, okA := index[key{m.Round - 1, slotA}]
		fb, okB := index[key{m.Round - 1, slotB}]
		if !okA || !okB || !resolved(matches[fa]) || !resolved(matches[fb]) {
			continue
		}
		a, b := *matches[fa].Winner, *matches[fb].Winner
		m.SideA = &a
		m.SideB = &b
		m.Status = schedule.StatusPending
		changed = append(changed, i)
	}
	return changed
}

func resolved(m schedule.Match) bool {
	return m.Winner != nil && (m.Status == schedule.StatusCompleted || m.Status == schedule.StatusByeAdvanced)
}

func describe(m schedule.Match) string {
	switch {
	case m.Status == schedule.StatusCompleted:
		return "already completed"
	case m.Status == schedule.StatusByeAdvanced || m.IsBye():
		return "a bye"
	case m.IsPlaceholder():
		return "waiting for earlier rounds"
	default:
		return string(m.Status)
	}
}

func (s *Service) publish(topic pubsub.EventType, data any) {
	if err := s.pubsub.SendMessage(topic, data); err != nil {
		s.metrics.IncPublishFailed()
		log.Error("Failed to publish event", "topic", topic, "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Teams returns the active team split of the event.
func (s *Service) Teams(ctx context.Context, eventID string) (TeamsView, error) {
	batch, split, err := s.store.ActiveGeneration(ctx, eventID)
	if err != nil {
		return TeamsView{}, err
	}
	return TeamsView{Batch: batch, Teams: split}, nil
}

// Matches returns the active schedule of the event.
func (s *Service) Matches(ctx context.Context, eventID string) (MatchesView, error) {
	batch, matches, err := s.store.ActiveSchedule(ctx, eventID)
	if err != nil {
		return MatchesView{}, err
	}
	return MatchesView{Batch: batch, Matches: matches}, nil
}

// ScheduleHistory lists every schedule batch of the event, newest first.
func (s *Service) ScheduleHistory(ctx context.Context, eventID string) ([]ScheduleBatch, error) {
	return s.store.ListScheduleBatches(ctx, eventID)
}

// ScheduleMatches returns the matches of any schedule batch, superseded ones included.
func (s *Service) ScheduleMatches(ctx context.Context, scheduleBatchID string) (MatchesView, error) {
	batch, matches, err := s.store.ScheduleMatches(ctx, scheduleBatchID)
	if err != nil {
		return MatchesView{}, err
	}
	return MatchesView{Batch: batch, Matches: matches}, nil
}

// State derives the lifecycle phase of the event.
func (s *Service) State(ctx context.Context, eventID string) (EventState, error) {
	generation, _, err := s.store.ActiveGeneration(ctx, eventID)
	if err != nil {
		return EventState{}, err
	}
	batch, matches, err := s.store.ActiveSchedule(ctx, eventID)
	if err != nil {
		return EventState{}, err
	}

	state := EventState{EventID: eventID, Phase: PhaseNoTeams}
	if generation != nil {
		state.GenerationBatchID = generation.ID
		state.Phase = PhaseTeamsGenerated
	}
	if batch == nil {
		return state, nil
	}

	state.ScheduleBatchID = batch.ID
	state.Phase = phaseOf(batch, matches)
	for _, m := range matches {
		switch {
		case m.Status == schedule.StatusCompleted:
			state.CompletedMatches++
		case m.Status == schedule.StatusPending:
			state.PendingMatches++
		}
	}
	if batch.Format == schedule.FormatBracket && state.Phase == PhaseCompleted {
		state.Champion = finalOf(matches).Winner
	}
	return state, nil
}

func phaseOf(batch *ScheduleBatch, matches []schedule.Match) Phase {
	completed, pending := 0, 0
	for _, m := range matches {
		switch m.Status {
		case schedule.StatusCompleted:
			completed++
		case schedule.StatusPending:
			pending++
		}
	}
	finished := pending == 0
	if batch.Format == schedule.FormatBracket {
		final := finalOf(matches)
		finished = final != nil && final.Status == schedule.StatusCompleted
	}
	switch {
	case finished && completed > 0:
		return PhaseCompleted
	case completed > 0:
		return PhaseInProgress
	default:
		return PhaseMatchesGenerated
	}
}

func finalOf(matches []schedule.Match) *schedule.Match {
	var final *schedule.Match
	for i := range matches {
		if final == nil || matches[i].Round > final.Round {
			final = &matches[i]
		}
	}
	return final
}

// Standings computes the league table of the active league schedule: three
// points for a win and one for a draw.
func (s *Service) Standings(ctx context.Context, eventID string) ([]Standing, error) {
	batch, matches, err := s.store.ActiveSchedule(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return []Standing{}, nil
	}
	if batch.Format != schedule.FormatLeague {
		return nil, fmt.Errorf("%w: active schedule is a %s", ErrNotALeague, batch.Format)
	}

	table := map[string]*Standing{}
	row := func(id string) *Standing {
		if st, ok := table[id]; ok {
			return st
		}
		st := &Standing{CompetitorID: id}
		table[id] = st
		return st
	}

	for _, m := range matches {
		if m.IsBye() || m.SideA == nil || m.SideB == nil {
			if m.SideA != nil && *m.SideA != schedule.Bye {
				row(*m.SideA)
			}
			continue
		}
		a, b := row(*m.SideA), row(*m.SideB)
		if m.Status != schedule.StatusCompleted || m.Result == nil {
			continue
		}
		a.Played++
		b.Played++
		a.ScoreFor += m.Result.ScoreA
		a.ScoreAgainst += m.Result.ScoreB
		b.ScoreFor += m.Result.ScoreB
		b.ScoreAgainst += m.Result.ScoreA
		switch {
		case m.Result.ScoreA > m.Result.ScoreB:
			a.Won++
			b.Lost++
			a.Points += 3
		case m.Result.ScoreB > m.Result.ScoreA:
			b.Won++
			a.Lost++
			b.Points += 3
		default:
			a.Drawn++
			b.Drawn++
			a.Points++
			b.Points++
		}
	}

	standings := make([]Standing, 0, len(table))
	for _, st := range table {
		standings = append(standings, *st)
	}
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if da, db := a.ScoreFor-a.ScoreAgainst, b.ScoreFor-b.ScoreAgainst; da != db {
			return da > db
		}
		if a.ScoreFor != b.ScoreFor {
			return a.ScoreFor > b.ScoreFor
		}
		return a.CompetitorID < b.CompetitorID
	})
	return standings, nil
}

