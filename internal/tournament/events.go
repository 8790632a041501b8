package tournament

// TeamsGenerated is published after a team split is committed.
type TeamsGenerated struct {
	EventID                   string `msgpack:"event_id" json:"event_id"`
	GenerationBatchID         string `msgpack:"generation_batch_id" json:"generation_batch_id"`
	Seq                       int    `msgpack:"seq" json:"seq"`
	Strategy                  string `msgpack:"strategy" json:"strategy"`
	TeamCount                 int    `msgpack:"team_count" json:"team_count"`
	SupersededScheduleBatchID string `msgpack:"superseded_schedule_batch_id,omitempty" json:"superseded_schedule_batch_id,omitempty"`
}

// ScheduleGenerated is published after a schedule is committed.
type ScheduleGenerated struct {
	EventID                   string `msgpack:"event_id" json:"event_id"`
	ScheduleBatchID           string `msgpack:"schedule_batch_id" json:"schedule_batch_id"`
	Seq                       int    `msgpack:"seq" json:"seq"`
	Format                    string `msgpack:"format" json:"format"`
	CompetitionType           string `msgpack:"competition_type" json:"competition_type"`
	Matches                   int    `msgpack:"matches" json:"matches"`
	SupersededScheduleBatchID string `msgpack:"superseded_schedule_batch_id,omitempty" json:"superseded_schedule_batch_id,omitempty"`
}

// ResultRecorded is published after a result and any bracket advancement are committed.
type ResultRecorded struct {
	EventID          string   `msgpack:"event_id" json:"event_id"`
	ScheduleBatchID  string   `msgpack:"schedule_batch_id" json:"schedule_batch_id"`
	MatchID          string   `msgpack:"match_id" json:"match_id"`
	ScoreA           int      `msgpack:"score_a" json:"score_a"`
	ScoreB           int      `msgpack:"score_b" json:"score_b"`
	Winner           string   `msgpack:"winner,omitempty" json:"winner,omitempty"`
	AdvancedMatchIDs []string `msgpack:"advanced_match_ids" json:"advanced_match_ids"`
	Phase            string   `msgpack:"phase" json:"phase"`
}
