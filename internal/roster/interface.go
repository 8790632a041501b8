package roster

import "context"

// Source is the roster query consumed by the tournament engine.
type Source interface {
	// Snapshot returns every attending participant of the event, guests included.
	Snapshot(ctx context.Context, eventID string) (Snapshot, error)
}

// Store manages the participants of events.
type Store interface {
	Source
	UpsertParticipant(ctx context.Context, p Participant) (Participant, error)
	AddGuest(ctx context.Context, eventID, displayName string, skill *float64) (Participant, error)
	SetAttendance(ctx context.Context, eventID, participantID string, attending bool) error
	SetSkill(ctx context.Context, eventID, participantID string, skill *float64) error
	ListParticipants(ctx context.Context, eventID string) ([]Participant, error)
}
