package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// disabled drops every message. It is used when no GCP project is configured.
type disabled struct{}

// EventType represents the type of event/message sent via pubsub.
// It doubles as the topic name.
type EventType string

const (
	EventTeamsGenerated    EventType = "teams-generated"
	EventScheduleGenerated EventType = "schedule-generated"
	EventResultRecorded    EventType = "result-recorded"
)
