package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventDuelCompleted EventType = "duel-completed"
	EventDuelCancelled EventType = "duel-cancelled"
	EventRatingUpdated EventType = "rating-updated"
)

// DuelCompletedEvent is published when a duel resolves, for downstream
// achievement and notification consumers.
type DuelCompletedEvent struct {
	DuelID         string `msgpack:"duel_id"`
	ChallengeID    string `msgpack:"challenge_id"`
	WinnerID       string `msgpack:"winner_id"`
	IsDraw         bool   `msgpack:"is_draw"`
	P1ID           string `msgpack:"p1_id"`
	P2ID           string `msgpack:"p2_id"`
	P1Score        int    `msgpack:"p1_score"`
	P2Score        int    `msgpack:"p2_score"`
	RatingChangeP1 int    `msgpack:"rating_change_p1"`
	RatingChangeP2 int    `msgpack:"rating_change_p2"`
}

// RatingUpdatedEvent is published after any persistent rating mutation.
type RatingUpdatedEvent struct {
	UserID    string `msgpack:"user_id"`
	SourceID  string `msgpack:"source_id"`
	NewRating int    `msgpack:"new_rating"`
	Delta     int    `msgpack:"delta"`
	Tier      string `msgpack:"tier"`
}
