package matchmaking

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

const (
	// QueueTTL is how long an entry stays matchable after enqueue.
	QueueTTL = 2 * time.Minute
	// DefaultRatingRange is the matching window used when the caller does
	// not supply one.
	DefaultRatingRange = 200
)

// ErrAlreadyMatched is returned when the caller's own entry disappeared
// while a match was being claimed, usually because a concurrent TryMatch
// or cancel got there first.
var ErrAlreadyMatched = errors.New("queue entry already matched or cancelled")

type store struct {
	db *sql.DB
	// mu makes find-claim-remove a single step. Claims still re-check
	// expiry against the row so a stale entry can never be handed out.
	mu sync.Mutex
}

// QueueEntry is a waiting player. At most one live entry exists per user.
type QueueEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Rating      int       `json:"rating"`
	Language    string    `json:"language"`
	Difficulty  *string   `json:"difficulty,omitempty"`
	QueuedAt    time.Time `json:"queued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MatchedOpponent is the claimed counterpart of a successful TryMatch.
// By the time the caller sees it, the opponent's queue entry is gone.
type MatchedOpponent struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Rating      int     `json:"rating"`
	Difficulty  *string `json:"difficulty,omitempty"`
}
