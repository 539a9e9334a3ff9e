package matchmaking

import "time"

// QueueService owns the matchmaking queue. Entries live for QueueTTL and
// are consumed by exactly one match.
type QueueService interface {
	// Enqueue adds the player to the queue, replacing any existing entry
	// for the same user and refreshing its TTL.
	Enqueue(userID, displayName string, rating int, language string, difficulty *string) (*QueueEntry, error)
	// TryMatch looks for a live, same-language entry within ratingRange of
	// the caller's rating and claims it atomically. Both the opponent's
	// entry and the caller's own entry are removed on success. Returns
	// (nil, nil) when nobody eligible is waiting.
	TryMatch(userID, language string, rating, ratingRange int) (*MatchedOpponent, error)
	// Cancel removes the caller's entry. No-op if absent.
	Cancel(userID string) error
	// SweepExpired removes every entry at or past its deadline.
	SweepExpired(now time.Time) (int64, error)
	// GetEntry returns the caller's live entry, or nil if none.
	GetEntry(userID string) (*QueueEntry, error)
	// Depth counts live entries, optionally restricted to one language.
	Depth(language string) (int, error)
}
