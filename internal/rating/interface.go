package rating

// RatingService defines the interface for applying rating events and reading
// the resulting records. All mutations are atomic: the history entry and the
// player record change together or not at all.
type RatingService interface {
	// ApplyCompetitionResult applies one participant's competition outcome.
	// Idempotent per (userID, competitionID): a second call returns
	// ErrAlreadyApplied and leaves the record untouched.
	ApplyCompetitionResult(userID, competitionID string, rank, totalParticipants, scoreEarned int) (*PlayerRating, error)
	// ApplyDuelResult applies a duel outcome using the start-of-duel rating
	// snapshots. Bot sides participate in the expected-score formula but
	// receive no persistent update. For a draw, winner/loser ordering is
	// arbitrary.
	ApplyDuelResult(duelID string, winner, loser DuelSide, isDraw bool) (DuelDeltas, error)
	GetPlayerRating(userID string) (*PlayerRating, error)
	// GetLeaderboard returns players ordered by rating descending,
	// restricted to users with at least minCompetitions completed.
	GetLeaderboard(minCompetitions, limit int) ([]PlayerRating, error)
	GetHistory(userID string, limit int) ([]HistoryEntry, error)
	// PruneHistory keeps only the most recent keepPerUser entries per user
	// and reports how many rows were removed.
	PruneHistory(keepPerUser int) (int64, error)
}
