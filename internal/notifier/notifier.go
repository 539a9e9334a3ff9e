package notifier

import "github.com/codeclash/arena/internal/rating"

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For completed duels
	SendDuelResultNotification(result *DuelResult, dryRun bool) error
	// For slash commands
	SendLeaderboard(players []rating.PlayerRating, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(players []rating.PlayerRating) (any, error)
}

// DuelResult is the notifier's view of a finished duel.
type DuelResult struct {
	DuelID         string
	ChallengeTitle string
	P1Name         string
	P2Name         string
	P2IsBot        bool
	P1Score        int
	P2Score        int
	P1ElapsedMs    int
	P2ElapsedMs    int
	WinnerName     string
	IsDraw         bool
	RatingChangeP1 int
	RatingChangeP2 int
}
