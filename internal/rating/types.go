package rating

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// store handles all database operations for ratings.
type store struct {
	db *sql.DB
	// mu serializes every rating mutation. Rating events arrive from two
	// independent paths (competitions and duels) and updates for a given
	// user must never interleave.
	mu sync.Mutex
}

var (
	// ErrAlreadyApplied is returned when a rating event for the same
	// (user, source) pair has already been recorded.
	ErrAlreadyApplied = errors.New("rating: result already applied")
	// ErrInvalidResult is returned for inputs that fail validation. No
	// state is changed.
	ErrInvalidResult = errors.New("rating: invalid result")
)

// Tier is the coarse rating-derived label shown next to a player.
type Tier string

const (
	TierBronze      Tier = "bronze"
	TierSilver      Tier = "silver"
	TierGold        Tier = "gold"
	TierPlatinum    Tier = "platinum"
	TierDiamond     Tier = "diamond"
	TierMaster      Tier = "master"
	TierGrandmaster Tier = "grandmaster"
)

// PlayerRating is the persistent competitive record for one user.
// It is created lazily on the first rating event and never deleted.
type PlayerRating struct {
	UserID                string     `json:"user_id"`
	DisplayName           string     `json:"display_name"`
	Rating                int        `json:"rating"`
	PeakRating            int        `json:"peak_rating"`
	Tier                  Tier       `json:"tier"`
	CompetitionsCompleted int        `json:"competitions_completed"`
	TotalScoreEarned      int        `json:"total_score_earned"`
	AveragePercentile     float64    `json:"average_percentile"`
	WinCount              int        `json:"win_count"`
	Top3Count             int        `json:"top3_count"`
	Top10Count            int        `json:"top10_count"`
	CurrentStreak         int        `json:"current_streak"`
	BestStreak            int        `json:"best_streak"`
	LastCompetitionAt     *time.Time `json:"last_competition_at,omitempty"`
}

// HistoryEntry is one append-only rating event. Immutable once written.
type HistoryEntry struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	SourceID          string    `json:"source_id"`
	OldRating         int       `json:"old_rating"`
	NewRating         int       `json:"new_rating"`
	Delta             int       `json:"delta"`
	RankAchieved      *int      `json:"rank_achieved,omitempty"`
	Percentile        *float64  `json:"percentile,omitempty"`
	ParticipantsCount *int      `json:"participants_count,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// DuelSide identifies one side of a duel for rating purposes. The rating is
// the snapshot taken at duel start, not a live re-read.
type DuelSide struct {
	UserID         string
	DisplayName    string
	RatingSnapshot int
	IsBot          bool
}

// DuelDeltas holds the rating changes produced by a duel.
type DuelDeltas struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}
