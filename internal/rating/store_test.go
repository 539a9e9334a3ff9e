package rating_test

import (
	"database/sql"
	"testing"

	"github.com/codeclash/arena/internal/database"
	"github.com/codeclash/arena/internal/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary in-memory SQLite database for testing.
func setupTestDB(t *testing.T) (rating.RatingService, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	return rating.New(db), db, dbTeardown
}

func seedPlayer(t *testing.T, db *sql.DB, userID string, ratingValue int) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO player_ratings (user_id, display_name, rating, peak_rating, tier)
		VALUES (?, ?, ?, ?, ?)`,
		userID, userID, ratingValue, ratingValue, string(rating.TierOf(ratingValue)))
	require.NoError(t, err)
}

func TestApplyCompetitionResult(t *testing.T) {
	t.Run("lazily creates the player and applies the win", func(t *testing.T) {
		svc, _, teardown := setupTestDB(t)
		defer teardown()

		// Rank 1 of 10: base 13 + winner bonus 15 = 28.
		player, err := svc.ApplyCompetitionResult("u1", "comp-1", 1, 10, 100)
		require.NoError(t, err)
		assert.Equal(t, 1028, player.Rating)
		assert.Equal(t, 1028, player.PeakRating)
		assert.Equal(t, rating.TierBronze, player.Tier)
		assert.Equal(t, 1, player.CompetitionsCompleted)
		assert.Equal(t, 100, player.TotalScoreEarned)
		assert.Equal(t, 1, player.WinCount)
		assert.Equal(t, 1, player.Top3Count)
		assert.Equal(t, 1, player.Top10Count)
		assert.InDelta(t, 90.0, player.AveragePercentile, 1e-9)
		require.NotNil(t, player.LastCompetitionAt)

		history, err := svc.GetHistory("u1", 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "comp-1", history[0].SourceID)
		assert.Equal(t, 1000, history[0].OldRating)
		assert.Equal(t, 1028, history[0].NewRating)
		assert.Equal(t, 28, history[0].Delta)
		require.NotNil(t, history[0].RankAchieved)
		assert.Equal(t, 1, *history[0].RankAchieved)
	})

	t.Run("second apply for the same competition is rejected", func(t *testing.T) {
		svc, _, teardown := setupTestDB(t)
		defer teardown()

		_, err := svc.ApplyCompetitionResult("u1", "comp-1", 1, 10, 100)
		require.NoError(t, err)

		_, err = svc.ApplyCompetitionResult("u1", "comp-1", 1, 10, 100)
		assert.ErrorIs(t, err, rating.ErrAlreadyApplied)

		// First apply is untouched.
		player, err := svc.GetPlayerRating("u1")
		require.NoError(t, err)
		assert.Equal(t, 1028, player.Rating)
		assert.Equal(t, 1, player.CompetitionsCompleted)

		history, err := svc.GetHistory("u1", 10)
		require.NoError(t, err)
		assert.Len(t, history, 1)
	})

	t.Run("rejects invalid inputs without touching state", func(t *testing.T) {
		svc, db, teardown := setupTestDB(t)
		defer teardown()

		_, err := svc.ApplyCompetitionResult("u1", "comp-1", 0, 10, 0)
		assert.ErrorIs(t, err, rating.ErrInvalidResult)
		_, err = svc.ApplyCompetitionResult("u1", "comp-1", 11, 10, 0)
		assert.ErrorIs(t, err, rating.ErrInvalidResult)
		_, err = svc.ApplyCompetitionResult("u1", "comp-1", 1, 0, 0)
		assert.ErrorIs(t, err, rating.ErrInvalidResult)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM player_ratings").Scan(&count))
		assert.Equal(t, 0, count, "validation failures must not create records")
	})

	t.Run("rating never drops below the floor", func(t *testing.T) {
		svc, db, teardown := setupTestDB(t)
		defer teardown()
		seedPlayer(t, db, "u1", 100)
		// Make the player established so dampening does not soften the loss.
		_, err := db.Exec("UPDATE player_ratings SET competitions_completed = 20 WHERE user_id = 'u1'")
		require.NoError(t, err)

		player, err := svc.ApplyCompetitionResult("u1", "comp-1", 20, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, 100, player.Rating)
		assert.Equal(t, rating.TierBronze, player.Tier)

		history, err := svc.GetHistory("u1", 1)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, 0, history[0].Delta, "recorded delta reflects the floored change")
	})

	t.Run("running average percentile", func(t *testing.T) {
		svc, _, teardown := setupTestDB(t)
		defer teardown()

		_, err := svc.ApplyCompetitionResult("u1", "comp-1", 1, 10, 0) // 90
		require.NoError(t, err)
		player, err := svc.ApplyCompetitionResult("u1", "comp-2", 5, 10, 0) // 50
		require.NoError(t, err)
		assert.InDelta(t, 70.0, player.AveragePercentile, 1e-9)
	})
}

func TestApplyDuelResult(t *testing.T) {
	t.Run("decisive result between seeded players", func(t *testing.T) {
		svc, db, teardown := setupTestDB(t)
		defer teardown()
		seedPlayer(t, db, "alice", 1000)
		seedPlayer(t, db, "bob", 1200)

		deltas, err := svc.ApplyDuelResult("duel-1",
			rating.DuelSide{UserID: "alice", RatingSnapshot: 1000},
			rating.DuelSide{UserID: "bob", RatingSnapshot: 1200},
			false)
		require.NoError(t, err)
		assert.Equal(t, 24, deltas.Winner)
		assert.Equal(t, -24, deltas.Loser)

		alice, err := svc.GetPlayerRating("alice")
		require.NoError(t, err)
		assert.Equal(t, 1024, alice.Rating)
		assert.Equal(t, 1, alice.CurrentStreak)
		assert.Equal(t, 1, alice.BestStreak)

		bob, err := svc.GetPlayerRating("bob")
		require.NoError(t, err)
		assert.Equal(t, 1176, bob.Rating)
		assert.Equal(t, 0, bob.CurrentStreak)
	})

	t.Run("bot side gets no persistent record", func(t *testing.T) {
		svc, db, teardown := setupTestDB(t)
		defer teardown()

		deltas, err := svc.ApplyDuelResult("duel-1",
			rating.DuelSide{UserID: "alice", DisplayName: "Alice", RatingSnapshot: 1000},
			rating.DuelSide{UserID: "bot", RatingSnapshot: 1100, IsBot: true},
			false)
		require.NoError(t, err)
		assert.Equal(t, 20, deltas.Winner)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM player_ratings").Scan(&count))
		assert.Equal(t, 1, count, "only the human side is persisted")
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM rating_history").Scan(&count))
		assert.Equal(t, 1, count)

		alice, err := svc.GetPlayerRating("alice")
		require.NoError(t, err)
		assert.Equal(t, 1020, alice.Rating)
		assert.Equal(t, "Alice", alice.DisplayName)
	})

	t.Run("double resolution of the same duel is rejected", func(t *testing.T) {
		svc, db, teardown := setupTestDB(t)
		defer teardown()
		seedPlayer(t, db, "alice", 1000)
		seedPlayer(t, db, "bob", 1000)

		winner := rating.DuelSide{UserID: "alice", RatingSnapshot: 1000}
		loser := rating.DuelSide{UserID: "bob", RatingSnapshot: 1000}
		_, err := svc.ApplyDuelResult("duel-1", winner, loser, false)
		require.NoError(t, err)
		_, err = svc.ApplyDuelResult("duel-1", winner, loser, false)
		assert.ErrorIs(t, err, rating.ErrAlreadyApplied)

		alice, err := svc.GetPlayerRating("alice")
		require.NoError(t, err)
		assert.Equal(t, 1016, alice.Rating, "effect applied exactly once")
	})

	t.Run("loss streak resets and floor holds", func(t *testing.T) {
		svc, db, teardown := setupTestDB(t)
		defer teardown()
		seedPlayer(t, db, "alice", 105)
		_, err := db.Exec("UPDATE player_ratings SET current_streak = 4, best_streak = 4 WHERE user_id = 'alice'")
		require.NoError(t, err)

		_, err = svc.ApplyDuelResult("duel-1",
			rating.DuelSide{UserID: "bot", RatingSnapshot: 1500, IsBot: true},
			rating.DuelSide{UserID: "alice", RatingSnapshot: 105},
			false)
		require.NoError(t, err)

		alice, err := svc.GetPlayerRating("alice")
		require.NoError(t, err)
		assert.Equal(t, 100, alice.Rating)
		assert.Equal(t, 0, alice.CurrentStreak)
		assert.Equal(t, 4, alice.BestStreak)
	})

	t.Run("draw between equals leaves ratings unchanged", func(t *testing.T) {
		svc, db, teardown := setupTestDB(t)
		defer teardown()
		seedPlayer(t, db, "alice", 1500)
		seedPlayer(t, db, "bob", 1500)

		deltas, err := svc.ApplyDuelResult("duel-1",
			rating.DuelSide{UserID: "alice", RatingSnapshot: 1500},
			rating.DuelSide{UserID: "bob", RatingSnapshot: 1500},
			true)
		require.NoError(t, err)
		assert.Equal(t, 0, deltas.Winner)
		assert.Equal(t, 0, deltas.Loser)

		alice, err := svc.GetPlayerRating("alice")
		require.NoError(t, err)
		assert.Equal(t, 1500, alice.Rating)
		assert.Equal(t, 0, alice.CurrentStreak, "draws do not extend streaks")
	})
}

func TestGetLeaderboard(t *testing.T) {
	svc, db, teardown := setupTestDB(t)
	defer teardown()

	seedPlayer(t, db, "veteran-high", 1800)
	seedPlayer(t, db, "veteran-low", 1200)
	seedPlayer(t, db, "rookie", 2000)
	_, err := db.Exec("UPDATE player_ratings SET competitions_completed = 5 WHERE user_id IN ('veteran-high', 'veteran-low')")
	require.NoError(t, err)
	_, err = db.Exec("UPDATE player_ratings SET competitions_completed = 1 WHERE user_id = 'rookie'")
	require.NoError(t, err)

	board, err := svc.GetLeaderboard(3, 50)
	require.NoError(t, err)
	require.Len(t, board, 2, "players below the competition minimum are hidden")
	assert.Equal(t, "veteran-high", board[0].UserID)
	assert.Equal(t, "veteran-low", board[1].UserID)
}

func TestPruneHistory(t *testing.T) {
	svc, _, teardown := setupTestDB(t)
	defer teardown()

	for i := 0; i < 5; i++ {
		_, err := svc.ApplyCompetitionResult("u1", competitionID(i), 1, 10, 0)
		require.NoError(t, err)
	}

	removed, err := svc.PruneHistory(2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	history, err := svc.GetHistory("u1", 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func competitionID(i int) string {
	return "comp-" + string(rune('a'+i))
}
