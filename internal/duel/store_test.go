package duel_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/codeclash/arena/internal/database"
	"github.com/codeclash/arena/internal/duel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (duel.DuelStore, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	return duel.NewStore(db), db, dbTeardown
}

func activeDuel() *duel.Duel {
	now := time.Now()
	return &duel.Duel{
		ChallengeID: "challenge-1",
		Language:    "go",
		Status:      duel.StatusActive,
		P1:          duel.Side{ID: "alice", Name: "Alice", RatingSnapshot: 1000},
		P2:          &duel.Side{ID: "bob", Name: "Bob", RatingSnapshot: 1100},
		StartedAt:   &now,
	}
}

func TestCreateAndGetDuel(t *testing.T) {
	t.Run("active duel roundtrip", func(t *testing.T) {
		store, _, teardown := setupTestStore(t)
		defer teardown()

		d := activeDuel()
		require.NoError(t, store.CreateDuel(d))
		assert.NotEmpty(t, d.ID)

		got, err := store.GetDuel(d.ID)
		require.NoError(t, err)
		assert.Equal(t, duel.StatusActive, got.Status)
		assert.Equal(t, "alice", got.P1.ID)
		require.NotNil(t, got.P2)
		assert.Equal(t, 1100, got.P2.RatingSnapshot)
		assert.False(t, got.P2.IsBot)
		assert.NotNil(t, got.StartedAt)
		assert.Nil(t, got.WinnerID)
		assert.Nil(t, got.P1Score)
	})

	t.Run("waiting duel has an empty second seat", func(t *testing.T) {
		store, _, teardown := setupTestStore(t)
		defer teardown()

		d := &duel.Duel{
			ChallengeID: "challenge-1",
			Language:    "go",
			Status:      duel.StatusWaiting,
			P1:          duel.Side{ID: "alice", Name: "Alice", RatingSnapshot: 1000},
		}
		require.NoError(t, store.CreateDuel(d))

		got, err := store.GetDuel(d.ID)
		require.NoError(t, err)
		assert.Equal(t, duel.StatusWaiting, got.Status)
		assert.Nil(t, got.P2)
		assert.Nil(t, got.StartedAt)
	})

	t.Run("unknown duel", func(t *testing.T) {
		store, _, teardown := setupTestStore(t)
		defer teardown()

		_, err := store.GetDuel("nope")
		assert.ErrorIs(t, err, duel.ErrDuelNotFound)
	})
}

func TestStatusTransitions(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	d := &duel.Duel{
		ChallengeID: "challenge-1",
		Language:    "go",
		Status:      duel.StatusWaiting,
		P1:          duel.Side{ID: "alice", Name: "Alice", RatingSnapshot: 1000},
	}
	require.NoError(t, store.CreateDuel(d))

	// Forward moves are allowed.
	require.NoError(t, store.UpdateStatus(d.ID, duel.StatusActive))
	require.NoError(t, store.UpdateStatus(d.ID, duel.StatusCancelled))

	// Terminal states are sticky.
	assert.ErrorIs(t, store.UpdateStatus(d.ID, duel.StatusActive), duel.ErrInvalidTransition)
	assert.ErrorIs(t, store.UpdateStatus(d.ID, duel.StatusCompleted), duel.ErrInvalidTransition)
	assert.ErrorIs(t, store.CancelDuel(d.ID, time.Now()), duel.ErrInvalidTransition)
}

func TestActivateDuel(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	d := &duel.Duel{
		ChallengeID: "challenge-1",
		Language:    "go",
		Status:      duel.StatusWaiting,
		P1:          duel.Side{ID: "alice", Name: "Alice", RatingSnapshot: 1000},
	}
	require.NoError(t, store.CreateDuel(d))

	p2 := duel.Side{ID: "bob", Name: "Bob", RatingSnapshot: 1050}
	require.NoError(t, store.ActivateDuel(d.ID, p2, time.Now()))

	got, err := store.GetDuel(d.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusActive, got.Status)
	require.NotNil(t, got.P2)
	assert.Equal(t, "bob", got.P2.ID)
	assert.NotNil(t, got.StartedAt)

	// Cannot fill a seat twice.
	assert.ErrorIs(t, store.ActivateDuel(d.ID, p2, time.Now()), duel.ErrInvalidTransition)
}

func TestSubmissions(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	d := activeDuel()
	require.NoError(t, store.CreateDuel(d))

	sub := &duel.Submission{
		DuelID:   d.ID,
		UserID:   "alice",
		Code:     "package main",
		Language: "go",
		Status:   duel.SubmissionRunning,
	}
	require.NoError(t, store.CreateSubmission(sub))
	assert.NotEmpty(t, sub.ID)

	// One submission per side.
	dup := &duel.Submission{DuelID: d.ID, UserID: "alice", Code: "again", Language: "go"}
	assert.ErrorIs(t, store.CreateSubmission(dup), duel.ErrAlreadySubmitted)

	// The other side is unaffected.
	require.NoError(t, store.CreateSubmission(&duel.Submission{
		DuelID: d.ID, UserID: "bob", Code: "x", Language: "go",
	}))

	sub.Status = duel.SubmissionPassed
	sub.Score = 100
	sub.TestsPassed = 3
	sub.TestsTotal = 3
	sub.ElapsedMs = 420
	require.NoError(t, store.FinalizeSubmission(sub))

	subs, err := store.GetSubmissions(d.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, duel.SubmissionPassed, subs[0].Status)
	assert.Equal(t, 100, subs[0].Score)
}

func TestRecordSideResult(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	d := activeDuel()
	require.NoError(t, store.CreateDuel(d))

	got, err := store.RecordSideResult(d.ID, "alice", 80, 1200, time.Now())
	require.NoError(t, err)
	require.NotNil(t, got.P1Score)
	assert.Equal(t, 80, *got.P1Score)
	assert.Nil(t, got.P2Score)

	got, err = store.RecordSideResult(d.ID, "bob", 60, 900, time.Now())
	require.NoError(t, err)
	require.NotNil(t, got.P2Score)
	assert.Equal(t, 60, *got.P2Score)

	_, err = store.RecordSideResult(d.ID, "stranger", 10, 10, time.Now())
	assert.ErrorIs(t, err, duel.ErrNotParticipant)
}

func TestCompleteDuel(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	d := activeDuel()
	require.NoError(t, store.CreateDuel(d))

	winner := "alice"
	require.NoError(t, store.CompleteDuel(d.ID, &winner, 16, -16, time.Now()))

	got, err := store.GetDuel(d.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCompleted, got.Status)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, "alice", *got.WinnerID)
	require.NotNil(t, got.RatingChangeP1)
	assert.Equal(t, 16, *got.RatingChangeP1)
	assert.NotNil(t, got.EndedAt)

	// A second completion attempt loses.
	assert.ErrorIs(t, store.CompleteDuel(d.ID, &winner, 16, -16, time.Now()), duel.ErrInvalidTransition)
}

func TestListStale(t *testing.T) {
	store, db, teardown := setupTestStore(t)
	defer teardown()

	fresh := activeDuel()
	require.NoError(t, store.CreateDuel(fresh))
	old := activeDuel()
	require.NoError(t, store.CreateDuel(old))
	waitingOld := &duel.Duel{
		ChallengeID: "challenge-1",
		Language:    "go",
		Status:      duel.StatusWaiting,
		P1:          duel.Side{ID: "carol", Name: "Carol", RatingSnapshot: 1000},
	}
	require.NoError(t, store.CreateDuel(waitingOld))

	staleTime := time.Now().Add(-30 * time.Minute).Unix()
	_, err := db.Exec("UPDATE duels SET started_at = ? WHERE id = ?", staleTime, old.ID)
	require.NoError(t, err)
	_, err = db.Exec("UPDATE duels SET created_at = ? WHERE id = ?", staleTime, waitingOld.ID)
	require.NoError(t, err)

	stale, err := store.ListStale(duel.StatusActive, time.Now().Add(-duel.ActiveTimeout))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)

	stale, err = store.ListStale(duel.StatusWaiting, time.Now().Add(-duel.WaitingTimeout))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, waitingOld.ID, stale[0].ID)
}

func TestListDuels(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateDuel(activeDuel()))
	}
	waiting := &duel.Duel{
		ChallengeID: "challenge-1",
		Language:    "go",
		Status:      duel.StatusWaiting,
		P1:          duel.Side{ID: "carol", Name: "Carol", RatingSnapshot: 1000},
	}
	require.NoError(t, store.CreateDuel(waiting))

	all, err := store.ListDuels("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := store.ListDuels(duel.StatusActive, 10)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	limited, err := store.ListDuels(duel.StatusActive, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
