package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codeclash/arena/internal/challenge"
	"github.com/codeclash/arena/internal/config"
	"github.com/codeclash/arena/internal/database"
	"github.com/codeclash/arena/internal/duel"
	"github.com/codeclash/arena/internal/judge"
	"github.com/codeclash/arena/internal/matchmaking"
	"github.com/codeclash/arena/internal/metrics"
	"github.com/codeclash/arena/internal/notifier"
	"github.com/codeclash/arena/internal/pubsub"
	"github.com/codeclash/arena/internal/rating"
	"github.com/codeclash/arena/internal/reaper"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T, judgeMock judge.Judge, notif notifier.Notifier) (*Server, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	ratingSvc := rating.New(db)
	queueSvc := matchmaking.New(db)
	duelStore := duel.NewStore(db)
	challengeStore := challenge.New(db)

	require.NoError(t, challengeStore.CreateChallenge(&challenge.Challenge{
		ID:         "two-sum",
		Title:      "Two Sum",
		Difficulty: "easy",
		TestCases: []judge.TestCase{
			{Input: "1 2", ExpectedOutput: "3", Points: 50},
			{Input: "40 2", ExpectedOutput: "42", Points: 50},
		},
		ReferenceSolution: "reference",
	}))

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	ps := pubsub.NewMock()
	manager := duel.NewManager(duelStore, queueSvc, ratingSvc, challengeStore, judgeMock, notif, metricsSvc, ps)
	sweeper := reaper.New(queueSvc, manager, ratingSvc, metricsSvc, 0)

	server := NewServer(manager, queueSvc, ratingSvc, sweeper, metricsSvc, metricsHandler, config.Config{}, notif, ps)

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
	}
	return server, teardown
}

func postJSON(t *testing.T, server *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest("POST", path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

func getRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest("GET", path, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheckHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := getRequest(t, server, "/health")

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestEnqueueHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	// First player waits.
	rr := postJSON(t, server, "/duels/enqueue", enqueueRequest{UserID: "alice", DisplayName: "Alice", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	var first enqueueResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	assert.False(t, first.Matched)
	require.NotNil(t, first.Entry)
	assert.Equal(t, "alice", first.Entry.UserID)

	rr = getRequest(t, server, "/queue/depth")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"depth": 1}`, rr.Body.String())

	// Second player matches synchronously.
	rr = postJSON(t, server, "/duels/enqueue", enqueueRequest{UserID: "bob", DisplayName: "Bob", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	var second enqueueResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	assert.True(t, second.Matched)
	require.NotNil(t, second.Duel)
	assert.Equal(t, duel.StatusActive, second.Duel.Status)
	assert.Equal(t, "bob", second.Duel.P1.ID)
	require.NotNil(t, second.Duel.P2)
	assert.Equal(t, "alice", second.Duel.P2.ID)

	// Both entries are consumed.
	rr = getRequest(t, server, "/queue/depth")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"depth": 0}`, rr.Body.String())
}

func TestEnqueueHandler_BadRequest(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := postJSON(t, server, "/duels/enqueue", enqueueRequest{UserID: "alice"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancelQueueHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := postJSON(t, server, "/duels/enqueue", enqueueRequest{UserID: "alice", DisplayName: "Alice", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = postJSON(t, server, "/duels/cancel", map[string]string{"user_id": "alice"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = getRequest(t, server, "/queue/depth")
	assert.JSONEq(t, `{"depth": 0}`, rr.Body.String())

	// Cancelling again is a no-op.
	rr = postJSON(t, server, "/duels/cancel", map[string]string{"user_id": "alice"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSubmitSolutionHandler_ResolvesDuel(t *testing.T) {
	judgeMock := judge.NewMock()
	notif := notifier.NewMock()
	server, teardown := setupTestServer(t, judgeMock, notif)
	defer teardown()

	rr := postJSON(t, server, "/duels/enqueue", enqueueRequest{UserID: "alice", DisplayName: "Alice", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = postJSON(t, server, "/duels/enqueue", enqueueRequest{UserID: "bob", DisplayName: "Bob", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	var matched enqueueResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &matched))
	require.NotNil(t, matched.Duel)
	duelID := matched.Duel.ID

	// First side submits; the duel stays active.
	rr = postJSON(t, server, "/duels/submit", submitRequest{DuelID: duelID, UserID: "alice", Code: "solution-a", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	var firstSubmit submitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &firstSubmit))
	assert.Equal(t, duel.SubmissionPassed, firstSubmit.Submission.Status)
	assert.Equal(t, duel.StatusActive, firstSubmit.Duel.Status)

	// Retrying is a conflict; one submission per side per duel.
	rr = postJSON(t, server, "/duels/submit", submitRequest{DuelID: duelID, UserID: "alice", Code: "solution-a2", Language: "go"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Second side submits the same score but slower, so the duel resolves.
	judgeMock.EvaluateFunc = func(ctx context.Context, code, language string, testCases []judge.TestCase) (*judge.Result, error) {
		return &judge.Result{Score: 100, TestsPassed: 2, TestsTotal: 2, ElapsedMs: 500}, nil
	}
	rr = postJSON(t, server, "/duels/submit", submitRequest{DuelID: duelID, UserID: "bob", Code: "solution-b", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	var secondSubmit submitResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &secondSubmit))
	assert.Equal(t, duel.StatusCompleted, secondSubmit.Duel.Status)
	require.NotNil(t, secondSubmit.Duel.WinnerID)
	assert.Equal(t, "alice", *secondSubmit.Duel.WinnerID)

	// Equal snapshots: the winner gains what the loser drops.
	require.NotNil(t, secondSubmit.Duel.RatingChangeP1)
	require.NotNil(t, secondSubmit.Duel.RatingChangeP2)

	var aliceChange, bobChange int
	if secondSubmit.Duel.P1.ID == "alice" {
		aliceChange, bobChange = *secondSubmit.Duel.RatingChangeP1, *secondSubmit.Duel.RatingChangeP2
	} else {
		aliceChange, bobChange = *secondSubmit.Duel.RatingChangeP2, *secondSubmit.Duel.RatingChangeP1
	}
	assert.Equal(t, 16, aliceChange)
	assert.Equal(t, -16, bobChange)

	require.Len(t, notif.SendDuelResultNotificationCalls, 1)
	assert.Equal(t, "Alice", notif.SendDuelResultNotificationCalls[0].WinnerName)

	// Submitting against a completed duel is a conflict.
	rr = postJSON(t, server, "/duels/submit", submitRequest{DuelID: duelID, UserID: "bob", Code: "late", Language: "go"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestBotDuelHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := postJSON(t, server, "/duels/bot", enqueueRequest{UserID: "alice", DisplayName: "Alice", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	var d duel.Duel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Equal(t, duel.StatusActive, d.Status)
	require.NotNil(t, d.P2)
	assert.True(t, d.P2.IsBot)
	require.NotNil(t, d.P2Score, "bot result is precomputed at creation")
	assert.Equal(t, 100, *d.P2Score)
}

func TestGetDuelsHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := postJSON(t, server, "/duels/bot", enqueueRequest{UserID: "alice", DisplayName: "Alice", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)
	var created duel.Duel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = getRequest(t, server, "/duels?id="+created.ID)
	require.Equal(t, http.StatusOK, rr.Code)
	var fetched duel.Duel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	rr = getRequest(t, server, "/duels?status=active")
	require.Equal(t, http.StatusOK, rr.Code)
	var listed []duel.Duel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	require.Len(t, listed, 1)

	rr = getRequest(t, server, "/duels?id=no-such-duel")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCompetitionResultHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	req := competitionResultRequest{
		UserID:            "alice",
		CompetitionID:     "comp-1",
		Rank:              1,
		TotalParticipants: 10,
		ScoreEarned:       100,
	}
	rr := postJSON(t, server, "/competitions/result", req)
	require.Equal(t, http.StatusOK, rr.Code)

	var player rating.PlayerRating
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &player))
	// Base round(32*0.4) = 13, rank-1 bonus +15.
	assert.Equal(t, 1028, player.Rating)
	assert.Equal(t, 1, player.CompetitionsCompleted)

	// Replaying the same competition is a conflict, not a double-apply.
	rr = postJSON(t, server, "/competitions/result", req)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = getRequest(t, server, "/rating?userID=alice")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &player))
	assert.Equal(t, 1028, player.Rating)
}

func TestCompetitionResultHandler_BadRank(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := postJSON(t, server, "/competitions/result", competitionResultRequest{
		UserID:            "alice",
		CompetitionID:     "comp-1",
		Rank:              11,
		TotalParticipants: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLeaderboardHandler_FiltersNewPlayers(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	for i, comp := range []string{"c1", "c2", "c3"} {
		rr := postJSON(t, server, "/competitions/result", competitionResultRequest{
			UserID:            "veteran",
			CompetitionID:     comp,
			Rank:              1 + i,
			TotalParticipants: 10,
			ScoreEarned:       50,
		})
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := postJSON(t, server, "/competitions/result", competitionResultRequest{
		UserID:            "rookie",
		CompetitionID:     "c1",
		Rank:              2,
		TotalParticipants: 10,
		ScoreEarned:       50,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = getRequest(t, server, "/leaderboard")
	require.Equal(t, http.StatusOK, rr.Code)

	var players []rating.PlayerRating
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &players))
	require.Len(t, players, 1, "players with fewer than 3 competitions stay hidden")
	assert.Equal(t, "veteran", players[0].UserID)
}

func TestRatingHistoryHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := postJSON(t, server, "/competitions/result", competitionResultRequest{
		UserID:            "alice",
		CompetitionID:     "comp-1",
		Rank:              1,
		TotalParticipants: 10,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = getRequest(t, server, "/rating/history?userID=alice")
	require.Equal(t, http.StatusOK, rr.Code)

	var history []rating.HistoryEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "comp-1", history[0].SourceID)
	assert.Equal(t, 28, history[0].Delta)
}

func TestProcessHandler(t *testing.T) {
	server, teardown := setupTestServer(t, judge.NewMock(), notifier.NewMock())
	defer teardown()

	rr := postJSON(t, server, "/duels/enqueue", enqueueRequest{UserID: "alice", DisplayName: "Alice", Language: "go"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = getRequest(t, server, "/process")
	require.Equal(t, http.StatusOK, rr.Code)

	var summary reaper.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Zero(t, summary.QueueRemoved, "a fresh entry is not expired yet")
	assert.Zero(t, summary.DuelsCancelled)
}
