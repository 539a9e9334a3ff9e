package duel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codeclash/arena/internal/challenge"
	"github.com/codeclash/arena/internal/judge"
	"github.com/codeclash/arena/internal/matchmaking"
	"github.com/codeclash/arena/internal/metrics"
	"github.com/codeclash/arena/internal/notifier"
	"github.com/codeclash/arena/internal/pubsub"
	"github.com/codeclash/arena/internal/rating"
)

// Manager owns the duel lifecycle: it bridges the matchmaking queue and
// the code judge, and applies ratings when a duel resolves.
type Manager struct {
	store      DuelStore
	queue      matchmaking.QueueService
	ratings    rating.RatingService
	challenges challenge.ChallengeStore
	judge      judge.Judge
	notifier   notifier.Notifier
	metrics    metrics.Metrics
	pubsub     pubsub.PubSubClient
}

// NewManager creates a new Manager.
func NewManager(
	store DuelStore,
	queue matchmaking.QueueService,
	ratings rating.RatingService,
	challenges challenge.ChallengeStore,
	judge judge.Judge,
	notifier notifier.Notifier,
	metrics metrics.Metrics,
	pubsub pubsub.PubSubClient,
) *Manager {
	return &Manager{
		store:      store,
		queue:      queue,
		ratings:    ratings,
		challenges: challenges,
		judge:      judge,
		notifier:   notifier,
		metrics:    metrics,
		pubsub:     pubsub,
	}
}

// Enqueue puts the player in the matchmaking queue and immediately tries
// to match them. Exactly one of the returned entry or duel is non-nil.
func (m *Manager) Enqueue(userID, displayName, language string, difficulty *string) (*matchmaking.QueueEntry, *Duel, error) {
	snapshot := m.ratingSnapshot(userID)

	entry, err := m.queue.Enqueue(userID, displayName, snapshot, language, difficulty)
	if err != nil {
		return nil, nil, err
	}
	m.metrics.IncEnqueues()

	opponent, err := m.queue.TryMatch(userID, language, snapshot, matchmaking.DefaultRatingRange)
	if err != nil {
		return nil, nil, err
	}
	if opponent == nil {
		return entry, nil, nil
	}

	d, err := m.createMatchedDuel(Side{ID: userID, Name: displayName, RatingSnapshot: snapshot}, opponent, language, difficulty)
	if err != nil {
		// The claim already removed the opponent's entry. Put them back
		// so they keep waiting instead of being silently unqueued.
		if _, reErr := m.queue.Enqueue(opponent.UserID, opponent.DisplayName, opponent.Rating, language, opponent.Difficulty); reErr != nil {
			log.Error("Failed to requeue opponent after duel creation failure", "error", reErr, "opponentID", opponent.UserID)
		}
		return nil, nil, err
	}
	m.metrics.IncMatchesMade()
	return nil, d, nil
}

// CancelQueue removes the player from the queue.
func (m *Manager) CancelQueue(userID string) error {
	return m.queue.Cancel(userID)
}

// CreateBotDuel starts a duel against a bot seat. The bot's outcome is the
// judged reference solution, computed once at creation rather than by a
// second live actor.
func (m *Manager) CreateBotDuel(ctx context.Context, userID, displayName, language string, difficulty *string) (*Duel, error) {
	snapshot := m.ratingSnapshot(userID)

	// A bot duel supersedes any pending queue entry.
	if err := m.queue.Cancel(userID); err != nil {
		return nil, err
	}

	ch, err := m.challenges.PickChallenge(difficulty)
	if err != nil {
		return nil, err
	}

	m.metrics.IncJudgeCalls()
	botResult, err := m.judge.Evaluate(ctx, ch.ReferenceSolution, language, ch.TestCases)
	if err != nil {
		// A broken reference run scores zero, same as a failed submission.
		m.metrics.IncJudgeFailures()
		log.Error("Failed to judge reference solution for bot seat", "error", err, "challengeID", ch.ID)
		botResult = &judge.Result{Error: err.Error()}
	}

	now := time.Now()
	d := &Duel{
		ChallengeID: ch.ID,
		Language:    language,
		Status:      StatusActive,
		P1:          Side{ID: userID, Name: displayName, RatingSnapshot: snapshot},
		P2:          &Side{ID: BotUserID, Name: BotDisplayName, RatingSnapshot: snapshot, IsBot: true},
		CreatedAt:   now,
		StartedAt:   &now,
	}
	if err := m.store.CreateDuel(d); err != nil {
		return nil, err
	}

	d, err = m.store.RecordSideResult(d.ID, BotUserID, botResult.Score, botResult.ElapsedMs, now)
	if err != nil {
		return nil, err
	}

	log.Info("Created bot duel", "duelID", d.ID, "userID", userID, "challengeID", ch.ID, "botScore", botResult.Score)
	return d, nil
}

// CreateOpenDuel creates a duel with only one seat filled, waiting for a
// human opponent. The reaper cancels it if nobody joins in time.
func (m *Manager) CreateOpenDuel(userID, displayName, language string, difficulty *string) (*Duel, error) {
	snapshot := m.ratingSnapshot(userID)

	ch, err := m.challenges.PickChallenge(difficulty)
	if err != nil {
		return nil, err
	}

	d := &Duel{
		ChallengeID: ch.ID,
		Language:    language,
		Status:      StatusWaiting,
		P1:          Side{ID: userID, Name: displayName, RatingSnapshot: snapshot},
		CreatedAt:   time.Now(),
	}
	if err := m.store.CreateDuel(d); err != nil {
		return nil, err
	}
	return d, nil
}

// JoinDuel fills the second seat of a waiting duel and activates it.
func (m *Manager) JoinDuel(duelID, userID, displayName string) (*Duel, error) {
	d, err := m.store.GetDuel(duelID)
	if err != nil {
		return nil, err
	}
	if d.P1.ID == userID {
		return nil, ErrNotParticipant
	}

	now := time.Now()
	p2 := Side{ID: userID, Name: displayName, RatingSnapshot: m.ratingSnapshot(userID)}
	if err := m.store.ActivateDuel(duelID, p2, now); err != nil {
		return nil, err
	}
	m.metrics.IncMatchesMade()
	return m.store.GetDuel(duelID)
}

// SubmitSolution records a side's answer, judges it, and resolves the duel
// synchronously if this was the last result outstanding.
func (m *Manager) SubmitSolution(ctx context.Context, duelID, userID, code, language string, dryRun bool) (*Submission, *Duel, error) {
	d, err := m.store.GetDuel(duelID)
	if err != nil {
		return nil, nil, err
	}
	if d.Status != StatusActive {
		return nil, nil, fmt.Errorf("%w: duel %s is %s", ErrDuelNotActive, duelID, d.Status)
	}
	if d.P1.ID != userID && (d.P2 == nil || d.P2.ID != userID || d.P2.IsBot) {
		return nil, nil, ErrNotParticipant
	}

	sub := &Submission{
		DuelID:   duelID,
		UserID:   userID,
		Code:     code,
		Language: language,
		Status:   SubmissionRunning,
	}
	if err := m.store.CreateSubmission(sub); err != nil {
		return nil, nil, err
	}

	ch, err := m.challenges.GetChallenge(d.ChallengeID)
	if err != nil {
		return nil, nil, err
	}

	m.metrics.IncJudgeCalls()
	result, err := m.judge.Evaluate(ctx, code, language, ch.TestCases)
	if err != nil {
		// Judge failures never abort the duel. The side scores zero.
		m.metrics.IncJudgeFailures()
		log.Error("Judge call failed, scoring submission as zero", "error", err, "duelID", duelID, "userID", userID)
		msg := err.Error()
		result = &judge.Result{}
		sub.Status = SubmissionFailed
		sub.Error = &msg
	} else {
		sub.Score = result.Score
		sub.TestsPassed = result.TestsPassed
		sub.TestsTotal = result.TestsTotal
		sub.ElapsedMs = result.ElapsedMs
		if result.Error != "" {
			e := result.Error
			sub.Error = &e
		}
		if result.Passed() {
			sub.Status = SubmissionPassed
		} else {
			sub.Status = SubmissionFailed
		}
	}
	if err := m.store.FinalizeSubmission(sub); err != nil {
		return nil, nil, err
	}

	d, err = m.store.RecordSideResult(duelID, userID, sub.Score, sub.ElapsedMs, time.Now())
	if err != nil {
		return nil, nil, err
	}

	if d.P1Score != nil && d.P2Score != nil {
		d, err = m.resolve(d, dryRun)
		if err != nil {
			return nil, nil, err
		}
	}
	return sub, d, nil
}

// GetDuel returns one duel by id.
func (m *Manager) GetDuel(id string) (*Duel, error) {
	return m.store.GetDuel(id)
}

// ListDuels returns duels, newest first, optionally filtered by status.
func (m *Manager) ListDuels(status Status, limit int) ([]Duel, error) {
	return m.store.ListDuels(status, limit)
}

// ResolveTimedOut handles active duels past the 20-minute backstop: duels
// where at least one side was judged resolve with the silent side scored
// zero; duels where nobody submitted are cancelled with no rating effect.
func (m *Manager) ResolveTimedOut(now time.Time, dryRun bool) (int, error) {
	stale, err := m.store.ListStale(StatusActive, now.Add(-ActiveTimeout))
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range stale {
		d := &stale[i]
		if d.P1Score == nil && d.P2Score == nil {
			if err := m.store.CancelDuel(d.ID, now); err != nil {
				log.Error("Failed to cancel timed-out duel", "error", err, "duelID", d.ID)
				continue
			}
			m.metrics.IncDuelsCancelled()
			log.Info("Cancelled duel with no submissions", "duelID", d.ID)
			processed++
			continue
		}
		if _, err := m.resolve(d, dryRun); err != nil {
			log.Error("Failed to resolve timed-out duel", "error", err, "duelID", d.ID)
			continue
		}
		log.Info("Resolved timed-out duel", "duelID", d.ID)
		processed++
	}
	return processed, nil
}

// CancelUnmatched cancels waiting duels that never got a second seat
// within the 5-minute window.
func (m *Manager) CancelUnmatched(now time.Time) (int, error) {
	stale, err := m.store.ListStale(StatusWaiting, now.Add(-WaitingTimeout))
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, d := range stale {
		if err := m.store.CancelDuel(d.ID, now); err != nil {
			log.Error("Failed to cancel unmatched duel", "error", err, "duelID", d.ID)
			continue
		}
		m.metrics.IncDuelsCancelled()
		cancelled++
	}
	return cancelled, nil
}

func (m *Manager) createMatchedDuel(caller Side, opponent *matchmaking.MatchedOpponent, language string, difficulty *string) (*Duel, error) {
	if difficulty == nil {
		difficulty = opponent.Difficulty
	}
	ch, err := m.challenges.PickChallenge(difficulty)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	d := &Duel{
		ChallengeID: ch.ID,
		Language:    language,
		Status:      StatusActive,
		P1:          caller,
		P2:          &Side{ID: opponent.UserID, Name: opponent.DisplayName, RatingSnapshot: opponent.Rating},
		CreatedAt:   now,
		StartedAt:   &now,
	}
	if err := m.store.CreateDuel(d); err != nil {
		return nil, err
	}
	log.Info("Created duel", "duelID", d.ID, "p1", caller.ID, "p2", opponent.UserID, "challengeID", ch.ID)
	return d, nil
}

// resolve decides the outcome, applies ratings from the start-of-duel
// snapshots, and marks the duel completed. The rating store's per-duel
// idempotence guard makes concurrent resolution attempts collapse to one.
func (m *Manager) resolve(d *Duel, dryRun bool) (*Duel, error) {
	if d.P2 == nil {
		return nil, fmt.Errorf("cannot resolve duel %s: second seat never filled", d.ID)
	}

	winner, loser, isDraw := decideOutcome(d)

	deltas, err := m.ratings.ApplyDuelResult(d.ID, ratingSide(winner), ratingSide(loser), isDraw)
	switch {
	case errors.Is(err, rating.ErrAlreadyApplied):
		// The ratings landed on an earlier attempt that never finished
		// the completion write. The deltas are a pure function of the
		// snapshots, so recompute them and finish the transition.
		deltas = rating.ComputeDuelDeltas(winner.RatingSnapshot, loser.RatingSnapshot, isDraw)
	case err != nil:
		return nil, err
	default:
		m.metrics.IncRatingUpdates()
	}

	changeP1, changeP2 := deltas.Winner, deltas.Loser
	if winner.ID != d.P1.ID {
		changeP1, changeP2 = deltas.Loser, deltas.Winner
	}

	var winnerID *string
	if !isDraw {
		winnerID = &winner.ID
	}

	now := time.Now()
	if err := m.store.CompleteDuel(d.ID, winnerID, changeP1, changeP2, now); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return m.store.GetDuel(d.ID)
		}
		return nil, err
	}
	m.metrics.IncDuelsCompleted()

	d, err = m.store.GetDuel(d.ID)
	if err != nil {
		return nil, err
	}

	m.publishCompletion(d, dryRun)
	return d, nil
}

func (m *Manager) publishCompletion(d *Duel, dryRun bool) {
	winnerID := ""
	winnerName := ""
	if d.WinnerID != nil {
		winnerID = *d.WinnerID
		if winnerID == d.P1.ID {
			winnerName = d.P1.Name
		} else if d.P2 != nil {
			winnerName = d.P2.Name
		}
	}

	if !dryRun {
		event := pubsub.DuelCompletedEvent{
			DuelID:         d.ID,
			ChallengeID:    d.ChallengeID,
			WinnerID:       winnerID,
			IsDraw:         d.WinnerID == nil,
			P1ID:           d.P1.ID,
			P2ID:           d.P2.ID,
			P1Score:        scoreOrZero(d.P1Score),
			P2Score:        scoreOrZero(d.P2Score),
			RatingChangeP1: scoreOrZero(d.RatingChangeP1),
			RatingChangeP2: scoreOrZero(d.RatingChangeP2),
		}
		if err := m.pubsub.SendMessage(pubsub.EventDuelCompleted, event); err != nil {
			log.Error("Failed to publish duel completion", "error", err, "duelID", d.ID)
		}
	}

	title := d.ChallengeID
	if ch, err := m.challenges.GetChallenge(d.ChallengeID); err == nil {
		title = ch.Title
	}
	result := &notifier.DuelResult{
		DuelID:         d.ID,
		ChallengeTitle: title,
		P1Name:         d.P1.Name,
		P2Name:         d.P2.Name,
		P2IsBot:        d.P2.IsBot,
		P1Score:        scoreOrZero(d.P1Score),
		P2Score:        scoreOrZero(d.P2Score),
		P1ElapsedMs:    scoreOrZero(d.P1ElapsedMs),
		P2ElapsedMs:    scoreOrZero(d.P2ElapsedMs),
		WinnerName:     winnerName,
		IsDraw:         d.WinnerID == nil,
		RatingChangeP1: scoreOrZero(d.RatingChangeP1),
		RatingChangeP2: scoreOrZero(d.RatingChangeP2),
	}
	if err := m.notifier.SendDuelResultNotification(result, dryRun); err != nil {
		log.Error("Failed to send duel result notification", "error", err, "duelID", d.ID)
	}
}

// ratingSnapshot looks up the player's current rating, defaulting to the
// starting rating for players with no record yet.
func (m *Manager) ratingSnapshot(userID string) int {
	player, err := m.ratings.GetPlayerRating(userID)
	if err != nil {
		return rating.StartingRating
	}
	return player.Rating
}

// decideOutcome is the deterministic resolution order: score descending,
// then elapsed time ascending, then draw. A side that never submitted
// counts as score zero with unbounded time.
func decideOutcome(d *Duel) (winner, loser *Side, isDraw bool) {
	p1Score, p2Score := scoreOrZero(d.P1Score), scoreOrZero(d.P2Score)
	p1Elapsed, p2Elapsed := elapsedOrMax(d.P1ElapsedMs), elapsedOrMax(d.P2ElapsedMs)

	switch {
	case p1Score > p2Score:
		return &d.P1, d.P2, false
	case p2Score > p1Score:
		return d.P2, &d.P1, false
	case p1Elapsed < p2Elapsed:
		return &d.P1, d.P2, false
	case p2Elapsed < p1Elapsed:
		return d.P2, &d.P1, false
	default:
		return &d.P1, d.P2, true
	}
}

func ratingSide(s *Side) rating.DuelSide {
	return rating.DuelSide{
		UserID:         s.ID,
		DisplayName:    s.Name,
		RatingSnapshot: s.RatingSnapshot,
		IsBot:          s.IsBot,
	}
}

func scoreOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func elapsedOrMax(v *int) int {
	if v == nil {
		return math.MaxInt
	}
	return *v
}
