package duel

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

const (
	// WaitingTimeout is how long a duel may sit unmatched before the
	// reaper cancels it.
	WaitingTimeout = 5 * time.Minute
	// ActiveTimeout is the backstop for active duels that never resolved.
	ActiveTimeout = 20 * time.Minute

	// BotUserID fills the second seat when no human opponent is available.
	BotUserID      = "bot"
	BotDisplayName = "Clash Bot"
)

var (
	ErrDuelNotFound      = errors.New("duel not found")
	ErrDuelNotActive     = errors.New("duel is not active")
	ErrAlreadySubmitted  = errors.New("solution already submitted for this duel")
	ErrNotParticipant    = errors.New("user is not a participant of this duel")
	ErrInvalidTransition = errors.New("invalid duel status transition")
)

// Status is the duel state machine. Transitions only move forward.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func canTransition(from, to Status) bool {
	switch from {
	case StatusWaiting:
		return to == StatusActive || to == StatusCancelled
	case StatusActive:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}

// Side is one seat of a duel with the rating snapshot taken when the seat
// was filled. Resolution uses snapshots, never live ratings.
type Side struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	RatingSnapshot int    `json:"rating_snapshot"`
	IsBot          bool   `json:"is_bot,omitempty"`
}

// Duel is one 1-on-1 (or 1-vs-bot) contest over a shared challenge.
type Duel struct {
	ID          string `json:"id"`
	ChallengeID string `json:"challenge_id"`
	Language    string `json:"language"`
	Status      Status `json:"status"`

	P1 Side  `json:"p1"`
	P2 *Side `json:"p2,omitempty"`

	WinnerID       *string    `json:"winner_id,omitempty"`
	P1Score        *int       `json:"p1_score,omitempty"`
	P2Score        *int       `json:"p2_score,omitempty"`
	P1ElapsedMs    *int       `json:"p1_elapsed_ms,omitempty"`
	P2ElapsedMs    *int       `json:"p2_elapsed_ms,omitempty"`
	P1SubmittedAt  *time.Time `json:"p1_submitted_at,omitempty"`
	P2SubmittedAt  *time.Time `json:"p2_submitted_at,omitempty"`
	RatingChangeP1 *int       `json:"rating_change_p1,omitempty"`
	RatingChangeP2 *int       `json:"rating_change_p2,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// SubmissionStatus tracks a submission through judging.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionRunning SubmissionStatus = "running"
	SubmissionPassed  SubmissionStatus = "passed"
	SubmissionFailed  SubmissionStatus = "failed"
)

// Submission is one human side's answer. Immutable once the judge result
// is recorded.
type Submission struct {
	ID          string           `json:"id"`
	DuelID      string           `json:"duel_id"`
	UserID      string           `json:"user_id"`
	Code        string           `json:"-"`
	Language    string           `json:"language"`
	Status      SubmissionStatus `json:"status"`
	Score       int              `json:"score"`
	TestsPassed int              `json:"tests_passed"`
	TestsTotal  int              `json:"tests_total"`
	ElapsedMs   int              `json:"elapsed_ms"`
	Error       *string          `json:"error,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

type store struct {
	db *sql.DB
	mu sync.Mutex
}
