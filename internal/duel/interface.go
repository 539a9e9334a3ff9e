package duel

import "time"

// DuelStore is the persistence layer for duels and their submissions.
// Status transitions are enforced here so no caller can move a duel
// backwards out of a terminal state.
type DuelStore interface {
	CreateDuel(d *Duel) error
	GetDuel(id string) (*Duel, error)
	// ListDuels returns duels in the given status, newest first. An empty
	// status lists across all statuses.
	ListDuels(status Status, limit int) ([]Duel, error)
	// ListStale returns waiting duels created before, or active duels
	// started before, the cutoff.
	ListStale(status Status, cutoff time.Time) ([]Duel, error)
	UpdateStatus(id string, to Status) error
	// ActivateDuel fills the second seat of a waiting duel.
	ActivateDuel(id string, p2 Side, startedAt time.Time) error
	// CreateSubmission inserts a pending submission. ErrAlreadySubmitted
	// if the side already has one.
	CreateSubmission(sub *Submission) error
	// FinalizeSubmission records the judge verdict on the submission row.
	FinalizeSubmission(sub *Submission) error
	GetSubmissions(duelID string) ([]Submission, error)
	// RecordSideResult mirrors a judged score onto the duel row and
	// returns the updated duel.
	RecordSideResult(duelID, userID string, score, elapsedMs int, submittedAt time.Time) (*Duel, error)
	// CompleteDuel moves an active duel to completed with the outcome.
	// ErrInvalidTransition if the duel is not active anymore.
	CompleteDuel(id string, winnerID *string, ratingChangeP1, ratingChangeP2 int, endedAt time.Time) error
	// CancelDuel moves a waiting or active duel to cancelled.
	CancelDuel(id string, endedAt time.Time) error
}
