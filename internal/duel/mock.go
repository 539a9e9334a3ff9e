package duel

import (
	"sync"
	"time"
)

// MockStore is a mock implementation of DuelStore for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	CreateDuelFunc         func(d *Duel) error
	GetDuelFunc            func(id string) (*Duel, error)
	ListDuelsFunc          func(status Status, limit int) ([]Duel, error)
	ListStaleFunc          func(status Status, cutoff time.Time) ([]Duel, error)
	UpdateStatusFunc       func(id string, to Status) error
	ActivateDuelFunc       func(id string, p2 Side, startedAt time.Time) error
	CreateSubmissionFunc   func(sub *Submission) error
	FinalizeSubmissionFunc func(sub *Submission) error
	GetSubmissionsFunc     func(duelID string) ([]Submission, error)
	RecordSideResultFunc   func(duelID, userID string, score, elapsedMs int, submittedAt time.Time) (*Duel, error)
	CompleteDuelFunc       func(id string, winnerID *string, ratingChangeP1, ratingChangeP2 int, endedAt time.Time) error
	CancelDuelFunc         func(id string, endedAt time.Time) error

	// Call records
	CreatedDuels   []*Duel
	CancelledDuels []string
	CompletedDuels []string
}

// NewMockStore creates a new mock DuelStore.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedDuels = nil
	m.CancelledDuels = nil
	m.CompletedDuels = nil
}

func (m *MockStore) CreateDuel(d *Duel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedDuels = append(m.CreatedDuels, d)
	if m.CreateDuelFunc != nil {
		return m.CreateDuelFunc(d)
	}
	return nil
}

func (m *MockStore) GetDuel(id string) (*Duel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetDuelFunc != nil {
		return m.GetDuelFunc(id)
	}
	return nil, ErrDuelNotFound
}

func (m *MockStore) ListDuels(status Status, limit int) ([]Duel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListDuelsFunc != nil {
		return m.ListDuelsFunc(status, limit)
	}
	return nil, nil
}

func (m *MockStore) ListStale(status Status, cutoff time.Time) ([]Duel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListStaleFunc != nil {
		return m.ListStaleFunc(status, cutoff)
	}
	return nil, nil
}

func (m *MockStore) UpdateStatus(id string, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(id, to)
	}
	return nil
}

func (m *MockStore) ActivateDuel(id string, p2 Side, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ActivateDuelFunc != nil {
		return m.ActivateDuelFunc(id, p2, startedAt)
	}
	return nil
}

func (m *MockStore) CreateSubmission(sub *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateSubmissionFunc != nil {
		return m.CreateSubmissionFunc(sub)
	}
	return nil
}

func (m *MockStore) FinalizeSubmission(sub *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FinalizeSubmissionFunc != nil {
		return m.FinalizeSubmissionFunc(sub)
	}
	return nil
}

func (m *MockStore) GetSubmissions(duelID string) ([]Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetSubmissionsFunc != nil {
		return m.GetSubmissionsFunc(duelID)
	}
	return nil, nil
}

func (m *MockStore) RecordSideResult(duelID, userID string, score, elapsedMs int, submittedAt time.Time) (*Duel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordSideResultFunc != nil {
		return m.RecordSideResultFunc(duelID, userID, score, elapsedMs, submittedAt)
	}
	return nil, ErrDuelNotFound
}

func (m *MockStore) CompleteDuel(id string, winnerID *string, ratingChangeP1, ratingChangeP2 int, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompletedDuels = append(m.CompletedDuels, id)
	if m.CompleteDuelFunc != nil {
		return m.CompleteDuelFunc(id, winnerID, ratingChangeP1, ratingChangeP2, endedAt)
	}
	return nil
}

func (m *MockStore) CancelDuel(id string, endedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelledDuels = append(m.CancelledDuels, id)
	if m.CancelDuelFunc != nil {
		return m.CancelDuelFunc(id, endedAt)
	}
	return nil
}
