package matchmaking

import (
	"sync"
	"time"
)

// MockQueue is a mock implementation of QueueService for testing.
// It is safe for concurrent use.
type MockQueue struct {
	mu sync.Mutex

	EnqueueFunc      func(userID, displayName string, rating int, language string, difficulty *string) (*QueueEntry, error)
	TryMatchFunc     func(userID, language string, rating, ratingRange int) (*MatchedOpponent, error)
	CancelFunc       func(userID string) error
	SweepExpiredFunc func(now time.Time) (int64, error)
	GetEntryFunc     func(userID string) (*QueueEntry, error)
	DepthFunc        func(language string) (int, error)

	// Call records
	EnqueueCalls  []EnqueueCall
	TryMatchCalls []TryMatchCall
	CancelCalls   []string
	SweepCalls    []time.Time
}

// EnqueueCall holds the arguments for a call to Enqueue.
type EnqueueCall struct {
	UserID      string
	DisplayName string
	Rating      int
	Language    string
	Difficulty  *string
}

// TryMatchCall holds the arguments for a call to TryMatch.
type TryMatchCall struct {
	UserID      string
	Language    string
	Rating      int
	RatingRange int
}

// NewMock creates a new mock QueueService.
func NewMock() *MockQueue {
	return &MockQueue{}
}

// Reset clears all call records.
func (m *MockQueue) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnqueueCalls = nil
	m.TryMatchCalls = nil
	m.CancelCalls = nil
	m.SweepCalls = nil
}

func (m *MockQueue) Enqueue(userID, displayName string, rating int, language string, difficulty *string) (*QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EnqueueCalls = append(m.EnqueueCalls, EnqueueCall{userID, displayName, rating, language, difficulty})
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(userID, displayName, rating, language, difficulty)
	}
	now := time.Now()
	return &QueueEntry{
		UserID:      userID,
		DisplayName: displayName,
		Rating:      rating,
		Language:    language,
		Difficulty:  difficulty,
		QueuedAt:    now,
		ExpiresAt:   now.Add(QueueTTL),
	}, nil
}

func (m *MockQueue) TryMatch(userID, language string, rating, ratingRange int) (*MatchedOpponent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TryMatchCalls = append(m.TryMatchCalls, TryMatchCall{userID, language, rating, ratingRange})
	if m.TryMatchFunc != nil {
		return m.TryMatchFunc(userID, language, rating, ratingRange)
	}
	return nil, nil
}

func (m *MockQueue) Cancel(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelCalls = append(m.CancelCalls, userID)
	if m.CancelFunc != nil {
		return m.CancelFunc(userID)
	}
	return nil
}

func (m *MockQueue) SweepExpired(now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SweepCalls = append(m.SweepCalls, now)
	if m.SweepExpiredFunc != nil {
		return m.SweepExpiredFunc(now)
	}
	return 0, nil
}

func (m *MockQueue) GetEntry(userID string) (*QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetEntryFunc != nil {
		return m.GetEntryFunc(userID)
	}
	return nil, nil
}

func (m *MockQueue) Depth(language string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DepthFunc != nil {
		return m.DepthFunc(language)
	}
	return 0, nil
}
