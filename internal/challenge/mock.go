package challenge

import (
	"sync"

	"github.com/codeclash/arena/internal/judge"
)

// MockStore is a mock implementation of ChallengeStore for testing.
type MockStore struct {
	mu sync.Mutex

	PickChallengeFunc   func(difficulty *string) (*Challenge, error)
	GetChallengeFunc    func(id string) (*Challenge, error)
	CreateChallengeFunc func(c *Challenge) error

	// Call records
	PickChallengeCalls []*string
	CreatedChallenges  []*Challenge
}

// NewMock creates a new mock ChallengeStore.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PickChallengeCalls = nil
	m.CreatedChallenges = nil
}

// defaultChallenge is what the mock hands out unless overridden.
func defaultChallenge() *Challenge {
	return &Challenge{
		ID:         "challenge-1",
		Title:      "Sum Two Numbers",
		Difficulty: "easy",
		TestCases: []judge.TestCase{
			{Input: "1 2", ExpectedOutput: "3", Points: 50},
			{Input: "4 6", ExpectedOutput: "10", Points: 50},
		},
		ReferenceSolution: "print(sum(map(int, input().split())))",
	}
}

func (m *MockStore) PickChallenge(difficulty *string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PickChallengeCalls = append(m.PickChallengeCalls, difficulty)
	if m.PickChallengeFunc != nil {
		return m.PickChallengeFunc(difficulty)
	}
	return defaultChallenge(), nil
}

func (m *MockStore) GetChallenge(id string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetChallengeFunc != nil {
		return m.GetChallengeFunc(id)
	}
	c := defaultChallenge()
	c.ID = id
	return c, nil
}

func (m *MockStore) CreateChallenge(c *Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedChallenges = append(m.CreatedChallenges, c)
	if m.CreateChallengeFunc != nil {
		return m.CreateChallengeFunc(c)
	}
	return nil
}
