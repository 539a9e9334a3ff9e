package notifier

import (
	"sync"

	"github.com/codeclash/arena/internal/rating"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	SendDuelResultNotificationFunc func(result *DuelResult, dryRun bool) error
	SendLeaderboardFunc            func(players []rating.PlayerRating, dryRun bool) error
	FormatLeaderboardResponseFunc  func(players []rating.PlayerRating) (any, error)

	// Call records
	SendDuelResultNotificationCalls []*DuelResult
	SendLeaderboardCalls            [][]rating.PlayerRating
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDuelResultNotificationCalls = nil
	m.SendLeaderboardCalls = nil
}

func (m *Mock) SendDuelResultNotification(result *DuelResult, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendDuelResultNotificationCalls = append(m.SendDuelResultNotificationCalls, result)
	if m.SendDuelResultNotificationFunc != nil {
		return m.SendDuelResultNotificationFunc(result, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(players []rating.PlayerRating, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, players)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(players, dryRun)
	}
	return nil
}

func (m *Mock) FormatLeaderboardResponse(players []rating.PlayerRating) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		return m.FormatLeaderboardResponseFunc(players)
	}
	return nil, nil
}
