package rating

import "sync"

// MockService is a mock implementation of RatingService for testing.
// It is safe for concurrent use.
type MockService struct {
	mu sync.Mutex

	ApplyCompetitionResultFunc func(userID, competitionID string, rank, totalParticipants, scoreEarned int) (*PlayerRating, error)
	ApplyDuelResultFunc        func(duelID string, winner, loser DuelSide, isDraw bool) (DuelDeltas, error)
	GetPlayerRatingFunc        func(userID string) (*PlayerRating, error)
	GetLeaderboardFunc         func(minCompetitions, limit int) ([]PlayerRating, error)
	GetHistoryFunc             func(userID string, limit int) ([]HistoryEntry, error)
	PruneHistoryFunc           func(keepPerUser int) (int64, error)

	// Call records
	ApplyCompetitionResultCalls []ApplyCompetitionResultCall
	ApplyDuelResultCalls        []ApplyDuelResultCall
	PruneHistoryCalls           []int
}

// ApplyCompetitionResultCall holds the arguments for a call to ApplyCompetitionResult.
type ApplyCompetitionResultCall struct {
	UserID            string
	CompetitionID     string
	Rank              int
	TotalParticipants int
	ScoreEarned       int
}

// ApplyDuelResultCall holds the arguments for a call to ApplyDuelResult.
type ApplyDuelResultCall struct {
	DuelID string
	Winner DuelSide
	Loser  DuelSide
	IsDraw bool
}

// NewMock creates a new mock RatingService.
func NewMock() *MockService {
	return &MockService{}
}

// Reset clears all call records.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCompetitionResultCalls = nil
	m.ApplyDuelResultCalls = nil
	m.PruneHistoryCalls = nil
}

func (m *MockService) ApplyCompetitionResult(userID, competitionID string, rank, totalParticipants, scoreEarned int) (*PlayerRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyCompetitionResultCalls = append(m.ApplyCompetitionResultCalls, ApplyCompetitionResultCall{userID, competitionID, rank, totalParticipants, scoreEarned})
	if m.ApplyCompetitionResultFunc != nil {
		return m.ApplyCompetitionResultFunc(userID, competitionID, rank, totalParticipants, scoreEarned)
	}
	return &PlayerRating{UserID: userID, Rating: StartingRating, Tier: TierBronze}, nil
}

func (m *MockService) ApplyDuelResult(duelID string, winner, loser DuelSide, isDraw bool) (DuelDeltas, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApplyDuelResultCalls = append(m.ApplyDuelResultCalls, ApplyDuelResultCall{duelID, winner, loser, isDraw})
	if m.ApplyDuelResultFunc != nil {
		return m.ApplyDuelResultFunc(duelID, winner, loser, isDraw)
	}
	return ComputeDuelDeltas(winner.RatingSnapshot, loser.RatingSnapshot, isDraw), nil
}

func (m *MockService) GetPlayerRating(userID string) (*PlayerRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPlayerRatingFunc != nil {
		return m.GetPlayerRatingFunc(userID)
	}
	return &PlayerRating{UserID: userID, Rating: StartingRating, Tier: TierBronze}, nil
}

func (m *MockService) GetLeaderboard(minCompetitions, limit int) ([]PlayerRating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetLeaderboardFunc != nil {
		return m.GetLeaderboardFunc(minCompetitions, limit)
	}
	return nil, nil
}

func (m *MockService) GetHistory(userID string, limit int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(userID, limit)
	}
	return nil, nil
}

func (m *MockService) PruneHistory(keepPerUser int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PruneHistoryCalls = append(m.PruneHistoryCalls, keepPerUser)
	if m.PruneHistoryFunc != nil {
		return m.PruneHistoryFunc(keepPerUser)
	}
	return 0, nil
}
