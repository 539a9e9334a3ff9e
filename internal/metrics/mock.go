package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	enqueues         int
	matchesMade      int
	duelsCompleted   int
	duelsCancelled   int
	judgeCalls       int
	judgeFailures    int
	ratingUpdates    int
	sweepDurations   []float64
	slackNotifSent   int
	slackNotifFailed int
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		sweepDurations: make([]float64, 0),
	}
}

func (m *Mock) IncEnqueues() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueues++
}

func (m *Mock) IncMatchesMade() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesMade++
}

func (m *Mock) IncDuelsCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duelsCompleted++
}

func (m *Mock) IncDuelsCancelled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duelsCancelled++
}

func (m *Mock) IncJudgeCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.judgeCalls++
}

func (m *Mock) IncJudgeFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.judgeFailures++
}

func (m *Mock) IncRatingUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratingUpdates++
}

func (m *Mock) ObserveSweepDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepDurations = append(m.sweepDurations, duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Enqueues returns the number of times IncEnqueues was called.
func (m *Mock) Enqueues() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueues
}

// MatchesMade returns the number of times IncMatchesMade was called.
func (m *Mock) MatchesMade() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesMade
}

// DuelsCompleted returns the number of times IncDuelsCompleted was called.
func (m *Mock) DuelsCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duelsCompleted
}

// DuelsCancelled returns the number of times IncDuelsCancelled was called.
func (m *Mock) DuelsCancelled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duelsCancelled
}

// JudgeCalls returns the number of times IncJudgeCalls was called.
func (m *Mock) JudgeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.judgeCalls
}

// JudgeFailures returns the number of times IncJudgeFailures was called.
func (m *Mock) JudgeFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.judgeFailures
}

// RatingUpdates returns the number of times IncRatingUpdates was called.
func (m *Mock) RatingUpdates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratingUpdates
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
