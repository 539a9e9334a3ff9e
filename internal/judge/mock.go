package judge

import (
	"context"
	"sync"
)

// MockJudge is a mock implementation of Judge for testing.
// It is safe for concurrent use.
type MockJudge struct {
	mu sync.Mutex

	EvaluateFunc func(ctx context.Context, code, language string, testCases []TestCase) (*Result, error)

	// Call records
	EvaluateCalls []EvaluateCall
}

// EvaluateCall holds the arguments for a call to Evaluate.
type EvaluateCall struct {
	Code      string
	Language  string
	TestCases []TestCase
}

// NewMock creates a new mock Judge.
func NewMock() *MockJudge {
	return &MockJudge{}
}

// Reset clears all call records.
func (m *MockJudge) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EvaluateCalls = nil
}

func (m *MockJudge) Evaluate(ctx context.Context, code, language string, testCases []TestCase) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EvaluateCalls = append(m.EvaluateCalls, EvaluateCall{code, language, testCases})
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, code, language, testCases)
	}
	total := 0
	for _, tc := range testCases {
		total += tc.Points
	}
	return &Result{Score: total, TestsPassed: len(testCases), TestsTotal: len(testCases), ElapsedMs: 100}, nil
}
