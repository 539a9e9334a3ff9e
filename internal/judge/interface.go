package judge

import "context"

// Judge runs submitted code against a challenge's test cases. The execution
// backend is external; callers treat it as a black box.
type Judge interface {
	Evaluate(ctx context.Context, code, language string, testCases []TestCase) (*Result, error)
}
