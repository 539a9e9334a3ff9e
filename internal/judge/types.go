package judge

// TestCase is one input/output pair a submission is run against.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Points         int    `json:"points"`
}

// Result is the judge's verdict for one submission.
type Result struct {
	Score       int    `json:"score"`
	TestsPassed int    `json:"tests_passed"`
	TestsTotal  int    `json:"tests_total"`
	ElapsedMs   int    `json:"elapsed_ms"`
	Error       string `json:"error,omitempty"`
}

// Passed reports whether every test case passed.
func (r Result) Passed() bool {
	return r.Error == "" && r.TestsTotal > 0 && r.TestsPassed == r.TestsTotal
}
