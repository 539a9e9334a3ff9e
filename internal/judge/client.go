package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// APIClient talks to the judge service over HTTP.
type APIClient struct {
	httpClient *http.Client
	BaseURL    string
}

// NewClient creates a judge client for the given base URL.
func NewClient(baseURL string) Judge {
	return &APIClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    baseURL,
	}
}

// Ensure APIClient implements the Judge interface.
var _ Judge = (*APIClient)(nil)

type evaluateRequest struct {
	Code      string     `json:"code"`
	Language  string     `json:"language"`
	TestCases []TestCase `json:"test_cases"`
}

type evaluateResponse struct {
	PerTest []struct {
		Passed       bool   `json:"passed"`
		ActualOutput string `json:"actual_output"`
		ElapsedMs    int    `json:"elapsed_ms"`
		Error        string `json:"error,omitempty"`
	} `json:"per_test"`
	TotalScore     int    `json:"total_score"`
	ElapsedMsTotal int    `json:"elapsed_ms_total"`
	Error          string `json:"error,omitempty"`
}

// Evaluate submits code to the judge and folds the per-test verdicts into a
// single Result.
func (c *APIClient) Evaluate(ctx context.Context, code, language string, testCases []TestCase) (*Result, error) {
	body, err := json.Marshal(evaluateRequest{Code: code, Language: language, TestCases: testCases})
	if err != nil {
		return nil, fmt.Errorf("failed to encode judge request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/evaluate", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug("Sending submission to judge", "url", url, "language", language, "testCases", len(testCases))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute judge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		log.Error("Received non-OK HTTP status from judge", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("received non-OK HTTP status from judge: %d", resp.StatusCode)
	}

	var judged evaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&judged); err != nil {
		return nil, fmt.Errorf("failed to decode judge response: %w", err)
	}

	result := &Result{
		Score:      judged.TotalScore,
		TestsTotal: len(judged.PerTest),
		ElapsedMs:  judged.ElapsedMsTotal,
		Error:      judged.Error,
	}
	for _, tc := range judged.PerTest {
		if tc.Passed {
			result.TestsPassed++
		}
		if result.Error == "" && tc.Error != "" {
			result.Error = tc.Error
		}
	}

	log.Info("Judged submission", "score", result.Score, "passed", result.TestsPassed, "total", result.TestsTotal)
	return result, nil
}
