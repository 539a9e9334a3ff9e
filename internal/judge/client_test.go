package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	mockJSONResponse := `{
		"per_test": [
			{ "passed": true, "actual_output": "3", "elapsed_ms": 12 },
			{ "passed": true, "actual_output": "10", "elapsed_ms": 9 },
			{ "passed": false, "actual_output": "-1", "elapsed_ms": 15 }
		],
		"total_score": 66,
		"elapsed_ms_total": 36
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/evaluate", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var req evaluateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "print(1+2)", req.Code)
		assert.Equal(t, "python", req.Language)
		assert.Len(t, req.TestCases, 3)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, mockJSONResponse)
	}))
	defer server.Close()

	client := APIClient{httpClient: server.Client(), BaseURL: server.URL}

	cases := []TestCase{
		{Input: "1 2", ExpectedOutput: "3", Points: 33},
		{Input: "4 6", ExpectedOutput: "10", Points: 33},
		{Input: "0 0", ExpectedOutput: "0", Points: 34},
	}
	result, err := client.Evaluate(context.Background(), "print(1+2)", "python", cases)

	require.NoError(t, err)
	assert.Equal(t, 66, result.Score)
	assert.Equal(t, 2, result.TestsPassed)
	assert.Equal(t, 3, result.TestsTotal)
	assert.Equal(t, 36, result.ElapsedMs)
	assert.Empty(t, result.Error)
	assert.False(t, result.Passed())
}

func TestEvaluatePropagatesTestError(t *testing.T) {
	mockJSONResponse := `{
		"per_test": [
			{ "passed": false, "elapsed_ms": 5, "error": "runtime error: division by zero" }
		],
		"total_score": 0,
		"elapsed_ms_total": 5
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, mockJSONResponse)
	}))
	defer server.Close()

	client := APIClient{httpClient: server.Client(), BaseURL: server.URL}
	result, err := client.Evaluate(context.Background(), "1/0", "python", []TestCase{{Input: "", ExpectedOutput: ""}})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, "runtime error: division by zero", result.Error)
	assert.False(t, result.Passed())
}

func TestEvaluateNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "judge overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := APIClient{httpClient: server.Client(), BaseURL: server.URL}
	_, err := client.Evaluate(context.Background(), "code", "go", nil)
	assert.Error(t, err)
}

func TestEvaluateRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := APIClient{httpClient: server.Client(), BaseURL: server.URL}
	_, err := client.Evaluate(ctx, "code", "go", nil)
	assert.Error(t, err)
}
