package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	userID      string
	displayName string
	language    string
	difficulty  string
	duelID      string
	codeFile    string
	dryRun      bool
)

func init() {
	enqueueCmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	enqueueCmd.Flags().StringVar(&displayName, "name", "", "Display name (required)")
	enqueueCmd.Flags().StringVar(&language, "language", "go", "Submission language")
	enqueueCmd.Flags().StringVar(&difficulty, "difficulty", "", "Preferred challenge difficulty")
	enqueueCmd.MarkFlagRequired("user")
	enqueueCmd.MarkFlagRequired("name")

	cancelCmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cancelCmd.MarkFlagRequired("user")

	botCmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	botCmd.Flags().StringVar(&displayName, "name", "", "Display name (required)")
	botCmd.Flags().StringVar(&language, "language", "go", "Submission language")
	botCmd.Flags().StringVar(&difficulty, "difficulty", "", "Preferred challenge difficulty")
	botCmd.MarkFlagRequired("user")
	botCmd.MarkFlagRequired("name")

	submitCmd.Flags().StringVar(&duelID, "duel", "", "Duel ID (required)")
	submitCmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	submitCmd.Flags().StringVar(&language, "language", "go", "Submission language")
	submitCmd.Flags().StringVar(&codeFile, "code-file", "", "Path to the solution file (required)")
	submitCmd.MarkFlagRequired("duel")
	submitCmd.MarkFlagRequired("user")
	submitCmd.MarkFlagRequired("code-file")

	ratingCmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	ratingCmd.MarkFlagRequired("user")

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Sweep without persisting changes")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(duelsCmd)
	rootCmd.AddCommand(ratingCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(queueDepthCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Join the matchmaking queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"user_id":      userID,
			"display_name": displayName,
			"language":     language,
		}
		if difficulty != "" {
			body["difficulty"] = difficulty
		}
		return performPostRequest("/duels/enqueue", body)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Leave the matchmaking queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/duels/cancel", map[string]any{"user_id": userID})
	},
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start a duel against the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{
			"user_id":      userID,
			"display_name": displayName,
			"language":     language,
		}
		if difficulty != "" {
			body["difficulty"] = difficulty
		}
		return performPostRequest("/duels/bot", body)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a solution for a duel",
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := os.ReadFile(codeFile)
		if err != nil {
			return fmt.Errorf("failed to read solution file: %w", err)
		}
		return performPostRequest("/duels/submit", map[string]any{
			"duel_id":  duelID,
			"user_id":  userID,
			"code":     string(code),
			"language": language,
		})
	},
}

var duelsCmd = &cobra.Command{
	Use:   "duels",
	Short: "List recent duels",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/duels")
	},
}

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Show a player's rating record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/rating?userID=" + userID)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the rating leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard")
	},
}

var queueDepthCmd = &cobra.Command{
	Use:   "queue-depth",
	Short: "Show how many players are waiting in the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/queue/depth")
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run one reaper sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := "/process"
		if dryRun {
			endpoint += "?dry_run=true"
		}
		return performGetRequest(endpoint)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string, body map[string]any) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
