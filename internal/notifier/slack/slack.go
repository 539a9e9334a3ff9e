package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codeclash/arena/internal/metrics"
	"github.com/codeclash/arena/internal/notifier"
	"github.com/codeclash/arena/internal/rating"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// SendDuelResultNotification posts the outcome of a finished duel.
func (s *Notifier) SendDuelResultNotification(result *notifier.DuelResult, dryRun bool) error {
	msg := s.formatDuelResult(result)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// SendLeaderboard posts the current rating leaderboard.
func (s *Notifier) SendLeaderboard(players []rating.PlayerRating, dryRun bool) error {
	msg := s.formatLeaderboard(players)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

// FormatLeaderboardResponse formats a leaderboard message for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(players []rating.PlayerRating) (any, error) {
	return s.formatLeaderboard(players), nil
}

// formatDuelResult creates the Slack message for a finished duel using Block Kit.
func (s *Notifier) formatDuelResult(result *notifier.DuelResult) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "⚔️ Duel finished! ⚔️", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	p2Name := result.P2Name
	if result.P2IsBot {
		p2Name = fmt.Sprintf("%s 🤖", p2Name)
	}
	detailsText := fmt.Sprintf("%s vs %s\nChallenge: %s", result.P1Name, p2Name, result.ChallengeTitle)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	var resultHeaderText string
	if result.IsDraw {
		resultHeaderText = "Result: It's a draw! 🤝"
	} else {
		resultHeaderText = fmt.Sprintf("Result: %s won! 🏆", result.WinnerName)
	}
	scoreFields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("plain_text", fmt.Sprintf("%s\nScore: %d (%s)", result.P1Name, result.P1Score, formatElapsed(result.P1ElapsedMs)), true, false),
		slack.NewTextBlockObject("plain_text", fmt.Sprintf("%s\nScore: %d (%s)", p2Name, result.P2Score, formatElapsed(result.P2ElapsedMs)), true, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultHeaderText, true, false), scoreFields, nil))

	ratingText := fmt.Sprintf("%s %s | %s %s",
		result.P1Name, formatDelta(result.RatingChangeP1),
		p2Name, formatDelta(result.RatingChangeP2))
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", ratingText, true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates the Slack message for the rating leaderboard using Block Kit.
func (s *Notifier) formatLeaderboard(players []rating.PlayerRating) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Arena Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "Nobody has played enough competitions yet.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	var lines []string
	for i, p := range players {
		medal := fmt.Sprintf("%d.", i+1)
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}
		name := p.DisplayName
		if name == "" {
			name = p.UserID
		}
		lines = append(lines, fmt.Sprintf("%s %s - %d (%s)", medal, name, p.Rating, p.Tier))
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

func formatDelta(delta int) string {
	if delta >= 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}

func formatElapsed(elapsedMs int) string {
	return (time.Duration(elapsedMs) * time.Millisecond).Round(100 * time.Millisecond).String()
}
