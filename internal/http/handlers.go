package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codeclash/arena/internal/challenge"
	"github.com/codeclash/arena/internal/duel"
	"github.com/codeclash/arena/internal/matchmaking"
	"github.com/codeclash/arena/internal/pubsub"
	"github.com/codeclash/arena/internal/rating"
	"github.com/slack-go/slack"
)

// minLeaderboardCompetitions hides players with too few completed
// competitions from public rankings.
const minLeaderboardCompetitions = 3

const defaultListLimit = 50

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response to JSON", "error", err)
	}
}

// statusForError maps the core's error taxonomy onto HTTP status codes.
// Conflicts are legitimate races resolved by rejecting the second caller.
func statusForError(err error) int {
	switch {
	case errors.Is(err, duel.ErrDuelNotFound), errors.Is(err, challenge.ErrNoChallenges):
		return http.StatusNotFound
	case errors.Is(err, duel.ErrDuelNotActive),
		errors.Is(err, duel.ErrAlreadySubmitted),
		errors.Is(err, duel.ErrNotParticipant),
		errors.Is(err, matchmaking.ErrAlreadyMatched),
		errors.Is(err, rating.ErrAlreadyApplied):
		return http.StatusConflict
	case errors.Is(err, rating.ErrInvalidResult):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type enqueueRequest struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Language    string  `json:"language"`
	Difficulty  *string `json:"difficulty,omitempty"`
}

type enqueueResponse struct {
	Matched bool                    `json:"matched"`
	Entry   *matchmaking.QueueEntry `json:"entry,omitempty"`
	Duel    *duel.Duel              `json:"duel,omitempty"`
}

// EnqueueHandler puts a player in the matchmaking queue. If an eligible
// opponent is already waiting, the match happens synchronously and the
// response carries the created duel instead of a queue entry.
func (s *Server) EnqueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.DisplayName == "" || req.Language == "" {
			http.Error(w, "user_id, display_name and language are required", http.StatusBadRequest)
			return
		}

		entry, d, err := s.Duels.Enqueue(req.UserID, req.DisplayName, req.Language, req.Difficulty)
		if err != nil {
			log.Error("Failed to enqueue player", "error", err, "userID", req.UserID)
			http.Error(w, "Failed to enqueue", statusForError(err))
			return
		}

		if d != nil {
			log.Info("Player matched on enqueue", "userID", req.UserID, "duelID", d.ID)
			respondJSON(w, enqueueResponse{Matched: true, Duel: d})
			return
		}
		respondJSON(w, enqueueResponse{Matched: false, Entry: entry})
	}
}

// CancelQueueHandler removes the caller from the queue. Idempotent.
func (s *Server) CancelQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		if err := s.Duels.CancelQueue(req.UserID); err != nil {
			log.Error("Failed to cancel queue entry", "error", err, "userID", req.UserID)
			http.Error(w, "Failed to cancel", statusForError(err))
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

// BotDuelHandler starts a duel against the bot. The bot's result is judged
// once at creation, so the duel goes straight to active.
func (s *Server) BotDuelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.DisplayName == "" || req.Language == "" {
			http.Error(w, "user_id, display_name and language are required", http.StatusBadRequest)
			return
		}

		d, err := s.Duels.CreateBotDuel(r.Context(), req.UserID, req.DisplayName, req.Language, req.Difficulty)
		if err != nil {
			log.Error("Failed to create bot duel", "error", err, "userID", req.UserID)
			http.Error(w, "Failed to create bot duel", statusForError(err))
			return
		}
		respondJSON(w, d)
	}
}

type submitRequest struct {
	DuelID   string `json:"duel_id"`
	UserID   string `json:"user_id"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

type submitResponse struct {
	Submission *duel.Submission `json:"submission"`
	Duel       *duel.Duel       `json:"duel"`
}

// SubmitSolutionHandler records a side's solution and judges it. When this
// was the last result outstanding, the returned duel is already resolved
// with winner and rating changes filled in.
func (s *Server) SubmitSolutionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.DuelID == "" || req.UserID == "" || req.Code == "" {
			http.Error(w, "duel_id, user_id and code are required", http.StatusBadRequest)
			return
		}
		isDryRun := isDryRunFromContext(r)

		sub, d, err := s.Duels.SubmitSolution(r.Context(), req.DuelID, req.UserID, req.Code, req.Language, isDryRun)
		if err != nil {
			log.Error("Failed to submit solution", "error", err, "duelID", req.DuelID, "userID", req.UserID)
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		respondJSON(w, submitResponse{Submission: sub, Duel: d})
	}
}

// GetDuelsHandler reads one duel by id, or lists duels newest first,
// optionally filtered by status.
func (s *Server) GetDuelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id := r.URL.Query().Get("id"); id != "" {
			d, err := s.Duels.GetDuel(id)
			if err != nil {
				http.Error(w, "Failed to get duel", statusForError(err))
				return
			}
			respondJSON(w, d)
			return
		}

		limit := defaultListLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err == nil && parsed > 0 {
				limit = parsed
			} else {
				log.Warn("Invalid 'limit' parameter provided. Using default.", "limit_param", limitStr)
			}
		}

		duels, err := s.Duels.ListDuels(duel.Status(r.URL.Query().Get("status")), limit)
		if err != nil {
			log.Error("Failed to list duels", "error", err)
			http.Error(w, "Failed to list duels", http.StatusInternalServerError)
			return
		}
		respondJSON(w, duels)
	}
}

type competitionResultRequest struct {
	UserID            string `json:"user_id"`
	CompetitionID     string `json:"competition_id"`
	Rank              int    `json:"rank"`
	TotalParticipants int    `json:"total_participants"`
	ScoreEarned       int    `json:"score_earned"`
}

// CompetitionResultHandler applies one participant's competition outcome.
// Idempotent per (user, competition): replays get a conflict, not a
// double-apply.
func (s *Server) CompetitionResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req competitionResultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		isDryRun := isDryRunFromContext(r)

		player, err := s.Ratings.ApplyCompetitionResult(req.UserID, req.CompetitionID, req.Rank, req.TotalParticipants, req.ScoreEarned)
		if err != nil {
			log.Error("Failed to apply competition result", "error", err, "userID", req.UserID, "competitionID", req.CompetitionID)
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		s.Metrics.IncRatingUpdates()

		if !isDryRun {
			event := pubsub.RatingUpdatedEvent{
				UserID:    player.UserID,
				SourceID:  req.CompetitionID,
				NewRating: player.Rating,
				Tier:      string(player.Tier),
			}
			if history, err := s.Ratings.GetHistory(req.UserID, 1); err == nil && len(history) > 0 {
				event.Delta = history[0].Delta
			}
			if err := s.pubsub.SendMessage(pubsub.EventRatingUpdated, event); err != nil {
				log.Error("Failed to publish rating update", "error", err, "userID", req.UserID)
			}
		}

		respondJSON(w, player)
	}
}

// RatingHandler returns one player's rating record.
func (s *Server) RatingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userID")
		if userID == "" {
			http.Error(w, "userID is required", http.StatusBadRequest)
			return
		}

		player, err := s.Ratings.GetPlayerRating(userID)
		if err != nil {
			http.Error(w, "Player rating not found", http.StatusNotFound)
			return
		}
		respondJSON(w, player)
	}
}

// RatingHistoryHandler returns a player's rating history, newest first.
func (s *Server) RatingHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userID")
		if userID == "" {
			http.Error(w, "userID is required", http.StatusBadRequest)
			return
		}
		limit := defaultListLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		history, err := s.Ratings.GetHistory(userID, limit)
		if err != nil {
			log.Error("Failed to get rating history", "error", err, "userID", userID)
			http.Error(w, "Failed to get rating history", http.StatusInternalServerError)
			return
		}
		respondJSON(w, history)
	}
}

// LeaderboardHandler serves the rating leaderboard, rating descending.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		players, err := s.Ratings.GetLeaderboard(minLeaderboardCompetitions, limit)
		if err != nil {
			log.Error("Failed to get leaderboard", "error", err)
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			return
		}
		respondJSON(w, players)
	}
}

// QueueDepthHandler reports how many players are currently waiting,
// optionally for one language.
func (s *Server) QueueDepthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		depth, err := s.Queue.Depth(r.URL.Query().Get("language"))
		if err != nil {
			log.Error("Failed to get queue depth", "error", err)
			http.Error(w, "Failed to get queue depth", http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]int{"depth": depth})
	}
}

// ProcessHandler runs one reaper sweep on demand, Cloud-Scheduler style.
func (s *Server) ProcessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("Starting reaper sweep...")
		isDryRun := isDryRunFromContext(r)

		summary, err := s.Reaper.RunOnce(time.Now(), isDryRun)
		if err != nil {
			log.Error("Reaper sweep finished with errors", "error", err)
		}
		respondJSON(w, summary)
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack command.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Ratings.GetLeaderboard(minLeaderboardCompetitions, 10)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}

		msg, err := s.Notifier.FormatLeaderboardResponse(players)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}
