package http

import (
	"net/http"

	"github.com/codeclash/arena/internal/config"
	"github.com/codeclash/arena/internal/duel"
	"github.com/codeclash/arena/internal/matchmaking"
	"github.com/codeclash/arena/internal/metrics"
	"github.com/codeclash/arena/internal/notifier"
	"github.com/codeclash/arena/internal/pubsub"
	"github.com/codeclash/arena/internal/rating"
	"github.com/codeclash/arena/internal/reaper"
)

func NewServer(duels *duel.Manager, queue matchmaking.QueueService, ratings rating.RatingService, sweeper *reaper.Reaper, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Duels:          duels,
		Queue:          queue,
		Ratings:        ratings,
		Reaper:         sweeper,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/duels/enqueue", Chain(s.EnqueueHandler(), paramsMiddleware))
	s.Router.Handle("/duels/cancel", Chain(s.CancelQueueHandler(), paramsMiddleware))
	s.Router.Handle("/duels/bot", Chain(s.BotDuelHandler(), paramsMiddleware))
	s.Router.Handle("/duels/submit", Chain(s.SubmitSolutionHandler(), paramsMiddleware))
	s.Router.Handle("/duels", Chain(s.GetDuelsHandler(), paramsMiddleware))
	s.Router.Handle("/competitions/result", Chain(s.CompetitionResultHandler(), paramsMiddleware))
	s.Router.Handle("/rating", Chain(s.RatingHandler(), paramsMiddleware))
	s.Router.Handle("/rating/history", Chain(s.RatingHistoryHandler(), paramsMiddleware))
	s.Router.Handle("/leaderboard", Chain(s.LeaderboardHandler(), paramsMiddleware))
	s.Router.Handle("/queue/depth", Chain(s.QueueDepthHandler(), paramsMiddleware))
	s.Router.Handle("/process", Chain(s.ProcessHandler(), paramsMiddleware))
	s.Router.Handle("/slack/command/leaderboard", Chain(s.LeaderboardCommandHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
