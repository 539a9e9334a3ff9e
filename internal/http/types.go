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

type Server struct {
	Duels          *duel.Manager
	Queue          matchmaking.QueueService
	Ratings        rating.RatingService
	Reaper         *reaper.Reaper
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}
