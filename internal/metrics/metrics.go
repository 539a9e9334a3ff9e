package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// Service is the Prometheus-backed Metrics implementation.
type Service struct {
	Enqueues         prometheus.Counter
	MatchesMade      prometheus.Counter
	DuelsCompleted   prometheus.Counter
	DuelsCancelled   prometheus.Counter
	JudgeCalls       prometheus.Counter
	JudgeFailures    prometheus.Counter
	RatingUpdates    prometheus.Counter
	SweepDuration    prometheus.Histogram
	SlackNotifSent   prometheus.Counter
	SlackNotifFailed prometheus.Counter
	StartupTime      prometheus.Gauge
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Enqueues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_enqueues_total",
			Help: "The total number of players enqueued for a duel.",
		}),
		MatchesMade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_matches_made_total",
			Help: "The total number of matchmaking pairings created.",
		}),
		DuelsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_duels_completed_total",
			Help: "The total number of duels resolved with a result.",
		}),
		DuelsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_duels_cancelled_total",
			Help: "The total number of duels cancelled without a result.",
		}),
		JudgeCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_judge_calls_total",
			Help: "The total number of submissions sent to the code judge.",
		}),
		JudgeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_judge_failures_total",
			Help: "The total number of judge calls that errored.",
		}),
		RatingUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_rating_updates_total",
			Help: "The total number of applied rating mutations.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arena_reaper_sweep_duration_seconds",
			Help:    "The duration of individual reaper sweeps.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Enqueues,
		s.MatchesMade,
		s.DuelsCompleted,
		s.DuelsCancelled,
		s.JudgeCalls,
		s.JudgeFailures,
		s.RatingUpdates,
		s.SweepDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTime,
	)

	return s
}

func (s *Service) IncEnqueues() {
	s.Enqueues.Inc()
}

func (s *Service) IncMatchesMade() {
	s.MatchesMade.Inc()
}

func (s *Service) IncDuelsCompleted() {
	s.DuelsCompleted.Inc()
}

func (s *Service) IncDuelsCancelled() {
	s.DuelsCancelled.Inc()
}

func (s *Service) IncJudgeCalls() {
	s.JudgeCalls.Inc()
}

func (s *Service) IncJudgeFailures() {
	s.JudgeFailures.Inc()
}

func (s *Service) IncRatingUpdates() {
	s.RatingUpdates.Inc()
}

func (s *Service) ObserveSweepDuration(duration float64) {
	s.SweepDuration.Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTime.Set(duration)
}
