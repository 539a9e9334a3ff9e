package reaper

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/codeclash/arena/internal/matchmaking"
	"github.com/codeclash/arena/internal/metrics"
	"github.com/codeclash/arena/internal/rating"
)

// historyKeepPerUser bounds the rating history retained per player.
const historyKeepPerUser = 50

// Reaper periodically expires stale queue entries, times out stalled
// duels, and prunes old rating history. Timeouts are scheduled state
// transitions, not errors; nothing here blocks a caller.
type Reaper struct {
	queue    matchmaking.QueueService
	duels    DuelLifecycle
	ratings  rating.RatingService
	metrics  metrics.Metrics
	interval time.Duration
}

// Summary reports what one sweep did.
type Summary struct {
	QueueRemoved   int64 `json:"queue_removed"`
	DuelsCancelled int   `json:"duels_cancelled"`
	DuelsTimedOut  int   `json:"duels_timed_out"`
	HistoryPruned  int64 `json:"history_pruned"`
}

// New creates a new Reaper.
func New(queue matchmaking.QueueService, duels DuelLifecycle, ratings rating.RatingService, metrics metrics.Metrics, interval time.Duration) *Reaper {
	return &Reaper{
		queue:    queue,
		duels:    duels,
		ratings:  ratings,
		metrics:  metrics,
		interval: interval,
	}
}

// Start runs sweeps on the configured interval until the context ends.
func (r *Reaper) Start(ctx context.Context) {
	log.Info("Starting reaper", "interval", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Reaper stopped")
			return
		case now := <-ticker.C:
			if _, err := r.RunOnce(now, false); err != nil {
				log.Error("Reaper sweep failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sweep. Individual step failures are logged
// and do not stop the remaining steps.
func (r *Reaper) RunOnce(now time.Time, dryRun bool) (Summary, error) {
	start := time.Now()
	var summary Summary
	var firstErr error

	removed, err := r.queue.SweepExpired(now)
	if err != nil {
		log.Error("Failed to sweep queue", "error", err)
		firstErr = err
	}
	summary.QueueRemoved = removed

	cancelled, err := r.duels.CancelUnmatched(now)
	if err != nil {
		log.Error("Failed to cancel unmatched duels", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	summary.DuelsCancelled = cancelled

	timedOut, err := r.duels.ResolveTimedOut(now, dryRun)
	if err != nil {
		log.Error("Failed to resolve timed-out duels", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	summary.DuelsTimedOut = timedOut

	pruned, err := r.ratings.PruneHistory(historyKeepPerUser)
	if err != nil {
		log.Error("Failed to prune rating history", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	summary.HistoryPruned = pruned

	r.metrics.ObserveSweepDuration(time.Since(start).Seconds())
	log.Info("Reaper sweep finished",
		"queueRemoved", summary.QueueRemoved,
		"duelsCancelled", summary.DuelsCancelled,
		"duelsTimedOut", summary.DuelsTimedOut,
		"historyPruned", summary.HistoryPruned)
	return summary, firstErr
}
