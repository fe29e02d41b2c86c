package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type RoundEvicter interface {
	EvictFinished(olderThan time.Duration) int
	LiveRounds() int
}

type Worker struct {
	Rounds    RoundEvicter
	Interval  time.Duration
	Retention time.Duration
}

func NewWorker(rounds RoundEvicter, interval, retention time.Duration) *Worker {
	return &Worker{Rounds: rounds, Interval: interval, Retention: retention}
}

// Start runs one cleanup right away and then one per interval until ctx
// is cancelled.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Str("component", "cleanup").Dur("interval", w.Interval).Msg("background worker started")
	w.runCleanup()

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("component", "cleanup").Msg("background worker stopped")
			return
		case <-ticker.C:
			w.runCleanup()
		}
	}
}

func (w *Worker) runCleanup() int {
	removed := w.Rounds.EvictFinished(w.Retention)
	log.Debug().Str("component", "cleanup").Int("removed", removed).
		Int("live", w.Rounds.LiveRounds()).Msg("cleanup pass done")
	return removed
}
