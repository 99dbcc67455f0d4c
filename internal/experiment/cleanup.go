package experiment

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupOldResults drops recorded events older than maxAge from every
// experiment's journal and returns how many were removed. Calling it again
// with the same horizon is a no-op. A maxAge of zero purges everything
// recorded before now.
func (e *Engine) CleanupOldResults(maxAge time.Duration) int {
	cutoff := e.now().Add(-maxAge)

	e.mu.Lock()
	removed := 0
	for id, events := range e.results {
		kept := make([]Result, 0, len(events))
		for _, ev := range events {
			if ev.Timestamp.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, ev)
		}
		e.results[id] = kept
	}
	e.mu.Unlock()

	if removed > 0 {
		e.log.Info("old experiment events removed",
			zap.String("action", "cleanup_results"),
			zap.Int("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}

	e.journal("delete_events", func(ctx context.Context) error {
		_, err := e.store.DeleteEventsBefore(ctx, cutoff)
		return err
	})

	return removed
}
