package experiment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordImpression journals a bare exposure event. Recording never fails:
// unknown experiment or variant ids are accepted as-is, because losing a
// measurement is worse than holding a dangling reference.
func (e *Engine) RecordImpression(experimentID, variantID, userID, sessionID string, metadata map[string]any) {
	ev := Result{
		ID:           uuid.NewString(),
		ExperimentID: experimentID,
		VariantID:    variantID,
		UserID:       userID,
		SessionID:    sessionID,
		Timestamp:    e.now(),
		Metadata:     metadata,
	}
	e.append(ev)

	e.sink.Increment("experiments.impression", 1, map[string]string{
		"experiment": experimentID,
		"variant":    variantID,
	})
}

// RecordConversion journals a goal completion, optionally carrying a
// monetary value. The value feeds the summed revenue aggregate; the gauge
// metric below is last-write-wins.
func (e *Engine) RecordConversion(experimentID, variantID, goalID, userID, sessionID string, value *float64, metadata map[string]any) {
	ev := Result{
		ID:           uuid.NewString(),
		ExperimentID: experimentID,
		VariantID:    variantID,
		UserID:       userID,
		SessionID:    sessionID,
		GoalID:       goalID,
		Value:        value,
		Timestamp:    e.now(),
		Metadata:     metadata,
	}
	e.append(ev)

	tags := map[string]string{
		"experiment": experimentID,
		"variant":    variantID,
		"goal":       goalID,
	}
	e.sink.Increment("experiments.conversion", 1, tags)
	if value != nil {
		e.sink.Gauge("experiments.conversion_value", *value, tags)
	}

	e.log.Info("conversion recorded",
		zap.String("action", "record_conversion"),
		zap.String("experiment", experimentID),
		zap.String("variant", variantID),
		zap.String("goal", goalID),
	)
}

func (e *Engine) append(ev Result) {
	e.mu.Lock()
	e.results[ev.ExperimentID] = append(e.results[ev.ExperimentID], ev)
	e.mu.Unlock()

	e.journal("append_event", func(ctx context.Context) error {
		return e.store.AppendEvent(ctx, ev)
	})
}

// ImportResults bulk-appends previously exported events, preserving their
// ids and timestamps. Used to replay an export bundle into a fresh engine
// and by operational backfills.
func (e *Engine) ImportResults(experimentID string, events []Result) {
	e.mu.Lock()
	for _, ev := range events {
		ev.ExperimentID = experimentID
		e.results[experimentID] = append(e.results[experimentID], ev)
	}
	e.mu.Unlock()

	e.log.Info("events imported",
		zap.String("action", "import_results"),
		zap.String("experiment", experimentID),
		zap.Int("count", len(events)),
	)
}

// ExperimentResults returns a copy of the raw event journal for an
// experiment. Unknown ids yield an empty slice.
func (e *Engine) ExperimentResults(experimentID string) []Result {
	e.mu.RLock()
	defer e.mu.RUnlock()

	events := e.results[experimentID]
	out := make([]Result, len(events))
	copy(out, events)
	return out
}
