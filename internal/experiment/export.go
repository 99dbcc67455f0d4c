package experiment

import (
	"fmt"
	"time"
)

// Export bundles everything known about one experiment at a point in time:
// configuration, the raw event journal, derived stats and significance. It
// is a convenience snapshot, not a versioned wire format, but it is
// replayable: CreateExperiment(Experiment) plus ImportResults(Results) on a
// fresh engine reproduces identical stats.
type Export struct {
	Experiment   Config                  `json:"experiment"`
	Results      []Result                `json:"results"`
	Stats        []VariantStats          `json:"stats"`
	Significance map[string]Significance `json:"significance"`
	ExportedAt   time.Time               `json:"exportedAt"`
}

// ExportExperimentData snapshots one experiment. Significance in the bundle
// is computed against the "default" goal id (which, like every goal id in
// significance, is informational).
func (e *Engine) ExportExperimentData(experimentID string) (*Export, error) {
	cfg, ok := e.Experiment(experimentID)
	if !ok {
		return nil, fmt.Errorf("experiment %q: %w", experimentID, ErrNotFound)
	}

	return &Export{
		Experiment:   cfg,
		Results:      e.ExperimentResults(experimentID),
		Stats:        e.ExperimentStats(experimentID),
		Significance: e.CalculateSignificance(experimentID, "default"),
		ExportedAt:   e.now(),
	}, nil
}
