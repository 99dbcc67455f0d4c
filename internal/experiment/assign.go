package experiment

import (
	"context"

	"go.uber.org/zap"
)

// GetVariant resolves the variant a subject sees for an experiment. It
// returns nil when no experiment applies: unknown id, kill-switch off,
// outside the [startDate, endDate) window, or no identity supplied. Callers
// must treat nil as "fall back to default behavior".
//
// The first call for a subject draws a variant by weight and pins it; every
// later call returns the pinned variant. Check-then-assign runs under one
// lock, so concurrent first requests for the same subject converge on a
// single assignment.
func (e *Engine) GetVariant(experimentID, userID, sessionID string) *Variant {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, ok := e.experiments[experimentID]
	if !ok || !cfg.IsActive {
		return nil
	}

	now := e.now()
	if now.Before(cfg.StartDate) {
		return nil
	}
	if cfg.EndDate != nil && now.After(*cfg.EndDate) {
		return nil
	}

	subject, ok := SubjectFor(userID, sessionID)
	if !ok {
		return nil
	}

	if !matchesAudience(cfg.Audience, subject) {
		return nil
	}

	key := assignKey{subject: subject, experimentID: experimentID}
	if variantID, assigned := e.assignments[key]; assigned {
		// Stale assignments pointing at a variant that no longer exists in
		// the config resolve to nil rather than a fabricated variant.
		return cfg.variantByID(variantID)
	}

	variant := e.draw(cfg)
	e.assignments[key] = variant.ID

	e.log.Info("variant assigned",
		zap.String("action", "assign_variant"),
		zap.String("experiment", experimentID),
		zap.String("variant", variant.ID),
		zap.String("subject_kind", string(subject.Kind)),
	)
	e.sink.Increment("experiments.assignment", 1, map[string]string{
		"experiment": experimentID,
		"variant":    variant.ID,
	})

	e.journal("save_assignment", func(ctx context.Context) error {
		return e.store.SaveAssignment(ctx, subject, experimentID, variant.ID)
	})

	return variant
}

// draw picks a variant with a cumulative-weight walk over the declared
// order. r lives in [0,100); weights sum to 100 by construction. Callers
// hold e.mu.
func (e *Engine) draw(cfg *Config) *Variant {
	r := e.rng.Float64() * 100

	cumulative := 0.0
	for i := range cfg.Variants {
		cumulative += cfg.Variants[i].Weight
		if r <= cumulative {
			v := cfg.Variants[i]
			return &v
		}
	}

	// Float underflow near the top of the range; fall back to the first arm.
	v := cfg.Variants[0]
	return &v
}

// matchesAudience evaluates the target-audience filter. The filter is
// declared in the config schema but not enforced: every subject passes.
// Activating it would shift assignment distributions under running
// experiments, so it stays a documented extension point.
func matchesAudience(_ *Audience, _ Subject) bool {
	return true
}
