package experiment

import (
	"github.com/beriox/bexp/internal/stats"
)

// ExperimentStats aggregates the event journal per variant, in declared
// variant order. Variants with no events come back zero-valued; the rate
// division is guarded. Returns nil for unknown experiments.
func (e *Engine) ExperimentStats(experimentID string) []VariantStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cfg, ok := e.experiments[experimentID]
	if !ok {
		return nil
	}
	events := e.results[experimentID]

	out := make([]VariantStats, 0, len(cfg.Variants))
	for _, v := range cfg.Variants {
		s := VariantStats{VariantID: v.ID, VariantName: v.Name}

		for i := range events {
			ev := &events[i]
			if ev.VariantID != v.ID {
				continue
			}
			s.Impressions++
			if ev.IsConversion() {
				s.Conversions++
			}
			if ev.Value != nil {
				s.Revenue += *ev.Value
			}
		}

		if s.Impressions > 0 {
			s.ConversionRate = float64(s.Conversions) / float64(s.Impressions) * 100
		}
		if s.Conversions > 0 {
			s.AverageOrderValue = s.Revenue / float64(s.Conversions)
		}
		s.CILower, s.CIUpper = stats.WilsonInterval(s.Conversions, s.Impressions, cfg.ConfidenceLevel/100)

		out = append(out, s)
	}

	return out
}

// CalculateSignificance runs a two-proportion z-test of every non-baseline
// variant against the experiment's baseline, keyed by variant id. The
// result is empty when the experiment is unknown, the baseline variant is
// missing, or there are fewer than two variants.
//
// goalID is accepted for call-site compatibility but does not filter the
// events: all goals are aggregated together.
func (e *Engine) CalculateSignificance(experimentID, goalID string) map[string]Significance {
	_ = goalID

	out := make(map[string]Significance)

	cfg, ok := e.Experiment(experimentID)
	if !ok || len(cfg.Variants) < 2 {
		return out
	}

	variantStats := e.ExperimentStats(experimentID)

	var baseline *VariantStats
	for i := range variantStats {
		if variantStats[i].VariantID == cfg.BaselineVariant {
			baseline = &variantStats[i]
			break
		}
	}
	if baseline == nil {
		return out
	}

	confidence := cfg.ConfidenceLevel / 100
	alpha := 1 - confidence

	for i := range variantStats {
		vs := &variantStats[i]
		if vs.VariantID == cfg.BaselineVariant {
			continue
		}

		zt := stats.TwoProportionTest(
			baseline.Conversions, baseline.Impressions,
			vs.Conversions, vs.Impressions,
			confidence,
		)

		out[vs.VariantID] = Significance{
			BaselineID:    cfg.BaselineVariant,
			VariantID:     vs.VariantID,
			ZScore:        zt.ZScore,
			PValue:        zt.PValue,
			IsSignificant: zt.Valid && zt.PValue < alpha,
			Improvement:   zt.Improvement,
			CILower:       zt.DiffCILower,
			CIUpper:       zt.DiffCIUpper,
		}
	}

	return out
}
