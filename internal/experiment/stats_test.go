package experiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedReferenceEvents records the canonical scenario used across the stats
// tests: control at 100 impressions / 10 conversions, variant_a at 100 / 20.
func seedReferenceEvents(e *Engine) {
	for i := 0; i < 90; i++ {
		e.RecordImpression("exp1", "control", "", "s-control", nil)
	}
	for i := 0; i < 10; i++ {
		e.RecordConversion("exp1", "control", "signup", "", "s-control", nil, nil)
	}
	for i := 0; i < 80; i++ {
		e.RecordImpression("exp1", "variant_a", "", "s-variant", nil)
	}
	for i := 0; i < 20; i++ {
		e.RecordConversion("exp1", "variant_a", "signup", "", "s-variant", nil, nil)
	}
}

func TestExperimentStats_ReferenceScenario(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))
	seedReferenceEvents(e)

	stats := e.ExperimentStats("exp1")
	require.Len(t, stats, 2)

	control := stats[0]
	assert.Equal(t, "control", control.VariantID)
	assert.Equal(t, 100, control.Impressions)
	assert.Equal(t, 10, control.Conversions)
	assert.InDelta(t, 10, control.ConversionRate, 1e-9)

	variantA := stats[1]
	assert.Equal(t, "variant_a", variantA.VariantID)
	assert.Equal(t, 100, variantA.Impressions)
	assert.Equal(t, 20, variantA.Conversions)
	assert.InDelta(t, 20, variantA.ConversionRate, 1e-9)
}

func TestExperimentStats_Revenue(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))

	v1 := 10.0
	v2 := 30.0
	e.RecordConversion("exp1", "control", "purchase", "u1", "", &v1, nil)
	e.RecordConversion("exp1", "control", "purchase", "u2", "", &v2, nil)
	e.RecordImpression("exp1", "control", "u3", "", nil)

	stats := e.ExperimentStats("exp1")
	control := stats[0]

	assert.Equal(t, 3, control.Impressions, "conversion events count as impressions too")
	assert.Equal(t, 2, control.Conversions)
	assert.InDelta(t, 40.0, control.Revenue, 1e-9)
	assert.InDelta(t, 20.0, control.AverageOrderValue, 1e-9)
}

func TestExperimentStats_ZeroImpressionSafety(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))

	// Only the control arm ever gets traffic.
	e.RecordImpression("exp1", "control", "u1", "", nil)

	stats := e.ExperimentStats("exp1")
	require.Len(t, stats, 2)

	variantA := stats[1]
	assert.Equal(t, 0, variantA.Impressions)
	assert.Equal(t, 0, variantA.Conversions)
	assert.Equal(t, 0.0, variantA.ConversionRate)
	assert.Equal(t, 0.0, variantA.AverageOrderValue)

	sig := e.CalculateSignificance("exp1", "signup")
	require.Contains(t, sig, "variant_a")
	assert.False(t, sig["variant_a"].IsSignificant)
	assert.Equal(t, 1.0, sig["variant_a"].PValue)
}

func TestExperimentStats_UnknownExperiment(t *testing.T) {
	e := New()
	assert.Nil(t, e.ExperimentStats("missing"))
}

func TestCalculateSignificance_ReferenceScenario(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))
	seedReferenceEvents(e)

	sig := e.CalculateSignificance("exp1", "signup")
	require.Contains(t, sig, "variant_a")

	result := sig["variant_a"]
	assert.Equal(t, "control", result.BaselineID)
	assert.InDelta(t, 100, result.Improvement, 0.001, "20%% over 10%% is a doubling")
	assert.InDelta(t, 1.9803, result.ZScore, 0.001)
	assert.InDelta(t, 0.0477, result.PValue, 0.002)
	assert.True(t, result.IsSignificant)
}

func TestCalculateSignificance_GoalDoesNotFilter(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))
	seedReferenceEvents(e)

	// Significance aggregates all goals; the goal id is informational.
	forSignup := e.CalculateSignificance("exp1", "signup")
	forOther := e.CalculateSignificance("exp1", "some-other-goal")
	assert.Equal(t, forSignup, forOther)
}

func TestCalculateSignificance_MissingBaseline(t *testing.T) {
	e := New()
	cfg := Config{
		ID:       "no-control",
		IsActive: true,
		Variants: []Variant{
			{ID: "variant_a", Weight: 50},
			{ID: "variant_b", Weight: 50},
		},
	}
	require.NoError(t, e.CreateExperiment(cfg))

	sig := e.CalculateSignificance("no-control", "signup")
	assert.Empty(t, sig, "no baseline variant means nothing to compare against")
}

func TestCalculateSignificance_SingleVariant(t *testing.T) {
	e := New()
	cfg := Config{
		ID:       "solo",
		IsActive: true,
		Variants: []Variant{{ID: "control", Weight: 100}},
	}
	require.NoError(t, e.CreateExperiment(cfg))

	assert.Empty(t, e.CalculateSignificance("solo", "signup"))
}

func TestCalculateSignificance_CustomConfidenceLevel(t *testing.T) {
	e := New()
	cfg := twoArmConfig("strict")
	cfg.ConfidenceLevel = 99
	require.NoError(t, e.CreateExperiment(cfg))

	for i := 0; i < 90; i++ {
		e.RecordImpression("strict", "control", "", "s1", nil)
	}
	for i := 0; i < 10; i++ {
		e.RecordConversion("strict", "control", "signup", "", "s1", nil, nil)
	}
	for i := 0; i < 80; i++ {
		e.RecordImpression("strict", "variant_a", "", "s2", nil)
	}
	for i := 0; i < 20; i++ {
		e.RecordConversion("strict", "variant_a", "signup", "", "s2", nil, nil)
	}

	// p ≈ 0.048 clears 0.05 but not 0.01.
	sig := e.CalculateSignificance("strict", "signup")
	require.Contains(t, sig, "variant_a")
	assert.False(t, sig["variant_a"].IsSignificant)
}

func TestCleanupOldResults_Idempotent(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))
	seedReferenceEvents(e)

	require.NotEmpty(t, e.ExperimentResults("exp1"))

	removed := e.CleanupOldResults(0)
	assert.Equal(t, 200, removed)
	assert.Empty(t, e.ExperimentResults("exp1"))

	// Second sweep over the same horizon is a no-op.
	assert.Equal(t, 0, e.CleanupOldResults(0))
}

func TestCleanupOldResults_KeepsRecentEvents(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))

	old := Result{
		ID:        "old",
		VariantID: "control",
		Timestamp: time.Now().Add(-100 * 24 * time.Hour),
	}
	e.ImportResults("exp1", []Result{old})
	e.RecordImpression("exp1", "control", "u1", "", nil)

	removed := e.CleanupOldResults(DefaultRetention)
	assert.Equal(t, 1, removed)

	remaining := e.ExperimentResults("exp1")
	require.Len(t, remaining, 1)
	assert.NotEqual(t, "old", remaining[0].ID)
}
