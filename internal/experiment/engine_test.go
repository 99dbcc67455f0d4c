package experiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoArmConfig(id string) Config {
	return Config{
		ID:       id,
		Name:     id,
		Type:     TypeFeature,
		IsActive: true,
		Variants: []Variant{
			{ID: "control", Name: "Control", Type: VariantControl, Weight: 50},
			{ID: "variant_a", Name: "Variant A", Type: VariantA, Weight: 50},
		},
	}
}

func TestCreateExperiment_WeightValidation(t *testing.T) {
	cases := []struct {
		name    string
		weights []float64
		wantErr bool
	}{
		{"exact", []float64{50, 50}, false},
		{"within tolerance", []float64{33.33, 33.33, 33.34}, false},
		{"slightly under tolerance", []float64{50, 50.005}, false},
		{"under", []float64{50, 49.9}, true},
		{"over", []float64{60, 50}, true},
		{"just outside tolerance", []float64{50, 50.02}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := New()
			cfg := Config{ID: "exp", IsActive: true}
			for i, w := range tc.weights {
				cfg.Variants = append(cfg.Variants, Variant{
					ID:     string(rune('a' + i)),
					Weight: w,
				})
			}

			err := e.CreateExperiment(cfg)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidWeights)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCreateExperiment_DuplicateID(t *testing.T) {
	e := New()

	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))
	err := e.CreateExperiment(twoArmConfig("exp1"))
	require.ErrorIs(t, err, ErrDuplicateExperiment)
}

func TestCreateExperiment_AppliesDefaults(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))

	cfg, ok := e.Experiment("exp1")
	require.True(t, ok)
	assert.Equal(t, DefaultBaselineVariant, cfg.BaselineVariant)
	assert.Equal(t, DefaultConfidenceLevel, cfg.ConfidenceLevel)
	assert.False(t, cfg.StartDate.IsZero())
}

func TestCreateExperiment_RequiresIDAndVariants(t *testing.T) {
	e := New()

	require.Error(t, e.CreateExperiment(Config{}))
	require.Error(t, e.CreateExperiment(Config{ID: "exp"}))
}

func TestActiveExperiments_IgnoresTimeWindow(t *testing.T) {
	e := New()

	expired := twoArmConfig("expired")
	past := time.Now().Add(-time.Hour)
	expired.StartDate = past.Add(-time.Hour)
	expired.EndDate = &past
	require.NoError(t, e.CreateExperiment(expired))

	inactive := twoArmConfig("inactive")
	inactive.IsActive = false
	require.NoError(t, e.CreateExperiment(inactive))

	// The active list gates on the kill-switch only; the expired-but-active
	// experiment still shows up.
	active := e.ActiveExperiments()
	require.Len(t, active, 1)
	assert.Equal(t, "expired", active[0].ID)
}

func TestDeactivateExperiment(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))

	e.DeactivateExperiment("exp1")

	cfg, ok := e.Experiment("exp1")
	require.True(t, ok)
	assert.False(t, cfg.IsActive)
	require.NotNil(t, cfg.EndDate)

	// Idempotent: a second call just re-stamps.
	first := *cfg.EndDate
	e.DeactivateExperiment("exp1")
	cfg, _ = e.Experiment("exp1")
	assert.False(t, cfg.IsActive)
	assert.False(t, cfg.EndDate.Before(first))

	// Unknown ids are a silent no-op.
	e.DeactivateExperiment("missing")
}

func TestExperiment_ReturnsCopy(t *testing.T) {
	e := New()
	require.NoError(t, e.CreateExperiment(twoArmConfig("exp1")))

	cfg, ok := e.Experiment("exp1")
	require.True(t, ok)
	cfg.IsActive = false

	again, _ := e.Experiment("exp1")
	assert.True(t, again.IsActive, "mutating a returned config must not affect the registry")
}
