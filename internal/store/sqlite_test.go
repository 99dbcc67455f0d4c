package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beriox/bexp/internal/experiment"
	"github.com/beriox/bexp/internal/store"
)

func setupStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func testConfig(id string) experiment.Config {
	return experiment.Config{
		ID:              id,
		Name:            id,
		Type:            experiment.TypeFeature,
		IsActive:        true,
		StartDate:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		BaselineVariant: "control",
		ConfidenceLevel: 95,
		Variants: []experiment.Variant{
			{ID: "control", Name: "Control", Type: experiment.VariantControl, Weight: 50},
			{ID: "variant_a", Name: "Variant A", Type: experiment.VariantA, Weight: 50},
		},
	}
}

func TestSaveLoadExperiments(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveExperiment(ctx, testConfig("exp1")))
	require.NoError(t, s.SaveExperiment(ctx, testConfig("exp2")))

	configs, err := s.LoadExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "exp1", configs[0].ID)
	assert.Equal(t, testConfig("exp1").Variants, configs[0].Variants)
}

func TestSaveExperiment_Upsert(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	cfg := testConfig("exp1")
	require.NoError(t, s.SaveExperiment(ctx, cfg))

	cfg.IsActive = false
	require.NoError(t, s.SaveExperiment(ctx, cfg))

	configs, err := s.LoadExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.False(t, configs[0].IsActive)
}

func TestSaveLoadAssignments(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	user := experiment.Subject{Kind: experiment.SubjectUser, ID: "u-1"}
	session := experiment.Subject{Kind: experiment.SubjectSession, ID: "s-1"}

	require.NoError(t, s.SaveAssignment(ctx, user, "exp1", "control"))
	require.NoError(t, s.SaveAssignment(ctx, session, "exp1", "variant_a"))
	// Re-journaled assignments replace, not duplicate.
	require.NoError(t, s.SaveAssignment(ctx, user, "exp1", "control"))

	assignments, err := s.LoadAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	byKey := make(map[experiment.Subject]string)
	for _, a := range assignments {
		byKey[a.Subject] = a.VariantID
	}
	assert.Equal(t, "control", byKey[user])
	assert.Equal(t, "variant_a", byKey[session])
}

func TestAppendLoadEvents(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	value := 19.99
	events := []experiment.Result{
		{
			ID:           "ev-1",
			ExperimentID: "exp1",
			VariantID:    "control",
			SessionID:    "s-1",
			Timestamp:    time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:           "ev-2",
			ExperimentID: "exp1",
			VariantID:    "variant_a",
			UserID:       "u-1",
			GoalID:       "purchase",
			Value:        &value,
			Timestamp:    time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC),
			Metadata:     map[string]any{"plan": "pro"},
		},
	}
	for _, ev := range events {
		require.NoError(t, s.AppendEvent(ctx, ev))
	}

	loaded, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "ev-1", loaded[0].ID)
	assert.True(t, loaded[0].Timestamp.Equal(events[0].Timestamp))
	assert.Empty(t, loaded[0].GoalID)

	assert.Equal(t, "purchase", loaded[1].GoalID)
	require.NotNil(t, loaded[1].Value)
	assert.Equal(t, value, *loaded[1].Value)
	assert.Equal(t, "pro", loaded[1].Metadata["plan"])
}

func TestDeleteEventsBefore(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	old := experiment.Result{ID: "old", ExperimentID: "exp1", VariantID: "control",
		Timestamp: time.Now().Add(-100 * 24 * time.Hour)}
	recent := experiment.Result{ID: "recent", ExperimentID: "exp1", VariantID: "control",
		Timestamp: time.Now()}
	require.NoError(t, s.AppendEvent(ctx, old))
	require.NoError(t, s.AppendEvent(ctx, recent))

	removed, err := s.DeleteEventsBefore(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "recent", remaining[0].ID)

	// Second sweep over the same horizon removes nothing.
	removed, err = s.DeleteEventsBefore(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestEngineRehydration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s1, err := store.Open(dbPath)
	require.NoError(t, err)

	e1 := experiment.New(experiment.WithStore(s1), experiment.WithSeed(11))
	require.NoError(t, e1.CreateExperiment(testConfig("exp1")))

	assigned := e1.GetVariant("exp1", "user-1", "")
	require.NotNil(t, assigned)
	e1.RecordImpression("exp1", assigned.ID, "user-1", "", nil)
	e1.RecordConversion("exp1", assigned.ID, "signup", "user-1", "", nil, nil)

	e1.Flush()
	require.NoError(t, s1.Close())

	// A fresh engine over the same database sees the experiment, keeps the
	// subject's pin, and reproduces the stats.
	s2, err := store.Open(dbPath)
	require.NoError(t, err)
	defer s2.Close()

	e2 := experiment.New(experiment.WithStore(s2), experiment.WithSeed(99))

	cfg, ok := e2.Experiment("exp1")
	require.True(t, ok)
	assert.Equal(t, "exp1", cfg.ID)

	again := e2.GetVariant("exp1", "user-1", "")
	require.NotNil(t, again)
	assert.Equal(t, assigned.ID, again.ID, "sticky assignment survives a restart")

	stats := e2.ExperimentStats("exp1")
	total := 0
	for _, vs := range stats {
		total += vs.Impressions
	}
	assert.Equal(t, 2, total)
}
