package experiment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const definitionsYAML = `
experiments:
  - id: pricing-page
    name: Pricing page copy
    type: pricing
    is_active: true
    confidence_level: 95
    variants:
      - id: control
        name: Current copy
        type: control
        weight: 50
      - id: variant_a
        name: Benefit-led copy
        type: variant_a
        weight: 50
    goals:
      - id: signup
        name: Signup click
        type: conversion
        metric: clicks
  - id: hero-copy
    name: Landing hero
    type: content
    is_active: true
    variants:
      - id: control
        weight: 34
      - id: variant_a
        weight: 33
      - id: variant_b
        weight: 33
`

func writeDefinitions(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "experiments.yaml")
	require.NoError(t, os.WriteFile(path, []byte(definitionsYAML), 0o600))
	return path
}

func TestLoadDefinitions(t *testing.T) {
	configs, err := LoadDefinitions(writeDefinitions(t))
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "pricing-page", configs[0].ID)
	assert.Equal(t, TypePricing, configs[0].Type)
	require.Len(t, configs[0].Variants, 2)
	assert.Equal(t, VariantControl, configs[0].Variants[0].Type)
	assert.Equal(t, 50.0, configs[0].Variants[0].Weight)
	require.Len(t, configs[0].Goals, 1)
	assert.Equal(t, GoalConversion, configs[0].Goals[0].Type)

	assert.Equal(t, "hero-copy", configs[1].ID)
	require.Len(t, configs[1].Variants, 3)
}

func TestLoadDefinitions_MissingFile(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSeed_Idempotent(t *testing.T) {
	configs, err := LoadDefinitions(writeDefinitions(t))
	require.NoError(t, err)

	e := New()

	created, err := e.Seed(configs)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// Re-seeding the same definitions creates nothing and fails nothing.
	created, err = e.Seed(configs)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	assert.Len(t, e.ActiveExperiments(), 2)
}

func TestSeed_InvalidConfigAborts(t *testing.T) {
	e := New()

	configs := []Config{
		twoArmConfig("good"),
		{ID: "bad", Variants: []Variant{{ID: "a", Weight: 80}}},
	}

	created, err := e.Seed(configs)
	require.ErrorIs(t, err, ErrInvalidWeights)
	assert.Equal(t, 1, created)
}
