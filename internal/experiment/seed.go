package experiment

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type definitionFile struct {
	Experiments []Config `yaml:"experiments"`
}

// LoadDefinitions parses experiment definitions from a YAML file:
//
//	experiments:
//	  - id: pricing-page
//	    name: Pricing page copy
//	    type: pricing
//	    is_active: true
//	    variants:
//	      - {id: control, name: Current copy, type: control, weight: 50}
//	      - {id: variant_a, name: Benefit-led copy, type: variant_a, weight: 50}
func LoadDefinitions(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}

	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}

	return file.Experiments, nil
}

// Seed registers a batch of configs, tolerating ones that already exist so
// re-seeding on every boot is idempotent. It returns how many were newly
// created; any other configuration error aborts.
func (e *Engine) Seed(configs []Config) (int, error) {
	created := 0
	for _, cfg := range configs {
		err := e.CreateExperiment(cfg)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrDuplicateExperiment):
			continue
		default:
			return created, err
		}
	}

	if created > 0 {
		e.log.Info("experiments seeded",
			zap.String("action", "seed"),
			zap.Int("created", created),
		)
	}
	return created, nil
}
