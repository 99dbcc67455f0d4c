package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/beriox/bexp/internal/experiment"
	"github.com/beriox/bexp/internal/store"
)

// withEngine builds an engine (backed by the --db store when one is
// configured), executes the function, and handles cleanup. CLI commands are
// short-lived, so every command flushes the journal before closing.
func withEngine(fn func(*experiment.Engine) error) error {
	opts := []experiment.Option{experiment.WithLogger(zap.NewNop())}

	var s *store.SQLiteStore
	if dbPath != "" {
		var err error
		s, err = store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()
		opts = append(opts, experiment.WithStore(s))
	}

	engine := experiment.New(opts...)
	defer engine.Flush()

	return fn(engine)
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate)
}
