package experiment

import (
	"context"
	"time"
)

// StoredAssignment is one persisted sticky assignment.
type StoredAssignment struct {
	Subject      Subject
	ExperimentID string
	VariantID    string
}

// Store is the optional durability port. The engine treats it as a
// write-behind journal: writes are asynchronous and best-effort, reads
// happen once at construction to rehydrate state. Implementations must be
// safe for concurrent use.
type Store interface {
	SaveExperiment(ctx context.Context, cfg Config) error
	LoadExperiments(ctx context.Context) ([]Config, error)

	SaveAssignment(ctx context.Context, subject Subject, experimentID, variantID string) error
	LoadAssignments(ctx context.Context) ([]StoredAssignment, error)

	AppendEvent(ctx context.Context, ev Result) error
	LoadEvents(ctx context.Context) ([]Result, error)
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}
