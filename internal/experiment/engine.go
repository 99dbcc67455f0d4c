// Package experiment implements sticky A/B experiment assignment, append-only
// event recording, and on-demand statistics with pairwise significance
// testing. All state lives in memory; an optional Store adds write-behind
// durability without touching the synchronous hot path.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/beriox/bexp/internal/metrics"
)

var (
	// ErrDuplicateExperiment is returned when creating an experiment whose id
	// is already registered.
	ErrDuplicateExperiment = errors.New("experiment already exists")

	// ErrInvalidWeights is returned when variant weights don't sum to 100.
	ErrInvalidWeights = errors.New("variant weights must sum to 100")

	// ErrNotFound is returned by operations that require a known experiment.
	ErrNotFound = errors.New("experiment not found")
)

// weightTolerance absorbs float drift in user-supplied percentages.
const weightTolerance = 0.01

// DefaultBaselineVariant is assumed when a config names no baseline.
const DefaultBaselineVariant = "control"

// DefaultConfidenceLevel (percent) is assumed when a config sets none.
const DefaultConfidenceLevel = 95.0

// DefaultRetention bounds how long recorded events are kept by the cleanup
// sweep.
const DefaultRetention = 90 * 24 * time.Hour

type assignKey struct {
	subject      Subject
	experimentID string
}

// Engine owns all experiment state. Construct one per process (or per test)
// with New; the zero value is not usable.
type Engine struct {
	mu          sync.RWMutex
	experiments map[string]*Config
	results     map[string][]Result
	assignments map[assignKey]string

	rng  *rand.Rand
	now  func() time.Time
	log  *zap.Logger
	sink metrics.Sink

	store        Store
	journalGroup sync.WaitGroup
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger attaches a structured logger. Logging never affects results.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics attaches a metrics sink. Sink calls are fire-and-forget.
func WithMetrics(sink metrics.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithStore attaches a durability port. Existing experiments, assignments
// and events are rehydrated from it during New; subsequent writes are
// journaled asynchronously, best-effort.
func WithStore(s Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock overrides the time source. Tests use this to steer experiment
// windows and retention cutoffs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSeed fixes the random source for reproducible assignment draws.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// New constructs an Engine and, when a store is configured, restores state
// from it.
func New(opts ...Option) *Engine {
	e := &Engine{
		experiments: make(map[string]*Config),
		results:     make(map[string][]Result),
		assignments: make(map[assignKey]string),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
		log:         zap.NewNop(),
		sink:        metrics.Nop{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.store != nil {
		e.restore()
	}

	return e
}

// CreateExperiment registers a new experiment. It fails when the id is
// already taken or the variant weights don't sum to 100 (±0.01). These are
// configuration errors meant to surface at bootstrap, not per request.
func (e *Engine) CreateExperiment(cfg Config) error {
	if cfg.ID == "" {
		return fmt.Errorf("experiment id is required")
	}
	if len(cfg.Variants) == 0 {
		return fmt.Errorf("experiment %q has no variants", cfg.ID)
	}

	sum := 0.0
	for _, v := range cfg.Variants {
		sum += v.Weight
	}
	if math.Abs(sum-100) > weightTolerance {
		return fmt.Errorf("experiment %q: %w (got %.2f)", cfg.ID, ErrInvalidWeights, sum)
	}

	if cfg.BaselineVariant == "" {
		cfg.BaselineVariant = DefaultBaselineVariant
	}
	if cfg.ConfidenceLevel == 0 {
		cfg.ConfidenceLevel = DefaultConfidenceLevel
	}
	if cfg.StartDate.IsZero() {
		cfg.StartDate = e.now()
	}

	e.mu.Lock()
	if _, exists := e.experiments[cfg.ID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("experiment %q: %w", cfg.ID, ErrDuplicateExperiment)
	}
	stored := cfg
	e.experiments[cfg.ID] = &stored
	if _, ok := e.results[cfg.ID]; !ok {
		e.results[cfg.ID] = nil
	}
	e.mu.Unlock()

	e.log.Info("experiment created",
		zap.String("action", "create_experiment"),
		zap.String("experiment", cfg.ID),
		zap.String("type", string(cfg.Type)),
		zap.Int("variants", len(cfg.Variants)),
	)
	e.sink.Increment("experiments.created", 1, map[string]string{
		"type":     string(cfg.Type),
		"variants": strconv.Itoa(len(cfg.Variants)),
	})

	e.journal("save_experiment", func(ctx context.Context) error {
		return e.store.SaveExperiment(ctx, cfg)
	})

	return nil
}

// Experiment returns a copy of a registered config.
func (e *Engine) Experiment(id string) (Config, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cfg, ok := e.experiments[id]
	if !ok {
		return Config{}, false
	}
	return *cfg, true
}

// ActiveExperiments returns every config whose kill-switch is on. The time
// window is deliberately not consulted here; only GetVariant gates on dates.
func (e *Engine) ActiveExperiments() []Config {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Config
	for _, cfg := range e.experiments {
		if cfg.IsActive {
			out = append(out, *cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DeactivateExperiment flips the kill-switch and stamps the end date.
// Unknown ids are a silent no-op; repeated calls just re-stamp.
func (e *Engine) DeactivateExperiment(id string) {
	e.mu.Lock()
	cfg, ok := e.experiments[id]
	if !ok {
		e.mu.Unlock()
		return
	}
	cfg.IsActive = false
	end := e.now()
	cfg.EndDate = &end
	snapshot := *cfg
	e.mu.Unlock()

	e.log.Info("experiment deactivated",
		zap.String("action", "deactivate_experiment"),
		zap.String("experiment", id),
	)

	e.journal("save_experiment", func(ctx context.Context) error {
		return e.store.SaveExperiment(ctx, snapshot)
	})
}

// journal runs a store write in the background. The hot path never waits on
// or fails because of the store.
func (e *Engine) journal(op string, fn func(context.Context) error) {
	if e.store == nil {
		return
	}
	e.journalGroup.Add(1)
	go func() {
		defer e.journalGroup.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			e.log.Warn("journal write failed",
				zap.String("action", op),
				zap.Error(err),
			)
		}
	}()
}

// Flush waits for in-flight journal writes. Intended for shutdown and tests.
func (e *Engine) Flush() {
	e.journalGroup.Wait()
}

// restore rehydrates engine state from the configured store.
func (e *Engine) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	configs, err := e.store.LoadExperiments(ctx)
	if err != nil {
		e.log.Warn("restore: experiments", zap.Error(err))
		return
	}
	for i := range configs {
		cfg := configs[i]
		e.experiments[cfg.ID] = &cfg
	}

	assignments, err := e.store.LoadAssignments(ctx)
	if err != nil {
		e.log.Warn("restore: assignments", zap.Error(err))
		return
	}
	for _, a := range assignments {
		e.assignments[assignKey{subject: a.Subject, experimentID: a.ExperimentID}] = a.VariantID
	}

	events, err := e.store.LoadEvents(ctx)
	if err != nil {
		e.log.Warn("restore: events", zap.Error(err))
		return
	}
	for _, ev := range events {
		e.results[ev.ExperimentID] = append(e.results[ev.ExperimentID], ev)
	}

	e.log.Info("state restored",
		zap.String("action", "restore"),
		zap.Int("experiments", len(configs)),
		zap.Int("assignments", len(assignments)),
		zap.Int("events", len(events)),
	)
}
