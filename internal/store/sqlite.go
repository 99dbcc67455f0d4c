// Package store provides the SQLite implementation of the engine's
// durability port. The engine journals to it asynchronously; nothing on the
// assignment hot path blocks on this package.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/beriox/bexp/internal/experiment"
)

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
    id TEXT PRIMARY KEY,
    config TEXT NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_experiments_active ON experiments(is_active);

CREATE TABLE IF NOT EXISTS assignments (
    subject_kind TEXT NOT NULL,
    subject_id TEXT NOT NULL,
    experiment_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (subject_kind, subject_id, experiment_id)
);

CREATE INDEX IF NOT EXISTS idx_assignments_experiment ON assignments(experiment_id);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    experiment_id TEXT NOT NULL,
    variant_id TEXT NOT NULL,
    user_id TEXT,
    session_id TEXT,
    goal_id TEXT,
    value REAL,
    metadata TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_experiment ON events(experiment_id);
CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveExperiment(ctx context.Context, cfg experiment.Config) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	active := 0
	if cfg.IsActive {
		active = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO experiments (id, config, is_active, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET config = excluded.config,
		                               is_active = excluded.is_active,
		                               updated_at = excluded.updated_at`,
		cfg.ID, string(configJSON), active, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadExperiments(ctx context.Context) ([]experiment.Config, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT config FROM experiments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load experiments: %w", err)
	}
	defer rows.Close()

	var configs []experiment.Config
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		var cfg experiment.Config
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (s *SQLiteStore) SaveAssignment(ctx context.Context, subject experiment.Subject, experimentID, variantID string) error {
	// Replace keeps the row idempotent for re-journaled assignments.
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO assignments (subject_kind, subject_id, experiment_id, variant_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		string(subject.Kind), subject.ID, experimentID, variantID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadAssignments(ctx context.Context) ([]experiment.StoredAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_kind, subject_id, experiment_id, variant_id FROM assignments`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	defer rows.Close()

	var assignments []experiment.StoredAssignment
	for rows.Next() {
		var kind, subjectID string
		var a experiment.StoredAssignment
		if err := rows.Scan(&kind, &subjectID, &a.ExperimentID, &a.VariantID); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.Subject = experiment.Subject{Kind: experiment.SubjectKind(kind), ID: subjectID}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, ev experiment.Result) error {
	var metadataJSON sql.NullString
	if len(ev.Metadata) > 0 {
		raw, err := json.Marshal(ev.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = sql.NullString{String: string(raw), Valid: true}
	}

	var value sql.NullFloat64
	if ev.Value != nil {
		value = sql.NullFloat64{Float64: *ev.Value, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (id, experiment_id, variant_id, user_id, session_id, goal_id, value, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.ExperimentID, ev.VariantID,
		nullable(ev.UserID), nullable(ev.SessionID), nullable(ev.GoalID),
		value, metadataJSON, ev.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadEvents(ctx context.Context) ([]experiment.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment_id, variant_id, user_id, session_id, goal_id, value, metadata, created_at
		 FROM events ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	var events []experiment.Result
	for rows.Next() {
		var ev experiment.Result
		var userID, sessionID, goalID, metadataJSON sql.NullString
		var value sql.NullFloat64
		var createdAt int64

		err := rows.Scan(&ev.ID, &ev.ExperimentID, &ev.VariantID, &userID, &sessionID, &goalID, &value, &metadataJSON, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev.UserID = userID.String
		ev.SessionID = sessionID.String
		ev.GoalID = goalID.String
		if value.Valid {
			v := value.Float64
			ev.Value = &v
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &ev.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		ev.Timestamp = time.Unix(0, createdAt)

		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE created_at < ?`, cutoff.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
