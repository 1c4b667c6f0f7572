package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRecord is one completed mine or compare run
type RunRecord struct {
	ID         string
	Command    string
	Population string
	Parameters map[string]any
	Total      float64
	Itemsets   int
	Rules      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// RecordRun stores a run, assigning an ID when empty. It returns the ID.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	} else if _, err := uuid.Parse(run.ID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}

	params, err := json.Marshal(run.Parameters)
	if err != nil {
		return "", fmt.Errorf("encode parameters: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs(id, command, population, parameters, total, itemsets, rules, started_at, finished_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Population, string(params), run.Total, run.Itemsets, run.Rules,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli())
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns up to limit runs, most recent first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, command, population, parameters, total, itemsets, rules, started_at, finished_at
		FROM runs ORDER BY finished_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		var run RunRecord
		var params string
		var started, finished int64
		if err := rows.Scan(&run.ID, &run.Command, &run.Population, &params, &run.Total,
			&run.Itemsets, &run.Rules, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.UnixMilli(started)
		run.FinishedAt = time.UnixMilli(finished)
		if err := json.Unmarshal([]byte(params), &run.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters for %s: %w", run.ID, err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
