// Package storage persists populations and run history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/sketchmine/internal/model"
	"github.com/ppiankov/sketchmine/internal/population"
	"github.com/ppiankov/sketchmine/internal/sketch"
)

// Store wraps a SQLite database holding populations and run records
type Store struct {
	db   *sql.DB
	path string
}

// PopulationInfo describes a stored population
type PopulationInfo struct {
	Name      string
	Kind      string
	LgK       int
	Items     int
	Total     float64
	CreatedAt time.Time
}

// Open opens (creating if needed) the database at path and ensures the schema
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// EnsureSchema creates missing tables
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS populations (
			name TEXT PRIMARY KEY,
			sketch_kind TEXT NOT NULL,
			lg_k INTEGER NOT NULL,
			total BLOB NOT NULL,
			total_estimate REAL NOT NULL,
			item_count INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS population_items (
			population TEXT NOT NULL,
			item TEXT NOT NULL,
			sketch BLOB NOT NULL,
			PRIMARY KEY (population, item)
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			population TEXT NOT NULL,
			parameters TEXT NOT NULL,
			total REAL NOT NULL,
			itemsets INTEGER NOT NULL,
			rules INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SavePopulation stores pop under name, replacing any previous version
func (s *Store) SavePopulation(ctx context.Context, name string, pop *population.Population, codec sketch.Codec) (err error) {
	totalBytes, err := pop.Total().MarshalBinary()
	if err != nil {
		return fmt.Errorf("serialize total: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM population_items WHERE population = ?`, name); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO populations(name, sketch_kind, lg_k, total, total_estimate, item_count, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			sketch_kind=excluded.sketch_kind, lg_k=excluded.lg_k, total=excluded.total,
			total_estimate=excluded.total_estimate, item_count=excluded.item_count,
			created_at=excluded.created_at`,
		name, codec.Kind(), codec.LgK(), totalBytes, pop.TotalEstimate(), pop.Len(), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("save population: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO population_items(population, item, sketch) VALUES(?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare items: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range pop.Items() {
		sk, lookupErr := pop.Sketch(item)
		if lookupErr != nil {
			return lookupErr
		}
		data, marshalErr := sk.MarshalBinary()
		if marshalErr != nil {
			return fmt.Errorf("serialize %s: %w", item, marshalErr)
		}
		if _, err = stmt.ExecContext(ctx, name, item, data); err != nil {
			return fmt.Errorf("save item %s: %w", item, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadPopulation reads a stored population and decodes it with codec
func (s *Store) LoadPopulation(ctx context.Context, name string, codec sketch.Codec) (*population.Population, error) {
	source := s.path + "#" + name

	var kind string
	var totalBytes []byte
	err := s.db.QueryRowContext(ctx, `SELECT sketch_kind, total FROM populations WHERE name = ?`, name).Scan(&kind, &totalBytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.DataError{Source: source, Err: fmt.Errorf("population not found")}
	}
	if err != nil {
		return nil, fmt.Errorf("load population: %w", err)
	}
	if kind != codec.Kind() {
		return nil, &model.DataError{Source: source, Err: fmt.Errorf("stored sketch kind %q, configured %q: %w", kind, codec.Kind(), sketch.ErrIncompatible)}
	}

	total, err := codec.Decode(totalBytes)
	if err != nil {
		return nil, &model.DataError{Source: source, Item: "total", Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT item, sketch FROM population_items WHERE population = ? ORDER BY item`, name)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make(map[string]sketch.Sketch)
	row := 0
	for rows.Next() {
		row++
		var item string
		var data []byte
		if err := rows.Scan(&item, &data); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		sk, err := codec.Decode(data)
		if err != nil {
			return nil, &model.DataError{Source: source, Row: row, Item: item, Err: err}
		}
		items[item] = sk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	return population.New(source, total, items)
}

// ListPopulations returns stored populations ordered by name
func (s *Store) ListPopulations(ctx context.Context) ([]PopulationInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sketch_kind, lg_k, item_count, total_estimate, created_at
		FROM populations ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list populations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []PopulationInfo
	for rows.Next() {
		var info PopulationInfo
		var created int64
		if err := rows.Scan(&info.Name, &info.Kind, &info.LgK, &info.Items, &info.Total, &created); err != nil {
			return nil, fmt.Errorf("scan population: %w", err)
		}
		info.CreatedAt = time.UnixMilli(created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeletePopulation removes a population and its items
func (s *Store) DeletePopulation(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM population_items WHERE population = ?`, name); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM populations WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete population: %w", err)
	}
	return nil
}
