// Package store persists sampling results in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"qroute/internal/sampler"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("store: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	program     TEXT NOT NULL,
	source_hash TEXT NOT NULL,
	topology    TEXT NOT NULL,
	shots       INTEGER NOT NULL,
	seed        TEXT NOT NULL,
	registers   TEXT NOT NULL,
	mapping     TEXT NOT NULL,
	swaps       INTEGER NOT NULL,
	created_at  INTEGER NOT NULL,
	elapsed_ns  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS counts (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	outcome TEXT NOT NULL,
	count   INTEGER NOT NULL,
	PRIMARY KEY (run_id, outcome)
);
`

// Store is a handle on a results database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and serialises
	// writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun writes a result and its histogram in one transaction.
func (s *Store) SaveRun(ctx context.Context, r *sampler.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, program, source_hash, topology, shots, seed, registers, mapping, swaps, created_at, elapsed_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.Program, r.SourceHash, r.Topology, r.Shots,
		strconv.FormatUint(r.Seed, 10), strings.Join(r.Registers, ","), joinInts(r.Mapping), r.Swaps,
		r.CreatedAt.UnixNano(), int64(r.Elapsed))
	if err != nil {
		return fmt.Errorf("store: save run %s: %w", r.ID, err)
	}
	for outcome, count := range r.Counts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO counts (run_id, outcome, count) VALUES (?, ?, ?)`,
			r.ID.String(), outcome, count); err != nil {
			return fmt.Errorf("store: save counts of %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debug("Saved sampling run", "id", r.ID, "outcomes", len(r.Counts))
	return nil
}

// LoadRun reads a result back, histogram included.
func (s *Store) LoadRun(ctx context.Context, id uuid.UUID) (*sampler.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, program, source_hash, topology, shots, seed, registers, mapping, swaps, created_at, elapsed_ns
		 FROM runs WHERE id = ?`, id.String())
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT outcome, count FROM counts WHERE run_id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	r.Counts = make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		r.Counts[outcome] = count
	}
	return r, rows.Err()
}

// ListRuns returns the most recent runs, newest first, without histograms.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*sampler.Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, program, source_hash, topology, shots, seed, registers, mapping, swaps, created_at, elapsed_ns
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*sampler.Result
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its histogram.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*sampler.Result, error) {
	var (
		r                  sampler.Result
		id, seed           string
		registers, mapping string
		created, elapsed   int64
	)
	err := sc.Scan(&id, &r.Program, &r.SourceHash, &r.Topology, &r.Shots, &seed, &registers, &mapping, &r.Swaps, &created, &elapsed)
	if err != nil {
		return nil, err
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("store: run id %q: %w", id, err)
	}
	if r.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, fmt.Errorf("store: run %s seed: %w", id, err)
	}
	if registers != "" {
		r.Registers = strings.Split(registers, ",")
	}
	if r.Mapping, err = splitInts(mapping); err != nil {
		return nil, fmt.Errorf("store: run %s mapping: %w", id, err)
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.Elapsed = time.Duration(elapsed)
	return &r, nil
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
