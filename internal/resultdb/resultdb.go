// Package resultdb persists Monte Carlo runs in SQLite.
package resultdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"time"

	"github.com/SimonSchneider/goslu/migrate"
	"github.com/SimonSchneider/goslu/sid"
	"github.com/SimonSchneider/goslu/sqlu"
	"github.com/SimonSchneider/pefisim/internal/montecarlo"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var ErrRunNotFound = errors.New("run not found")

type Run struct {
	ID        string
	Note      string
	Seed      int64
	Trials    int
	Scenarios []string
	CreatedAt time.Time
}

type DB struct {
	db *sql.DB
}

// Open opens the SQLite database at conn and migrates it. The sqlite3 driver
// must be registered by the caller.
func Open(ctx context.Context, conn string) (*DB, error) {
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to get migrations: %w", err)
	}
	if err := migrate.Migrate(ctx, migrations, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `SELECT 1 FROM run LIMIT 0`); err != nil {
		db.Close()
		return nil, fmt.Errorf("result schema missing after migration: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// SaveRun stores the table of a run and returns its id. Failed trials are
// stored as NULL.
func (d *DB) SaveRun(ctx context.Context, note string, seed int64, t montecarlo.Table) (Run, error) {
	run := Run{
		ID:        sid.MustNewString(15),
		Note:      note,
		Seed:      seed,
		Trials:    len(t.Rows),
		Scenarios: t.Columns,
		CreatedAt: time.UnixMilli(time.Now().UnixMilli()),
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("failed to begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO run (id, note, seed, trials, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, sqlu.NullString(note), seed, run.Trials, run.CreatedAt.UnixMilli()); err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	for i, name := range t.Columns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_scenario (run_id, position, name) VALUES (?, ?, ?)`,
			run.ID, i, name); err != nil {
			return Run{}, fmt.Errorf("failed to insert scenario %q: %w", name, err)
		}
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trial_result (run_id, trial, position, net_worth) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("failed to prepare results: %w", err)
	}
	defer stmt.Close()
	for trial, row := range t.Rows {
		for i, v := range row {
			nw := sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
			if _, err := stmt.ExecContext(ctx, run.ID, trial, i, nw); err != nil {
				return Run{}, fmt.Errorf("failed to insert trial %d: %w", trial, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs, newest first.
func (d *DB) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, note, seed, trials, created_at FROM run ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var (
			r       Run
			note    sql.NullString
			created int64
		)
		if err := rows.Scan(&r.ID, &note, &r.Seed, &r.Trials, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Note = note.String
		r.CreatedAt = time.UnixMilli(created)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].Scenarios, err = d.scenarios(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (d *DB) scenarios(ctx context.Context, runID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM run_scenario WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scenarios of %s: %w", runID, err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadTable reads back the table stored by SaveRun.
func (d *DB) LoadTable(ctx context.Context, runID string) (montecarlo.Table, error) {
	var trials int
	err := d.db.QueryRowContext(ctx, `SELECT trials FROM run WHERE id = ?`, runID).Scan(&trials)
	if errors.Is(err, sql.ErrNoRows) {
		return montecarlo.Table{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	} else if err != nil {
		return montecarlo.Table{}, fmt.Errorf("failed to get run: %w", err)
	}
	names, err := d.scenarios(ctx, runID)
	if err != nil {
		return montecarlo.Table{}, err
	}
	t := montecarlo.Table{Columns: names, Rows: make([][]float64, trials)}
	for i := range t.Rows {
		t.Rows[i] = make([]float64, len(names))
		for j := range t.Rows[i] {
			t.Rows[i][j] = math.NaN()
		}
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT trial, position, net_worth FROM trial_result WHERE run_id = ?`, runID)
	if err != nil {
		return montecarlo.Table{}, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			trial, pos int
			nw         sql.NullFloat64
		)
		if err := rows.Scan(&trial, &pos, &nw); err != nil {
			return montecarlo.Table{}, fmt.Errorf("failed to scan result: %w", err)
		}
		if trial < 0 || trial >= trials || pos < 0 || pos >= len(names) {
			return montecarlo.Table{}, fmt.Errorf("result (%d, %d) outside run %s", trial, pos, runID)
		}
		if nw.Valid {
			t.Rows[trial][pos] = nw.Float64
		}
	}
	return t, rows.Err()
}
