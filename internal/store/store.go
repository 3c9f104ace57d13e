// Package store keeps a SQLite history of analysis runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/olivier-w/syncframe/internal/analysis"
)

// Key identifies an analysis of one file version with one set of parameters.
type Key struct {
	Path         string
	Size         int64
	ModTime      time.Time
	ToneHz       float64
	SignalFrames int
	SmoothWindow int
	FrameRate    float64
}

// KeyFor stats path and combines it with the parameters of res.
func KeyFor(path string, res *analysis.Result) (Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, err
	}
	return Key{
		Path:         path,
		Size:         info.Size(),
		ModTime:      info.ModTime().UTC().Truncate(time.Second),
		ToneHz:       res.ToneHz,
		SignalFrames: res.SignalFrames,
		SmoothWindow: res.SmoothWindow,
		FrameRate:    res.FrameRate,
	}, nil
}

// Run is one stored analysis.
type Run struct {
	ID         int64
	Key        Key
	Candidates map[analysis.Method]analysis.Candidates
	CreatedAt  time.Time
}

// Store is a SQLite-backed run history.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history %s: %w", path, err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history tables: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func createTables(db *sql.DB) error {
	createRuns := `
    CREATE TABLE IF NOT EXISTS runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        path TEXT NOT NULL,
        size INTEGER NOT NULL,
        mod_time INTEGER NOT NULL,
        tone_hz REAL NOT NULL,
        signal_frames INTEGER NOT NULL,
        smooth_window INTEGER NOT NULL,
        frame_rate REAL NOT NULL,
        created_at INTEGER NOT NULL,
        UNIQUE (path, size, mod_time, tone_hz, signal_frames, smooth_window, frame_rate)
    );
    `
	createCandidates := `
    CREATE TABLE IF NOT EXISTS candidates (
        run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
        method TEXT NOT NULL,
        frame INTEGER NOT NULL,
        PRIMARY KEY (run_id, method, frame)
    );
    `
	if _, err := db.Exec(createRuns); err != nil {
		return fmt.Errorf("runs table: %w", err)
	}
	if _, err := db.Exec(createCandidates); err != nil {
		return fmt.Errorf("candidates table: %w", err)
	}
	return nil
}

// Save records the candidates for key, replacing any earlier run with the
// same key, and returns the new run ID.
func (s *Store) Save(ctx context.Context, key Key, cands map[analysis.Method]analysis.Candidates) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM runs
		WHERE path = ? AND size = ? AND mod_time = ? AND tone_hz = ?
		  AND signal_frames = ? AND smooth_window = ? AND frame_rate = ?`,
		keyArgs(key)...); err != nil {
		return 0, fmt.Errorf("replacing run: %w", err)
	}

	args := append(keyArgs(key), s.now().UnixMilli())
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (path, size, mod_time, tone_hz, signal_frames, smooth_window, frame_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return 0, fmt.Errorf("adding run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting run ID: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO candidates (run_id, method, frame) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()
	for method, frames := range cands {
		for _, f := range frames {
			if _, err := stmt.ExecContext(ctx, id, string(method), f); err != nil {
				return 0, fmt.Errorf("adding candidate: %w", err)
			}
		}
	}

	return id, tx.Commit()
}

// Lookup returns the stored run for key. ok is false when there is none.
func (s *Store) Lookup(ctx context.Context, key Key) (run Run, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM runs
		WHERE path = ? AND size = ? AND mod_time = ? AND tone_hz = ?
		  AND signal_frames = ? AND smooth_window = ? AND frame_rate = ?`,
		keyArgs(key)...)

	var created int64
	if err := row.Scan(&run.ID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, fmt.Errorf("looking up run: %w", err)
	}
	run.Key = key
	run.CreatedAt = time.UnixMilli(created)
	if run.Candidates, err = s.candidates(ctx, run.ID); err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, size, mod_time, tone_hz, signal_frames, smooth_window, frame_rate, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}

	var runs []Run
	for rows.Next() {
		var (
			r                Run
			modTime, created int64
		)
		if err := rows.Scan(&r.ID, &r.Key.Path, &r.Key.Size, &modTime, &r.Key.ToneHz,
			&r.Key.SignalFrames, &r.Key.SmoothWindow, &r.Key.FrameRate, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Key.ModTime = time.Unix(modTime, 0).UTC()
		r.CreatedAt = time.UnixMilli(created)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("reading runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		if runs[i].Candidates, err = s.candidates(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s *Store) candidates(ctx context.Context, runID int64) (map[analysis.Method]analysis.Candidates, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT method, frame FROM candidates WHERE run_id = ? ORDER BY method, frame", runID)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	out := make(map[analysis.Method]analysis.Candidates)
	for rows.Next() {
		var (
			method string
			frame  int
		)
		if err := rows.Scan(&method, &frame); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		m := analysis.Method(method)
		out[m] = append(out[m], frame)
	}
	return out, rows.Err()
}

func keyArgs(k Key) []any {
	return []any{k.Path, k.Size, k.ModTime.Unix(), k.ToneHz, k.SignalFrames, k.SmoothWindow, k.FrameRate}
}
