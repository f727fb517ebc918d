// Package history persists run summaries to a local SQLite database so runs
// can be compared across harness invocations.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/user/cachebench/internal/stats"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  TEXT    NOT NULL,
	scenario    TEXT    NOT NULL,
	server      TEXT    NOT NULL,
	cache_name  TEXT    NOT NULL,
	operations  INTEGER NOT NULL,
	workers     INTEGER NOT NULL,
	completed   INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	elapsed_ms  INTEGER NOT NULL,
	ops_per_sec REAL    NOT NULL,
	mean_us     INTEGER NOT NULL,
	min_us      INTEGER NOT NULL,
	max_us      INTEGER NOT NULL,
	p50_us      INTEGER NOT NULL,
	p90_us      INTEGER NOT NULL,
	p99_us      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// DB is a handle to the history database.
type DB struct {
	db *sql.DB
}

// Open creates or opens the history database at path and applies the schema.
// WAL mode keeps a save at the end of one run from blocking a concurrent
// history listing.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	slog.Debug("history database opened", "path", path)
	return &DB{db: db}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Run is one saved run record.
type Run struct {
	ID         int64
	CreatedAt  time.Time
	Scenario   string
	Server     string
	CacheName  string
	Operations int
	Workers    int
	Completed  int
	Failed     int
	Elapsed    time.Duration
	OpsPerSec  float64
	Mean       time.Duration
	Min        time.Duration
	Max        time.Duration
	P50        time.Duration
	P90        time.Duration
	P99        time.Duration
}

// Save records a completed run summary and returns its row ID.
func (d *DB) Save(scenarioName, server, cacheName string, operations, workers int, s *stats.Summary) (int64, error) {
	res, err := d.db.Exec(`
		INSERT INTO runs (
			created_at, scenario, server, cache_name, operations, workers,
			completed, failed, elapsed_ms, ops_per_sec,
			mean_us, min_us, max_us, p50_us, p90_us, p99_us
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339),
		scenarioName, server, cacheName, operations, workers,
		s.Completed, s.Failed, s.Elapsed.Milliseconds(), s.Throughput,
		s.Mean.Microseconds(), s.Min.Microseconds(), s.Max.Microseconds(),
		s.P50.Microseconds(), s.P90.Microseconds(), s.P99.Microseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}
	return id, nil
}

// List returns the most recent runs, newest first.
func (d *DB) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(`
		SELECT id, created_at, scenario, server, cache_name, operations, workers,
		       completed, failed, elapsed_ms, ops_per_sec,
		       mean_us, min_us, max_us, p50_us, p90_us, p99_us
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			created   string
			elapsedMs int64

			meanUs, minUs, maxUs, p50, p90, p99 int64
		)
		if err := rows.Scan(
			&r.ID, &created, &r.Scenario, &r.Server, &r.CacheName,
			&r.Operations, &r.Workers, &r.Completed, &r.Failed,
			&elapsedMs, &r.OpsPerSec,
			&meanUs, &minUs, &maxUs, &p50, &p90, &p99,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		r.Mean = time.Duration(meanUs) * time.Microsecond
		r.Min = time.Duration(minUs) * time.Microsecond
		r.Max = time.Duration(maxUs) * time.Microsecond
		r.P50 = time.Duration(p50) * time.Microsecond
		r.P90 = time.Duration(p90) * time.Microsecond
		r.P99 = time.Duration(p99) * time.Microsecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
