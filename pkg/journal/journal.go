package journal

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds journal database settings.
type Config struct {
	// Path is the SQLite database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime.
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a journal configuration with sensible pool limits.
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Journal records sweep history in a SQLite database.
type Journal struct {
	db  *sql.DB
	cfg Config
}

// NewJournal creates a journal for the given configuration. Call Init
// to open the database and Migrate to apply the schema.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	return &Journal{cfg: cfg}, nil
}

// Open is a convenience that creates, initializes, and migrates a
// journal at path with default pool settings.
func Open(ctx context.Context, path string) (*Journal, error) {
	j, err := NewJournal(DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	if err := j.Init(ctx); err != nil {
		return nil, err
	}
	if err := j.Migrate(ctx); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// Init opens the database connection and verifies connectivity.
func (j *Journal) Init(ctx context.Context) error {
	// Pragmas use the modernc _pragma=name(value) form; WAL and a busy
	// timeout let a history query run while a sweep is writing.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_txlock=immediate", j.cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}

	db.SetMaxOpenConns(j.cfg.MaxOpenConns)
	db.SetMaxIdleConns(j.cfg.MaxIdleConns)
	db.SetConnMaxLifetime(j.cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping journal database: %w", err)
	}

	j.db = db
	return nil
}

// Migrate applies any pending schema migrations.
func (j *Journal) Migrate(ctx context.Context) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(j.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// HealthCheck verifies the database is reachable.
func (j *Journal) HealthCheck(ctx context.Context) error {
	if j.db == nil {
		return fmt.Errorf("journal database not initialized")
	}
	return j.db.PingContext(ctx)
}

// BeginSweep records the start of a sweep run.
func (j *Journal) BeginSweep(ctx context.Context, sweepID, command string, length int) error {
	query := `
		INSERT INTO sweeps (id, sweep_id, command, length, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		uuid.NewString(), sweepID, command, length, SweepStatusRunning, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record sweep start: %w", err)
	}
	return nil
}

// RecordSimulation records one dispatched simulation under the running
// sweep with the given sweep ID.
func (j *Journal) RecordSimulation(ctx context.Context, sweepID, simID string, params map[string]any) error {
	blob, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode simulation parameters: %w", err)
	}

	// The subquery resolves the current run; the NOT NULL constraint on
	// run_id rejects recording against a sweep that was never begun.
	query := `
		INSERT INTO simulations (id, run_id, sim_id, params, created_at)
		VALUES (?, (
			SELECT id FROM sweeps
			WHERE sweep_id = ? AND status = ?
			ORDER BY started_at DESC LIMIT 1
		), ?, ?, ?)
	`
	_, err = j.db.ExecContext(ctx, query,
		uuid.NewString(), sweepID, SweepStatusRunning, simID, string(blob), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record simulation %s: %w", simID, err)
	}
	return nil
}

// FinishSweep marks the running sweep with the given sweep ID as
// completed or failed.
func (j *Journal) FinishSweep(ctx context.Context, sweepID, status string) error {
	st := SweepStatus(status)
	if st != SweepStatusCompleted && st != SweepStatusFailed {
		return fmt.Errorf("invalid sweep status: %q", status)
	}

	query := `
		UPDATE sweeps
		SET status = ?, completed_at = ?
		WHERE id = (
			SELECT id FROM sweeps
			WHERE sweep_id = ? AND status = ?
			ORDER BY started_at DESC LIMIT 1
		)
	`
	result, err := j.db.ExecContext(ctx, query,
		st, time.Now().UTC(), sweepID, SweepStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to record sweep finish: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no running sweep found: %s", sweepID)
	}
	return nil
}

// GetSweep retrieves a sweep run by its run ID.
func (j *Journal) GetSweep(ctx context.Context, runID string) (*Sweep, error) {
	query := `
		SELECT id, sweep_id, command, length, status, started_at, completed_at
		FROM sweeps
		WHERE id = ?
	`
	var s Sweep
	err := j.db.QueryRowContext(ctx, query, runID).Scan(
		&s.ID, &s.SweepID, &s.Command, &s.Length, &s.Status, &s.StartedAt, &s.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sweep run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sweep run: %w", err)
	}
	return &s, nil
}

// ListSweeps retrieves sweep runs ordered most recent first.
func (j *Journal) ListSweeps(ctx context.Context, limit, offset int) ([]*Sweep, error) {
	query := `
		SELECT id, sweep_id, command, length, status, started_at, completed_at
		FROM sweeps
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`
	rows, err := j.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}
	defer rows.Close()

	var sweeps []*Sweep
	for rows.Next() {
		var s Sweep
		if err := rows.Scan(&s.ID, &s.SweepID, &s.Command, &s.Length, &s.Status, &s.StartedAt, &s.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sweep row: %w", err)
		}
		sweeps = append(sweeps, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sweep rows: %w", err)
	}
	return sweeps, nil
}

// ListSimulations retrieves the simulations recorded under every run of
// the given user-visible sweep ID, oldest first.
func (j *Journal) ListSimulations(ctx context.Context, sweepID string) ([]*Simulation, error) {
	query := `
		SELECT s.id, s.run_id, s.sim_id, s.params, s.created_at
		FROM simulations s
		JOIN sweeps w ON s.run_id = w.id
		WHERE w.sweep_id = ?
		ORDER BY s.created_at, s.sim_id
	`
	rows, err := j.db.QueryContext(ctx, query, sweepID)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	defer rows.Close()

	var sims []*Simulation
	for rows.Next() {
		var s Simulation
		if err := rows.Scan(&s.ID, &s.RunID, &s.SimID, &s.Params, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan simulation row: %w", err)
		}
		sims = append(sims, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate simulation rows: %w", err)
	}
	return sims, nil
}
