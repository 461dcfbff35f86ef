// Package database implements the task core: the record store, status state
// machine, dependency graph, recurrence expander, and activity log, all
// persisted in a single SQLite file.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDBTimeout = 5 * time.Second

// Database wraps the SQLite connection and owns all task operations.
type Database struct {
	DB     *sql.DB
	dbFile string

	// now is the injected clock used for recurrence computation and
	// completion timestamps, so tests can pin time.
	now func() time.Time

	notifier Notifier
}

// Open opens (or creates) the database at path and ensures the schema.
// The caller is responsible for calling Close.
func Open(ctx context.Context, path string) (*Database, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single writer connection avoids SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	d := &Database{DB: db, dbFile: path, now: time.Now}
	if err := d.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying database connection.
func (d *Database) Close() error { return d.DB.Close() }

// SetNow overrides the clock. Intended for tests.
func (d *Database) SetNow(fn func() time.Time) { d.now = fn }

// SetNotifier registers the receiver of completion/reopen events.
func (d *Database) SetNotifier(n Notifier) { d.notifier = n }

func (d *Database) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_task_id INTEGER REFERENCES tasks(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT,
			priority TEXT NOT NULL DEFAULT 'medium',
			task_type TEXT,
			status TEXT NOT NULL DEFAULT 'backlog',
			previous_status TEXT,
			done INTEGER NOT NULL DEFAULT 0,
			due_at DATETIME,
			start_date DATETIME,
			timeline_order INTEGER,
			estimated_minutes INTEGER NOT NULL DEFAULT 0,
			actual_minutes INTEGER NOT NULL DEFAULT 0,
			recurrence_type TEXT NOT NULL DEFAULT 'none',
			recurrence_interval INTEGER NOT NULL DEFAULT 1,
			recurrence_end_date DATETIME,
			pomodoro_estimate INTEGER,
			pomodoro_completed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			completed_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS task_dependencies (
			task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			blocked_by_task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (task_id, blocked_by_task_id)
		);`,
		`CREATE TABLE IF NOT EXISTS labels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			color TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS task_label_map (
			task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			label_id INTEGER NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
			PRIMARY KEY (task_id, label_id)
		);`,
		`CREATE TABLE IF NOT EXISTS task_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			user_id INTEGER,
			event_type TEXT NOT NULL,
			changes TEXT,
			comment TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due_at ON tasks(due_at);`,
		`CREATE INDEX IF NOT EXISTS idx_deps_blocked_by ON task_dependencies(blocked_by_task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_task ON task_logs(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_event ON task_logs(event_type);`,
		`CREATE INDEX IF NOT EXISTS idx_logs_created ON task_logs(created_at);`,
	}

	for _, query := range queries {
		if _, err := d.DB.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("create table: %w: %s", err, query)
		}
	}

	d.migrate(ctx)
	return nil
}

// migrate applies additive column migrations for databases created by older
// builds. Failures are ignored: the column already exists on re-run.
func (d *Database) migrate(ctx context.Context) {
	_, _ = d.DB.ExecContext(ctx, "ALTER TABLE tasks ADD COLUMN timeline_order INTEGER")
	_, _ = d.DB.ExecContext(ctx, "ALTER TABLE tasks ADD COLUMN pomodoro_estimate INTEGER")
	_, _ = d.DB.ExecContext(ctx, "ALTER TABLE tasks ADD COLUMN pomodoro_completed INTEGER NOT NULL DEFAULT 0")
	_, _ = d.DB.ExecContext(ctx, "ALTER TABLE tasks ADD COLUMN previous_status TEXT")
	_, _ = d.DB.ExecContext(ctx, "ALTER TABLE task_logs ADD COLUMN user_id INTEGER")
}

// withTimeout bounds ctx with the default database timeout unless the caller
// already set a deadline.
func (d *Database) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// WithTx runs fn inside a transaction, rolling back on error.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return rollbackWithLog(tx, err)
	}
	return tx.Commit()
}
