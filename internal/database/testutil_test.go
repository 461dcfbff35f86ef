package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

func setupTestDB(t *testing.T, ctx context.Context) *Database {
	t.Helper()
	d, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test database: %v", err)
		}
	})
	return d
}

// TestDataBuilder creates fixture rows with sensible defaults so tests only
// spell out what they care about.
type TestDataBuilder struct {
	t   *testing.T
	ctx context.Context
	db  *Database
}

func NewTestDataBuilder(t *testing.T, ctx context.Context, db *Database) *TestDataBuilder {
	return &TestDataBuilder{t: t, ctx: ctx, db: db}
}

func (b *TestDataBuilder) Task(title string) models.Task {
	b.t.Helper()
	task, err := b.db.CreateTask(b.ctx, TaskSeed{Title: title})
	if err != nil {
		b.t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

func (b *TestDataBuilder) TaskWith(seed TaskSeed) models.Task {
	b.t.Helper()
	task, err := b.db.CreateTask(b.ctx, seed)
	if err != nil {
		b.t.Fatalf("create task %q: %v", seed.Title, err)
	}
	return task
}

func (b *TestDataBuilder) RecurringTask(title string, rule models.Recurrence, due time.Time) models.Task {
	b.t.Helper()
	return b.TaskWith(TaskSeed{
		Title:      title,
		Recurrence: rule,
		DueAt:      util.Ptr(due),
	})
}

func (b *TestDataBuilder) Complete(taskID int64) models.Task {
	b.t.Helper()
	task, err := b.db.SetStatus(b.ctx, taskID, models.StatusDone)
	if err != nil {
		b.t.Fatalf("complete task %d: %v", taskID, err)
	}
	return task
}

func (b *TestDataBuilder) Block(taskID, blockerID int64) {
	b.t.Helper()
	if err := b.db.AddDependency(b.ctx, taskID, blockerID); err != nil {
		b.t.Fatalf("add dependency %d -> %d: %v", taskID, blockerID, err)
	}
}

// pinClock freezes the database clock at the given instant.
func pinClock(db *Database, at time.Time) {
	db.SetNow(func() time.Time { return at })
}
