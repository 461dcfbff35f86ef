package database

import (
	"context"
	"errors"
	"testing"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

func TestCreateTaskDefaults(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	task, err := db.CreateTask(ctx, TaskSeed{Title: "  write report  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == 0 {
		t.Fatal("expected assigned ID")
	}
	if task.Title != "write report" {
		t.Errorf("title = %q, want trimmed", task.Title)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want medium", task.Priority)
	}
	if task.Status != models.StatusBacklog {
		t.Errorf("status = %q, want backlog", task.Status)
	}
	if task.Done {
		t.Error("new task should not be done")
	}
	if task.RecurrenceType != models.RecurrenceNone {
		t.Errorf("recurrence = %q, want none", task.RecurrenceType)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("timestamps not populated")
	}
}

func TestCreateTaskInvalidEnums(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	cases := []struct {
		name string
		seed TaskSeed
		want error
	}{
		{"priority", TaskSeed{Title: "a", Priority: "urgent"}, ErrInvalidPriority},
		{"status", TaskSeed{Title: "a", Status: "someday"}, ErrInvalidStatus},
		{"recurrence", TaskSeed{Title: "a", Recurrence: "yearly"}, ErrInvalidRecurrence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := db.CreateTask(ctx, tc.seed); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCreateTaskUnknownParent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	_, err := db.CreateTask(ctx, TaskSeed{Title: "sub", ParentTaskID: util.Ptr(int64(999))})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	_, err := db.GetTask(ctx, 42)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
	var opErr *OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("err = %T, want *OpError", err)
	}
	if opErr.Entity != EntityTask || opErr.ID != 42 {
		t.Errorf("op error context = %+v", opErr)
	}
}

func TestUpdateTaskReplacesFields(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)

	task := b.Task("draft")
	updated, err := db.UpdateTask(ctx, task.ID, TaskSeed{
		Title:            "final",
		Description:      "polished version",
		Priority:         models.PriorityHigh,
		TaskType:         "writing",
		EstimatedMinutes: 90,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "final" {
		t.Errorf("title = %q", updated.Title)
	}
	if util.Deref(updated.Description) != "polished version" {
		t.Errorf("description = %v", updated.Description)
	}
	if updated.Priority != models.PriorityHigh {
		t.Errorf("priority = %q", updated.Priority)
	}
	if updated.EstimatedMinutes != 90 {
		t.Errorf("estimated = %d", updated.EstimatedMinutes)
	}
	// Status is owned by SetStatus and must survive an update untouched.
	if updated.Status != task.Status || updated.Done != task.Done {
		t.Errorf("update changed status: %q done=%v", updated.Status, updated.Done)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	if _, err := db.UpdateTask(ctx, 7, TaskSeed{Title: "x"}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestDeleteTaskCascades(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)

	parent := b.Task("parent")
	child := b.TaskWith(TaskSeed{Title: "child", ParentTaskID: util.Ptr(parent.ID)})
	blocker := b.Task("blocker")
	b.Block(parent.ID, blocker.ID)
	if err := db.AssignLabel(ctx, parent.ID, "home"); err != nil {
		t.Fatalf("assign label: %v", err)
	}

	if err := db.DeleteTask(ctx, parent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := db.GetTask(ctx, parent.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("parent still present: %v", err)
	}
	if _, err := db.GetTask(ctx, child.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("subtask survived cascade: %v", err)
	}
	deps, err := db.ListDependencies(ctx)
	if err != nil {
		t.Fatalf("list dependencies: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("dependency edges survived cascade: %v", deps)
	}
	logs, err := db.GetTaskLogs(ctx, parent.ID)
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("log rows survived cascade: %d", len(logs))
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	if err := db.DeleteTask(ctx, 404); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)
	task := b.Task("persisted")

	// Reopening the same file must keep the schema and data intact.
	reopened, err := Open(ctx, db.dbFile)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Title != "persisted" {
		t.Errorf("title = %q", got.Title)
	}
}
