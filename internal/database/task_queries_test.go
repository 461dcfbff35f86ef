package database

import (
	"context"
	"testing"
	"time"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

func TestGetOpenTasksOrdering(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)

	unordered := b.Task("no order")
	second := b.Task("second on timeline")
	first := b.Task("first on timeline")
	finished := b.Task("finished")
	b.Complete(finished.ID)

	if err := db.SetTimelineOrder(ctx, second.ID, util.Ptr(2)); err != nil {
		t.Fatalf("order: %v", err)
	}
	if err := db.SetTimelineOrder(ctx, first.ID, util.Ptr(1)); err != nil {
		t.Fatalf("order: %v", err)
	}

	open, err := db.GetOpenTasks(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	wantIDs := []int64{first.ID, second.ID, unordered.ID}
	if len(open) != len(wantIDs) {
		t.Fatalf("open tasks = %d, want %d", len(open), len(wantIDs))
	}
	for i, id := range wantIDs {
		if open[i].ID != id {
			t.Errorf("open[%d] = %d, want %d", i, open[i].ID, id)
		}
	}
}

func TestGetTasksByStatus(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)

	b.Task("backlog item")
	active := b.TaskWith(TaskSeed{Title: "active", Status: models.StatusInProgress})

	got, err := db.GetTasksByStatus(ctx, models.StatusInProgress)
	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Errorf("got = %v", got)
	}

	if _, err := db.GetTasksByStatus(ctx, "bogus"); err == nil {
		t.Error("invalid status accepted")
	}
}

func TestGetOverdueTasks(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	pinClock(db, now)

	late := b.TaskWith(TaskSeed{Title: "late", DueAt: util.Ptr(now.AddDate(0, 0, -2))})
	b.TaskWith(TaskSeed{Title: "future", DueAt: util.Ptr(now.AddDate(0, 0, 2))})
	b.Task("no due date")
	lateDone := b.TaskWith(TaskSeed{Title: "late but done", DueAt: util.Ptr(now.AddDate(0, 0, -1))})
	b.Complete(lateDone.ID)

	overdue, err := db.GetOverdueTasks(ctx)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Errorf("overdue = %v, want only %d", overdue, late.ID)
	}
}

func TestGetSubtasks(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)

	parent := b.Task("move house")
	first := b.TaskWith(TaskSeed{Title: "pack", ParentTaskID: util.Ptr(parent.ID)})
	second := b.TaskWith(TaskSeed{Title: "hire movers", ParentTaskID: util.Ptr(parent.ID)})
	b.Task("unrelated")

	subs, err := db.GetSubtasks(ctx, parent.ID)
	if err != nil {
		t.Fatalf("subtasks: %v", err)
	}
	if len(subs) != 2 || subs[0].ID != first.ID || subs[1].ID != second.ID {
		t.Errorf("subtasks = %v", subs)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)

	groceries := b.TaskWith(TaskSeed{Title: "buy groceries", Priority: models.PriorityHigh, TaskType: "errand"})
	b.TaskWith(TaskSeed{Title: "buy stamps", Priority: models.PriorityLow, TaskType: "errand"})
	report := b.TaskWith(TaskSeed{Title: "quarterly report", Priority: models.PriorityHigh})
	if err := db.AssignLabel(ctx, groceries.ID, "shopping"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	cases := []struct {
		name  string
		query string
		want  []int64
	}{
		{"text", "groceries", []int64{groceries.ID}},
		{"priority", "priority:high buy", []int64{groceries.ID}},
		{"label", "label:shopping", []int64{groceries.ID}},
		{"type and priority", "type:errand priority:high", []int64{groceries.ID}},
		{"priority only newest first", "priority:high", []int64{report.ID, groceries.ID}},
		{"no match", "label:shopping stamps", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := db.Search(ctx, util.ParseSearchQuery(tc.query))
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("results = %d, want %d", len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("result[%d] = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}
