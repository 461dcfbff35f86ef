package database

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/tkessler/daybook/internal/models"
)

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			task, err := db.CreateTask(ctx, TaskSeed{Title: fmt.Sprintf("task %d", n)})
			if err != nil {
				errs <- fmt.Errorf("create %d: %w", n, err)
				return
			}
			if _, err := db.SetStatus(ctx, task.ID, models.StatusDone); err != nil {
				errs <- fmt.Errorf("complete %d: %w", n, err)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	tasks, err := db.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != workers {
		t.Errorf("tasks = %d, want %d", len(tasks), workers)
	}
	for _, task := range tasks {
		if !task.Done {
			t.Errorf("task %d not done", task.ID)
		}
	}
}

func TestConcurrentToggleKeepsInvariant(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	b := NewTestDataBuilder(t, ctx, db)
	task := b.Task("contended")

	const flips = 10
	var wg sync.WaitGroup
	for i := 0; i < flips; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.ToggleTask(ctx, task.ID); err != nil {
				t.Errorf("toggle: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := db.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Regardless of interleaving, the flag and status stay in lock step.
	if got.Done != (got.Status == models.StatusDone) {
		t.Errorf("done = %v but status = %q", got.Done, got.Status)
	}
	if got.Done == (got.CompletedAt == nil) {
		t.Errorf("done = %v but completed_at = %v", got.Done, got.CompletedAt)
	}
}
