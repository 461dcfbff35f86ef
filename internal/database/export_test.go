package database

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tkessler/daybook/internal/models"
)

func populateForExport(t *testing.T, ctx context.Context, db *Database) {
	t.Helper()
	b := NewTestDataBuilder(t, ctx, db)
	task := b.Task("pack bags")
	blocker := b.Task("buy suitcase")
	b.Block(task.ID, blocker.ID)
	if err := db.AssignLabel(ctx, task.ID, "travel"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	b.Complete(blocker.ID)
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	populateForExport(t, ctx, db)

	var buf bytes.Buffer
	if err := db.WriteExport(ctx, &buf, ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "pack bags") {
		t.Error("plaintext export does not contain task title")
	}

	export, err := ReadExport(&buf, "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if export.Version != exportVersion {
		t.Errorf("version = %d", export.Version)
	}
	if len(export.Tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(export.Tasks))
	}
	if len(export.Dependencies) != 1 {
		t.Errorf("dependencies = %d, want 1", len(export.Dependencies))
	}
	if len(export.Labels) != 1 || export.Labels[0].Name != "travel" {
		t.Errorf("labels = %v", export.Labels)
	}
	if len(export.Logs) == 0 {
		t.Error("logs missing from export")
	}
	var doneCount int
	for _, task := range export.Tasks {
		if task.Done {
			doneCount++
			if task.Status != models.StatusDone {
				t.Errorf("exported task %d: done without done status", task.ID)
			}
		}
	}
	if doneCount != 1 {
		t.Errorf("done tasks = %d, want 1", doneCount)
	}
}

func TestExportEncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)
	populateForExport(t, ctx, db)

	const passphrase = "Correct1Horse"

	var buf bytes.Buffer
	if err := db.WriteExport(ctx, &buf, passphrase); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.Contains(buf.String(), "pack bags") {
		t.Error("encrypted export leaks plaintext")
	}

	export, err := ReadExport(bytes.NewReader(buf.Bytes()), passphrase)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(export.Tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(export.Tasks))
	}

	if _, err := ReadExport(bytes.NewReader(buf.Bytes()), "Wrong2Passphrase"); err == nil {
		t.Error("wrong passphrase accepted")
	}
}

func TestImportRestoresStore(t *testing.T) {
	ctx := context.Background()
	src := setupTestDB(t, ctx)
	populateForExport(t, ctx, src)

	var buf bytes.Buffer
	if err := src.WriteExport(ctx, &buf, ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	export, err := ReadExport(&buf, "")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	dst := setupTestDB(t, ctx)
	if err := dst.ImportExport(ctx, export); err != nil {
		t.Fatalf("import: %v", err)
	}

	srcTasks, err := src.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("source tasks: %v", err)
	}
	dstTasks, err := dst.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("imported tasks: %v", err)
	}
	if len(dstTasks) != len(srcTasks) {
		t.Fatalf("tasks = %d, want %d", len(dstTasks), len(srcTasks))
	}
	for i := range srcTasks {
		want, got := srcTasks[i], dstTasks[i]
		if got.ID != want.ID || got.Title != want.Title ||
			got.Status != want.Status || got.Done != want.Done {
			t.Errorf("task %d: got %+v, want %+v", want.ID, got, want)
		}
	}

	deps, err := dst.ListDependencies(ctx)
	if err != nil {
		t.Fatalf("imported deps: %v", err)
	}
	if len(deps) != 1 {
		t.Errorf("dependencies = %d, want 1", len(deps))
	}
	// The edge is live: blocked-state queries work on the imported graph.
	blocked, err := dst.IsBlocked(ctx, deps[0].TaskID)
	if err != nil {
		t.Fatalf("is blocked: %v", err)
	}
	if blocked {
		t.Error("blocker was done at export time, task should not be blocked")
	}

	labels, err := dst.GetTaskLabels(ctx, deps[0].TaskID)
	if err != nil {
		t.Fatalf("imported labels: %v", err)
	}
	if len(labels) != 1 || labels[0].Name != "travel" {
		t.Errorf("labels = %v", labels)
	}

	srcLogs, err := src.ListLogsSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("source logs: %v", err)
	}
	dstLogs, err := dst.ListLogsSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("imported logs: %v", err)
	}
	if len(dstLogs) != len(srcLogs) {
		t.Fatalf("logs = %d, want %d", len(dstLogs), len(srcLogs))
	}
	for i := range srcLogs {
		if dstLogs[i].ID != srcLogs[i].ID || dstLogs[i].Event != srcLogs[i].Event {
			t.Errorf("log %d: got %+v, want %+v", srcLogs[i].ID, dstLogs[i], srcLogs[i])
		}
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	src := setupTestDB(t, ctx)
	populateForExport(t, ctx, src)

	export, err := src.BuildExport(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	dst := setupTestDB(t, ctx)
	if err := dst.ImportExport(ctx, export); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if err := dst.ImportExport(ctx, export); err != nil {
		t.Fatalf("second import: %v", err)
	}

	tasks, err := dst.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != len(export.Tasks) {
		t.Errorf("tasks = %d after double import, want %d", len(tasks), len(export.Tasks))
	}
	logs, err := dst.ListLogsSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != len(export.Logs) {
		t.Errorf("logs = %d after double import, want %d", len(logs), len(export.Logs))
	}
}

func TestImportEncryptedSnapshot(t *testing.T) {
	ctx := context.Background()
	src := setupTestDB(t, ctx)
	populateForExport(t, ctx, src)

	const passphrase = "Round3Trip"
	var buf bytes.Buffer
	if err := src.WriteExport(ctx, &buf, passphrase); err != nil {
		t.Fatalf("write: %v", err)
	}
	export, err := ReadExport(&buf, passphrase)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	dst := setupTestDB(t, ctx)
	if err := dst.ImportExport(ctx, export); err != nil {
		t.Fatalf("import: %v", err)
	}
	tasks, err := dst.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(tasks))
	}
}

func TestImportRejectsNilAndUnknownLabel(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t, ctx)

	if err := db.ImportExport(ctx, nil); err == nil {
		t.Error("nil export accepted")
	}

	bad := &Export{
		Version:    exportVersion,
		Tasks:      []models.Task{{ID: 1, Title: "x", Priority: models.PriorityMedium, Status: models.StatusBacklog, RecurrenceType: models.RecurrenceNone}},
		TaskLabels: map[int64][]string{1: {"ghost"}},
	}
	if err := db.ImportExport(ctx, bad); err == nil {
		t.Error("snapshot referencing an undeclared label accepted")
	}
	// The failed import rolled back: nothing was written.
	tasks, err := db.GetAllTasks(ctx)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("tasks = %d after rejected import, want 0", len(tasks))
	}
}

func TestReadExportRejectsGarbage(t *testing.T) {
	if _, err := ReadExport(strings.NewReader("not json"), ""); err == nil {
		t.Error("garbage plaintext accepted")
	}
	if _, err := ReadExport(strings.NewReader("too short"), "Some1Passphrase"); err == nil {
		t.Error("garbage ciphertext accepted")
	}
}
