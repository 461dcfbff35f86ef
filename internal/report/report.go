// Package report renders activity summaries of the task store as plain text
// or PDF.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

//go:generate mockgen -source=report.go -destination=mock_source_test.go -package=report

// TaskSource is the slice of the store a report needs.
type TaskSource interface {
	GetAllTasks(ctx context.Context) ([]models.Task, error)
	GetOverdueTasks(ctx context.Context) ([]models.Task, error)
	ListLogsSince(ctx context.Context, since time.Time) ([]models.TaskLog, error)
}

// Stats summarizes the store at report time.
type Stats struct {
	Open      int
	Done      int
	Overdue   int
	Completed int // completions within the report window
}

func gather(ctx context.Context, src TaskSource, since time.Time) ([]models.Task, []models.Task, []models.TaskLog, Stats, error) {
	tasks, err := src.GetAllTasks(ctx)
	if err != nil {
		return nil, nil, nil, Stats{}, fmt.Errorf("load tasks: %w", err)
	}
	overdue, err := src.GetOverdueTasks(ctx)
	if err != nil {
		return nil, nil, nil, Stats{}, fmt.Errorf("load overdue: %w", err)
	}
	logs, err := src.ListLogsSince(ctx, since)
	if err != nil {
		return nil, nil, nil, Stats{}, fmt.Errorf("load activity: %w", err)
	}

	stats := Stats{Overdue: len(overdue)}
	for _, t := range tasks {
		if t.Done {
			stats.Done++
		} else {
			stats.Open++
		}
	}
	for _, l := range logs {
		if l.Event == models.EventCompleted ||
			(l.Event == models.EventStatusChanged && l.Changes["status"].New == string(models.StatusDone)) {
			stats.Completed++
		}
	}
	return tasks, overdue, logs, stats, nil
}

// WriteText writes an activity report covering entries since the cutoff.
func WriteText(ctx context.Context, w io.Writer, src TaskSource, since time.Time) error {
	tasks, overdue, logs, stats, err := gather(ctx, src, since)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Activity Report (since %s)\n", since.Format("2006-01-02"))
	fmt.Fprintln(w, "==========================================")
	fmt.Fprintf(w, "Open: %d   Done: %d   Overdue: %d   Completed in window: %d\n\n",
		stats.Open, stats.Done, stats.Overdue, stats.Completed)

	if len(overdue) > 0 {
		fmt.Fprintln(w, "Overdue")
		fmt.Fprintln(w, "-------")
		for _, t := range overdue {
			fmt.Fprintf(w, "  [%s] %s (due %s)\n", t.Priority, t.Title, t.DueAt.Format("2006-01-02"))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Open Tasks")
	fmt.Fprintln(w, "----------")
	open := 0
	for _, t := range tasks {
		if t.Done {
			continue
		}
		open++
		line := fmt.Sprintf("  [%s] %s (%s)", t.Priority, t.Title, t.Status)
		if t.DueAt != nil {
			line += " due " + t.DueAt.Format("2006-01-02")
		}
		fmt.Fprintln(w, line)
	}
	if open == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Activity")
	fmt.Fprintln(w, "--------")
	if len(logs) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, l := range logs {
		fmt.Fprintf(w, "  %s  task %-4d %s%s\n",
			l.CreatedAt.Format("2006-01-02 15:04"), l.TaskID, l.Event, formatComment(l))
	}
	return nil
}

func formatComment(l models.TaskLog) string {
	if comment := util.Deref(l.Comment); comment != "" {
		return ": " + comment
	}
	return ""
}
