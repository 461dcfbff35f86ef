package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

const exportVersion = 1

// Export is the portable snapshot of the whole store: tasks, labels and
// their assignments, dependency edges, and the full activity log.
type Export struct {
	Version      int                 `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	Tasks        []models.Task       `json:"tasks"`
	Labels       []models.Label      `json:"labels"`
	TaskLabels   map[int64][]string  `json:"task_labels,omitempty"`
	Dependencies []models.Dependency `json:"dependencies,omitempty"`
	Logs         []models.TaskLog    `json:"logs,omitempty"`
}

// BuildExport assembles a snapshot of the current store contents.
func (d *Database) BuildExport(ctx context.Context) (*Export, error) {
	tasks, err := d.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	labels, err := d.GetAllLabels(ctx)
	if err != nil {
		return nil, err
	}
	deps, err := d.ListDependencies(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := d.ListLogsSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}

	taskLabels := map[int64][]string{}
	for _, t := range tasks {
		assigned, err := d.GetTaskLabels(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range assigned {
			taskLabels[t.ID] = append(taskLabels[t.ID], l.Name)
		}
	}

	return &Export{
		Version:      exportVersion,
		ExportedAt:   d.now().UTC(),
		Tasks:        tasks,
		Labels:       labels,
		TaskLabels:   taskLabels,
		Dependencies: deps,
		Logs:         logs,
	}, nil
}

// WriteExport writes the snapshot to w as JSON. A non-empty passphrase
// encrypts the payload; an empty one writes plaintext.
func (d *Database) WriteExport(ctx context.Context, w io.Writer, passphrase string) error {
	export, err := d.BuildExport(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if passphrase != "" {
		data, err = encryptPayload(data, passphrase)
		if err != nil {
			return err
		}
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ReadExport parses a snapshot previously written by WriteExport. The
// passphrase must match how the snapshot was written: empty for plaintext.
func ReadExport(r io.Reader, passphrase string) (*Export, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	if passphrase != "" {
		data, err = decryptPayload(data, passphrase)
		if err != nil {
			return nil, err
		}
	}
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	if export.Version != exportVersion {
		return nil, fmt.Errorf("unsupported export version %d", export.Version)
	}
	return &export, nil
}

// ImportExport writes a parsed snapshot back into the store in a single
// transaction. Rows are keyed by their exported IDs and replace any existing
// rows with the same ID, so importing the same snapshot twice is idempotent.
func (d *Database) ImportExport(ctx context.Context, export *Export) error {
	if export == nil {
		return fmt.Errorf("import: nil export")
	}
	return d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, t := range export.Tasks {
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO tasks
				(id, parent_task_id, title, description, priority, task_type, status, previous_status, done,
				 due_at, start_date, timeline_order, estimated_minutes, actual_minutes,
				 recurrence_type, recurrence_interval, recurrence_end_date,
				 pomodoro_estimate, pomodoro_completed, created_at, updated_at, completed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, toNullableArg(t.ParentTaskID), t.Title, toNullableArg(t.Description),
				string(t.Priority), toNullableArg(t.TaskType),
				string(t.Status), toNullableArg(t.PreviousStatus), util.BoolToInt(t.Done),
				toNullableArg(t.DueAt), toNullableArg(t.StartDate), toNullableArg(t.TimelineOrder),
				t.EstimatedMinutes, t.ActualMinutes,
				string(t.RecurrenceType), t.RecurrenceInterval, toNullableArg(t.RecurrenceEndDate),
				toNullableArg(t.PomodoroEstimate), t.PomodoroCompleted,
				t.CreatedAt, t.UpdatedAt, toNullableArg(t.CompletedAt)); err != nil {
				return fmt.Errorf("import task %d: %w", t.ID, err)
			}
		}

		labelIDs := make(map[string]int64, len(export.Labels))
		for _, l := range export.Labels {
			if _, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO labels (id, name, color) VALUES (?, ?, ?)",
				l.ID, l.Name, toNullableArg(l.Color)); err != nil {
				return fmt.Errorf("import label %d: %w", l.ID, err)
			}
			labelIDs[l.Name] = l.ID
		}
		for taskID, names := range export.TaskLabels {
			for _, name := range names {
				labelID, ok := labelIDs[name]
				if !ok {
					return fmt.Errorf("import task %d: unknown label %q", taskID, name)
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT OR REPLACE INTO task_label_map (task_id, label_id) VALUES (?, ?)",
					taskID, labelID); err != nil {
					return fmt.Errorf("import task %d label %q: %w", taskID, name, err)
				}
			}
		}

		for _, dep := range export.Dependencies {
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO task_dependencies
				(task_id, blocked_by_task_id, created_at) VALUES (?, ?, ?)`,
				dep.TaskID, dep.BlockedByTaskID, dep.CreatedAt); err != nil {
				return fmt.Errorf("import dependency %d->%d: %w", dep.TaskID, dep.BlockedByTaskID, err)
			}
		}

		for _, l := range export.Logs {
			var changesArg interface{}
			if len(l.Changes) > 0 {
				data, err := json.Marshal(l.Changes)
				if err != nil {
					return fmt.Errorf("import log %d: %w", l.ID, err)
				}
				changesArg = string(data)
			}
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO task_logs
				(id, task_id, user_id, event_type, changes, comment, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				l.ID, l.TaskID, toNullableArg(l.UserID), string(l.Event),
				changesArg, toNullableArg(l.Comment), l.CreatedAt); err != nil {
				return fmt.Errorf("import log %d: %w", l.ID, err)
			}
		}
		return nil
	})
}
