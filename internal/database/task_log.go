package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/tkessler/daybook/internal/models"
)

const logColumns = `id, task_id, user_id, event_type, changes, comment, created_at`

// appendLogTx writes one activity-log entry inside the caller's transaction.
// Every mutating task operation appends exactly one entry this way; entries
// are never updated or deleted afterwards.
func appendLogTx(ctx context.Context, tx *sql.Tx, taskID int64, userID *int64, event models.LogEvent, changes models.Changes, comment string) error {
	var changesArg interface{}
	if len(changes) > 0 {
		data, err := json.Marshal(changes)
		if err != nil {
			return err
		}
		changesArg = string(data)
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO task_logs (task_id, user_id, event_type, changes, comment) VALUES (?, ?, ?, ?, ?)",
		taskID, toNullableArg(userID), string(event), changesArg, nullableString(comment))
	return err
}

func scanLog(row interface{ Scan(...interface{}) error }) (models.TaskLog, error) {
	var l models.TaskLog
	var changes *string
	if err := row.Scan(&l.ID, &l.TaskID, &l.UserID, &l.Event, &changes, &l.Comment, &l.CreatedAt); err != nil {
		return models.TaskLog{}, err
	}
	if changes != nil && *changes != "" {
		if err := json.Unmarshal([]byte(*changes), &l.Changes); err != nil {
			return models.TaskLog{}, err
		}
	}
	return l, nil
}

// GetTaskLogs returns the activity history of one task, oldest first.
func (d *Database) GetTaskLogs(ctx context.Context, taskID int64) ([]models.TaskLog, error) {
	return d.queryLogs(ctx, "history",
		"SELECT "+logColumns+" FROM task_logs WHERE task_id = ? ORDER BY created_at ASC, id ASC", taskID)
}

// GetTaskLogsByEvent filters one task's history by event type.
func (d *Database) GetTaskLogsByEvent(ctx context.Context, taskID int64, event models.LogEvent) ([]models.TaskLog, error) {
	return d.queryLogs(ctx, "history by event",
		"SELECT "+logColumns+" FROM task_logs WHERE task_id = ? AND event_type = ? ORDER BY created_at ASC, id ASC",
		taskID, string(event))
}

// ListLogsSince returns all log entries created at or after the cutoff,
// across tasks, oldest first. Used by activity reports.
func (d *Database) ListLogsSince(ctx context.Context, since time.Time) ([]models.TaskLog, error) {
	return d.queryLogs(ctx, "list since",
		"SELECT "+logColumns+" FROM task_logs WHERE created_at >= ? ORDER BY created_at ASC, id ASC", since.UTC())
}

func (d *Database) queryLogs(ctx context.Context, op string, query string, args ...interface{}) ([]models.TaskLog, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(EntityLog, op, 0, err)
	}
	defer rows.Close()

	var logs []models.TaskLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, wrapErr(EntityLog, op, 0, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(EntityLog, op, 0, err)
	}
	return logs, nil
}

// AddComment appends a comment_added entry to a task's history.
func (d *Database) AddComment(ctx context.Context, taskID int64, userID *int64, comment string) error {
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := taskExistsTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTaskNotFound
		}
		return appendLogTx(ctx, tx, taskID, userID, models.EventCommentAdded, nil, comment)
	})
	return wrapErr(EntityLog, "comment", taskID, err)
}
