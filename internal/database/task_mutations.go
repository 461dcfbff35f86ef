package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tkessler/daybook/internal/config"
	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

// TaskSeed carries the writable fields for creating or replacing a task.
type TaskSeed struct {
	Title              string
	Description        string
	Priority           models.Priority
	TaskType           string
	Status             models.TaskStatus
	DueAt              *time.Time
	StartDate          *time.Time
	EstimatedMinutes   int
	Recurrence         models.Recurrence
	RecurrenceInterval int
	RecurrenceEndDate  *time.Time
	ParentTaskID       *int64
	PomodoroEstimate   *int
}

func (s *TaskSeed) normalize() error {
	s.Title = strings.TrimSpace(s.Title)
	if s.Priority == "" {
		s.Priority = models.PriorityMedium
	}
	if s.Status == "" {
		s.Status = models.StatusBacklog
	}
	if s.Recurrence == "" {
		s.Recurrence = models.RecurrenceNone
	}
	if s.RecurrenceInterval == 0 {
		s.RecurrenceInterval = config.MinRecurrenceInterval
	}
	s.RecurrenceInterval = util.Clamp(s.RecurrenceInterval, config.MinRecurrenceInterval, config.MaxRecurrenceInterval)
	switch {
	case !s.Priority.Valid():
		return ErrInvalidPriority
	case !s.Status.Valid():
		return ErrInvalidStatus
	case !s.Recurrence.Valid():
		return ErrInvalidRecurrence
	}
	return nil
}

// CreateTask inserts a new task and its created log entry, returning the
// stored snapshot.
func (d *Database) CreateTask(ctx context.Context, seed TaskSeed) (models.Task, error) {
	if err := seed.normalize(); err != nil {
		return models.Task{}, wrapErr(EntityTask, "create", 0, err)
	}

	var out models.Task
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		if seed.ParentTaskID != nil {
			ok, err := taskExistsTx(ctx, tx, *seed.ParentTaskID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrTaskNotFound
			}
		}

		done := seed.Status == models.StatusDone
		var completedAt interface{}
		if done {
			completedAt = d.now().UTC()
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO tasks
			(parent_task_id, title, description, priority, task_type, status, done,
			 due_at, start_date, estimated_minutes,
			 recurrence_type, recurrence_interval, recurrence_end_date,
			 pomodoro_estimate, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			toNullableArg(seed.ParentTaskID), seed.Title, nullableString(seed.Description),
			string(seed.Priority), nullableString(seed.TaskType), string(seed.Status),
			util.BoolToInt(done),
			toNullableArg(seed.DueAt), toNullableArg(seed.StartDate), seed.EstimatedMinutes,
			string(seed.Recurrence), seed.RecurrenceInterval, toNullableArg(seed.RecurrenceEndDate),
			toNullableArg(seed.PomodoroEstimate), completedAt)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := appendLogTx(ctx, tx, id, nil, models.EventCreated, nil, ""); err != nil {
			return err
		}
		out, err = getTaskTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, wrapErr(EntityTask, "create", 0, err)
	}
	return out, nil
}

// UpdateTask replaces a task's writable scalar fields and appends an
// updated log entry holding the before/after diff. Status and done are not
// touched here; they belong to SetStatus/ToggleTask.
func (d *Database) UpdateTask(ctx context.Context, taskID int64, seed TaskSeed) (models.Task, error) {
	if err := seed.normalize(); err != nil {
		return models.Task{}, wrapErr(EntityTask, "update", taskID, err)
	}

	var out models.Task
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		before, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET
			title = ?, description = ?, priority = ?, task_type = ?,
			due_at = ?, start_date = ?, estimated_minutes = ?,
			recurrence_type = ?, recurrence_interval = ?, recurrence_end_date = ?,
			pomodoro_estimate = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			seed.Title, nullableString(seed.Description), string(seed.Priority),
			nullableString(seed.TaskType),
			toNullableArg(seed.DueAt), toNullableArg(seed.StartDate), seed.EstimatedMinutes,
			string(seed.Recurrence), seed.RecurrenceInterval, toNullableArg(seed.RecurrenceEndDate),
			toNullableArg(seed.PomodoroEstimate), taskID)
		if err != nil {
			return err
		}
		after, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := appendLogTx(ctx, tx, taskID, nil, models.EventUpdated, diffTasks(before, after), ""); err != nil {
			return err
		}
		out = after
		return nil
	})
	if err != nil {
		return models.Task{}, wrapErr(EntityTask, "update", taskID, err)
	}
	return out, nil
}

// UpdateTaskPriority changes only the priority, logging priority_changed.
func (d *Database) UpdateTaskPriority(ctx context.Context, taskID int64, priority models.Priority) error {
	if !priority.Valid() {
		return wrapErr(EntityTask, "update priority", taskID, ErrInvalidPriority)
	}
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		before, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			string(priority), taskID); err != nil {
			return err
		}
		changes := models.Changes{"priority": {Old: string(before.Priority), New: string(priority)}}
		return appendLogTx(ctx, tx, taskID, nil, models.EventPriorityChanged, changes, "")
	})
	return wrapErr(EntityTask, "update priority", taskID, err)
}

// SetTimelineOrder moves a task within the user-controlled timeline sort.
// A nil order removes the task from the ordered timeline.
func (d *Database) SetTimelineOrder(ctx context.Context, taskID int64, order *int) error {
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		before, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE tasks SET timeline_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			toNullableArg(order), taskID); err != nil {
			return err
		}
		changes := models.Changes{"timeline_order": {Old: intPtrValue(before.TimelineOrder), New: intPtrValue(order)}}
		return appendLogTx(ctx, tx, taskID, nil, models.EventUpdated, changes, "")
	})
	return wrapErr(EntityTask, "set timeline order", taskID, err)
}

// CompletePomodoro records one finished pomodoro against the task and adds
// the session minutes to actual effort.
func (d *Database) CompletePomodoro(ctx context.Context, taskID int64, minutes int) error {
	if minutes < 0 {
		minutes = 0
	}
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		before, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET
			pomodoro_completed = pomodoro_completed + 1,
			actual_minutes = actual_minutes + ?,
			updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, minutes, taskID); err != nil {
			return err
		}
		changes := models.Changes{
			"pomodoro_completed": {Old: before.PomodoroCompleted, New: before.PomodoroCompleted + 1},
			"actual_minutes":     {Old: before.ActualMinutes, New: before.ActualMinutes + minutes},
		}
		return appendLogTx(ctx, tx, taskID, nil, models.EventUpdated, changes, "")
	})
	return wrapErr(EntityTask, "complete pomodoro", taskID, err)
}

// SetStatus moves a task to any status in the enumeration. Transitions are
// unrestricted; the only bookkeeping is around the done boundary: entering
// done records previous_status, sets the done flag and completed_at, and
// expands recurrence in the same transaction; leaving done clears them.
func (d *Database) SetStatus(ctx context.Context, taskID int64, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, wrapErr(EntityTask, "set status", taskID, ErrInvalidStatus)
	}

	var out models.Task
	var entered, left bool
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}

		entering := status == models.StatusDone && cur.Status != models.StatusDone
		leaving := status != models.StatusDone && cur.Status == models.StatusDone
		switch {
		case entering:
			_, err = tx.ExecContext(ctx, `UPDATE tasks SET
				status = ?, previous_status = ?, done = 1, completed_at = ?,
				updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				string(status), string(cur.Status), d.now().UTC(), taskID)
		case leaving:
			_, err = tx.ExecContext(ctx, `UPDATE tasks SET
				status = ?, previous_status = NULL, done = 0, completed_at = NULL,
				updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				string(status), taskID)
		default:
			_, err = tx.ExecContext(ctx,
				"UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
				string(status), taskID)
		}
		if err != nil {
			return err
		}

		changes := models.Changes{"status": {Old: string(cur.Status), New: string(status)}}
		if err := appendLogTx(ctx, tx, taskID, nil, models.EventStatusChanged, changes, ""); err != nil {
			return err
		}

		if entering && cur.RecurrenceType != models.RecurrenceNone {
			if _, _, err := d.spawnNextOccurrenceTx(ctx, tx, cur); err != nil {
				return err
			}
		}

		out, err = getTaskTx(ctx, tx, taskID)
		entered, left = entering, leaving
		return err
	})
	if err != nil {
		return models.Task{}, wrapErr(EntityTask, "set status", taskID, err)
	}
	if entered || left {
		d.notifyDoneChange(ctx, out, entered)
	}
	return out, nil
}

// ToggleTask flips a task between done and its recorded previous status
// (backlog when none was recorded), logging completed or reopened.
func (d *Database) ToggleTask(ctx context.Context, taskID int64) (models.Task, error) {
	var out models.Task
	var entered bool
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTaskTx(ctx, tx, taskID)
		if err != nil {
			return err
		}

		if cur.Done {
			target := models.StatusBacklog
			if cur.PreviousStatus != nil {
				target = *cur.PreviousStatus
			}
			if _, err := tx.ExecContext(ctx, `UPDATE tasks SET
				status = ?, previous_status = NULL, done = 0, completed_at = NULL,
				updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				string(target), taskID); err != nil {
				return err
			}
			changes := models.Changes{"status": {Old: string(cur.Status), New: string(target)}}
			if err := appendLogTx(ctx, tx, taskID, nil, models.EventReopened, changes, ""); err != nil {
				return err
			}
		} else {
			if _, err := tx.ExecContext(ctx, `UPDATE tasks SET
				status = ?, previous_status = ?, done = 1, completed_at = ?,
				updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
				string(models.StatusDone), string(cur.Status), d.now().UTC(), taskID); err != nil {
				return err
			}
			changes := models.Changes{"status": {Old: string(cur.Status), New: string(models.StatusDone)}}
			if err := appendLogTx(ctx, tx, taskID, nil, models.EventCompleted, changes, ""); err != nil {
				return err
			}
			if cur.RecurrenceType != models.RecurrenceNone {
				if _, _, err := d.spawnNextOccurrenceTx(ctx, tx, cur); err != nil {
					return err
				}
			}
		}

		out, err = getTaskTx(ctx, tx, taskID)
		entered = !cur.Done
		return err
	})
	if err != nil {
		return models.Task{}, wrapErr(EntityTask, "toggle", taskID, err)
	}
	d.notifyDoneChange(ctx, out, entered)
	return out, nil
}

// DeleteTask removes a task. Dependency edges (both directions), label
// assignments, subtasks, and log rows go with it via cascade.
func (d *Database) DeleteTask(ctx context.Context, taskID int64) error {
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := taskExistsTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTaskNotFound
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID)
		return err
	})
	return wrapErr(EntityTask, "delete", taskID, err)
}

func diffTasks(before, after models.Task) models.Changes {
	changes := models.Changes{}
	record := func(field string, old, new interface{}) {
		if old != new {
			changes[field] = models.FieldChange{Old: old, New: new}
		}
	}
	record("title", before.Title, after.Title)
	record("description", util.Deref(before.Description), util.Deref(after.Description))
	record("priority", string(before.Priority), string(after.Priority))
	record("task_type", util.Deref(before.TaskType), util.Deref(after.TaskType))
	record("due_at", timePtrValue(before.DueAt), timePtrValue(after.DueAt))
	record("start_date", timePtrValue(before.StartDate), timePtrValue(after.StartDate))
	record("estimated_minutes", before.EstimatedMinutes, after.EstimatedMinutes)
	record("recurrence_type", string(before.RecurrenceType), string(after.RecurrenceType))
	record("recurrence_interval", before.RecurrenceInterval, after.RecurrenceInterval)
	record("recurrence_end_date", timePtrValue(before.RecurrenceEndDate), timePtrValue(after.RecurrenceEndDate))
	record("pomodoro_estimate", intPtrValue(before.PomodoroEstimate), intPtrValue(after.PomodoroEstimate))
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func timePtrValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func intPtrValue(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
