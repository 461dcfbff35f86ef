package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

// nextOccurrence returns the due date following base for the given rule.
// Daily and weekly steps are plain day arithmetic. Monthly steps keep the
// day-of-month and clamp to the last day when the target month is shorter,
// so a Jan 31 task recurs on Feb 28 rather than drifting into March.
func nextOccurrence(base time.Time, rule models.Recurrence, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch rule {
	case models.RecurrenceDaily:
		return base.AddDate(0, 0, interval)
	case models.RecurrenceWeekly:
		return base.AddDate(0, 0, 7*interval)
	case models.RecurrenceMonthly:
		year, month, day := base.Date()
		target := time.Date(year, month+time.Month(interval), 1, 0, 0, 0, 0, base.Location())
		if last := daysInMonth(target.Year(), target.Month()); day > last {
			day = last
		}
		return time.Date(target.Year(), target.Month(), day,
			base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location())
	default:
		return base
	}
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// spawnNextOccurrenceTx creates the next occurrence of a recurring task as a
// fresh sibling inside the caller's transaction, called when the current
// occurrence enters done. The new task keeps the template fields (title,
// description, priority, type, recurrence rule, estimates) and starts
// over in backlog with zeroed progress. Returns the new task's ID, or false
// when the recurrence has ended or the task does not recur.
func (d *Database) spawnNextOccurrenceTx(ctx context.Context, tx *sql.Tx, cur models.Task) (int64, bool, error) {
	if cur.RecurrenceType == models.RecurrenceNone {
		return 0, false, nil
	}

	base := d.now().UTC()
	if cur.DueAt != nil {
		base = cur.DueAt.UTC()
	}
	next := nextOccurrence(base, cur.RecurrenceType, cur.RecurrenceInterval)
	if cur.RecurrenceEndDate != nil && next.After(cur.RecurrenceEndDate.UTC()) {
		return 0, false, nil
	}

	// The new occurrence is an independent sibling: parent_task_id stays unset
	// even when the completed occurrence was a subtask.
	res, err := tx.ExecContext(ctx, `INSERT INTO tasks
		(title, description, priority, task_type, status, done,
		 due_at, estimated_minutes,
		 recurrence_type, recurrence_interval, recurrence_end_date,
		 pomodoro_estimate)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?)`,
		cur.Title, nullableString(util.Deref(cur.Description)),
		string(cur.Priority), nullableString(util.Deref(cur.TaskType)), string(models.StatusBacklog),
		next, cur.EstimatedMinutes,
		string(cur.RecurrenceType), cur.RecurrenceInterval, toNullableArg(cur.RecurrenceEndDate),
		toNullableArg(cur.PomodoroEstimate))
	if err != nil {
		return 0, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	if err := appendLogTx(ctx, tx, id, nil, models.EventCreated, nil, ""); err != nil {
		return 0, false, err
	}
	return id, true, nil
}
