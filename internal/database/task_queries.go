package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tkessler/daybook/internal/config"
	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

// placeholders returns n comma-joined SQL placeholders.
func placeholders(n int) string {
	return strings.TrimRight(strings.Repeat("?,", n), ",")
}

const taskColumns = `id, parent_task_id, title, description, priority, task_type, status, previous_status, done,
	due_at, start_date, timeline_order, estimated_minutes, actual_minutes,
	recurrence_type, recurrence_interval, recurrence_end_date,
	pomodoro_estimate, pomodoro_completed, created_at, updated_at, completed_at`

// qualifiedTaskColumns prefixes every task column with a table alias for use
// in joins where column names would otherwise be ambiguous.
func qualifiedTaskColumns(alias string) string {
	cols := strings.Split(taskColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var t models.Task
	var done int
	var prev *string
	if err := row.Scan(
		&t.ID,
		&t.ParentTaskID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.TaskType,
		&t.Status,
		&prev,
		&done,
		&t.DueAt,
		&t.StartDate,
		&t.TimelineOrder,
		&t.EstimatedMinutes,
		&t.ActualMinutes,
		&t.RecurrenceType,
		&t.RecurrenceInterval,
		&t.RecurrenceEndDate,
		&t.PomodoroEstimate,
		&t.PomodoroCompleted,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	); err != nil {
		return models.Task{}, err
	}
	t.Done = util.IntToBool(done)
	if prev != nil {
		s := models.TaskStatus(*prev)
		t.PreviousStatus = &s
	}
	return t, nil
}

// GetTask retrieves a single task by ID.
func (d *Database) GetTask(ctx context.Context, taskID int64) (models.Task, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = ?", taskColumns)
	t, err := scanTask(d.DB.QueryRowContext(ctx, query, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, wrapErr(EntityTask, "get", taskID, ErrTaskNotFound)
	}
	if err != nil {
		return models.Task{}, wrapErr(EntityTask, "get", taskID, err)
	}
	return t, nil
}

func getTaskTx(ctx context.Context, tx *sql.Tx, taskID int64) (models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = ?", taskColumns)
	t, err := scanTask(tx.QueryRowContext(ctx, query, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	return t, err
}

func taskExistsTx(ctx context.Context, tx *sql.Tx, taskID int64) (bool, error) {
	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM tasks WHERE id = ?", taskID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetAllTasks returns every task, subtasks included, in creation order.
func (d *Database) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	query, args := NewTaskQuery().OrderBy("created_at ASC, id ASC").Build()
	return d.queryTasks(ctx, "list all", query, args...)
}

// GetOpenTasks returns not-done tasks ordered for display: timeline order
// first when set, then due date, then creation.
func (d *Database) GetOpenTasks(ctx context.Context) ([]models.Task, error) {
	query, args := NewTaskQuery().
		WhereOpen().
		OrderBy("timeline_order IS NULL, timeline_order ASC, due_at IS NULL, due_at ASC, created_at ASC").
		Build()
	return d.queryTasks(ctx, "list open", query, args...)
}

// GetTasksByStatus returns tasks in a given status.
func (d *Database) GetTasksByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	if !status.Valid() {
		return nil, wrapErr(EntityTask, "list status", 0, ErrInvalidStatus)
	}
	query, args := NewTaskQuery().
		WhereStatus(string(status)).
		OrderBy("timeline_order IS NULL, timeline_order ASC, created_at ASC").
		Build()
	return d.queryTasks(ctx, "list status", query, args...)
}

// GetSubtasks returns the direct children of a task.
func (d *Database) GetSubtasks(ctx context.Context, parentID int64) ([]models.Task, error) {
	query, args := NewTaskQuery().
		WhereParent(parentID).
		OrderBy("created_at ASC").
		Build()
	return d.queryTasks(ctx, "list subtasks", query, args...)
}

// GetOverdueTasks returns open tasks whose due date is in the past.
func (d *Database) GetOverdueTasks(ctx context.Context) ([]models.Task, error) {
	query, args := NewTaskQuery().
		WhereOpen().
		WhereDueBefore(d.now().UTC()).
		OrderBy("due_at ASC").
		Build()
	return d.queryTasks(ctx, "list overdue", query, args...)
}

// Search filters tasks by a parsed query: status:, priority:, type:, label:
// terms plus free text matched against the title.
func (d *Database) Search(ctx context.Context, query util.SearchQuery) ([]models.Task, error) {
	q := NewTaskQuery()

	if len(query.Status) > 0 {
		args := make([]interface{}, len(query.Status))
		for i, s := range query.Status {
			args[i] = s
		}
		q.Where("status IN ("+placeholders(len(args))+")", args...)
	}
	if len(query.Priority) > 0 {
		args := make([]interface{}, len(query.Priority))
		for i, p := range query.Priority {
			args[i] = p
		}
		q.Where("priority IN ("+placeholders(len(args))+")", args...)
	}
	for _, typ := range query.Types {
		q.Where("task_type = ?", typ)
	}
	for _, label := range query.Labels {
		q.Where(`id IN (
			SELECT m.task_id FROM task_label_map m
			JOIN labels l ON l.id = m.label_id
			WHERE l.name = ?)`, label)
	}
	for _, term := range query.Text {
		q.Where("title LIKE ?", "%"+term+"%")
	}

	sqlStr, args := q.OrderBy("created_at DESC, id DESC").Limit(config.SearchResultLimit).Build()
	return d.queryTasks(ctx, "search", sqlStr, args...)
}

func (d *Database) queryTasks(ctx context.Context, op string, query string, args ...interface{}) ([]models.Task, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(EntityTask, op, 0, err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrapErr(EntityTask, op, 0, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(EntityTask, op, 0, err)
	}
	return tasks, nil
}
