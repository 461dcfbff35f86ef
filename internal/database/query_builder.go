package database

import (
	"fmt"
	"strings"
)

// TaskQuery builds SELECT statements over the tasks table.
type TaskQuery struct {
	columns string
	filters []string
	args    []interface{}
	orderBy string
	limit   int
}

func NewTaskQuery() *TaskQuery {
	return &TaskQuery{columns: taskColumns}
}

func (q *TaskQuery) Where(filter string, args ...interface{}) *TaskQuery {
	q.filters = append(q.filters, filter)
	q.args = append(q.args, args...)
	return q
}

func (q *TaskQuery) WhereStatus(status string) *TaskQuery {
	return q.Where("status = ?", status)
}

func (q *TaskQuery) WhereOpen() *TaskQuery {
	return q.Where("done = 0")
}

func (q *TaskQuery) WhereParent(parentID int64) *TaskQuery {
	return q.Where("parent_task_id = ?", parentID)
}

func (q *TaskQuery) WhereDueBefore(cutoff interface{}) *TaskQuery {
	return q.Where("due_at IS NOT NULL AND due_at < ?", cutoff)
}

func (q *TaskQuery) OrderBy(orderBy string) *TaskQuery {
	q.orderBy = orderBy
	return q
}

func (q *TaskQuery) Limit(limit int) *TaskQuery {
	q.limit = limit
	return q
}

func (q *TaskQuery) Build() (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM tasks", q.columns)
	if len(q.filters) > 0 {
		query += " WHERE " + strings.Join(q.filters, " AND ")
	}
	if q.orderBy != "" {
		query += " ORDER BY " + q.orderBy
	}
	if q.limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.limit)
	}
	return query, q.args
}
