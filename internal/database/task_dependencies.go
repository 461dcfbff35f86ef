package database

import (
	"context"
	"database/sql"

	"github.com/tkessler/daybook/internal/models"
)

// AddDependency records that taskID is blocked by blockerID. The edge is
// rejected when it is a self-reference, a duplicate, or would close a cycle
// in the blocked-by graph.
func (d *Database) AddDependency(ctx context.Context, taskID, blockerID int64) error {
	if taskID == blockerID {
		return wrapErr(EntityDependency, "add", taskID, ErrSelfDependency)
	}
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range []int64{taskID, blockerID} {
			ok, err := taskExistsTx(ctx, tx, id)
			if err != nil {
				return err
			}
			if !ok {
				return ErrTaskNotFound
			}
		}

		cyclic, err := wouldCycleTx(ctx, tx, taskID, blockerID)
		if err != nil {
			return err
		}
		if cyclic {
			return ErrCircularDependency
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_dependencies (task_id, blocked_by_task_id) VALUES (?, ?)",
			taskID, blockerID); err != nil {
			if isConstraintErr(err) {
				return ErrDuplicateDependency
			}
			return err
		}
		changes := models.Changes{"blocked_by": {Old: nil, New: blockerID}}
		return appendLogTx(ctx, tx, taskID, nil, models.EventDependencyAdded, changes, "")
	})
	return wrapErr(EntityDependency, "add", taskID, err)
}

// wouldCycleTx walks the blocked-by graph upward from blockerID and reports
// whether taskID is reachable, which would make the new edge circular.
func wouldCycleTx(ctx context.Context, tx *sql.Tx, taskID, blockerID int64) (bool, error) {
	visited := map[int64]bool{}
	frontier := []int64{blockerID}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		if id == taskID {
			return true, nil
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		rows, err := tx.QueryContext(ctx,
			"SELECT blocked_by_task_id FROM task_dependencies WHERE task_id = ?", id)
		if err != nil {
			return false, err
		}
		for rows.Next() {
			var next int64
			if err := rows.Scan(&next); err != nil {
				rows.Close()
				return false, err
			}
			frontier = append(frontier, next)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return false, err
		}
		rows.Close()
	}
	return false, nil
}

// RemoveDependency deletes the edge if present. Removing a missing edge is
// not an error and leaves no log entry.
func (d *Database) RemoveDependency(ctx context.Context, taskID, blockerID int64) error {
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM task_dependencies WHERE task_id = ? AND blocked_by_task_id = ?",
			taskID, blockerID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		changes := models.Changes{"blocked_by": {Old: blockerID, New: nil}}
		return appendLogTx(ctx, tx, taskID, nil, models.EventDependencyRemoved, changes, "")
	})
	return wrapErr(EntityDependency, "remove", taskID, err)
}

// IsBlocked reports whether the task has at least one blocker that is not
// done. Done blockers do not count.
func (d *Database) IsBlocked(ctx context.Context, taskID int64) (bool, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()

	var exists int
	if err := d.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM tasks WHERE id = ?", taskID).Scan(&exists); err != nil {
		return false, wrapErr(EntityDependency, "blocked check", taskID, err)
	}
	if exists == 0 {
		return false, wrapErr(EntityDependency, "blocked check", taskID, ErrTaskNotFound)
	}

	var open int
	err := d.DB.QueryRowContext(ctx, `SELECT COUNT(1)
		FROM task_dependencies dep
		JOIN tasks blocker ON blocker.id = dep.blocked_by_task_id
		WHERE dep.task_id = ? AND blocker.status != ?`,
		taskID, string(models.StatusDone)).Scan(&open)
	if err != nil {
		return false, wrapErr(EntityDependency, "blocked check", taskID, err)
	}
	return open > 0, nil
}

// BlockedBy returns the tasks blocking taskID, in edge-creation order.
func (d *Database) BlockedBy(ctx context.Context, taskID int64) ([]models.Task, error) {
	return d.queryTasks(ctx, "blocked by", `SELECT `+qualifiedTaskColumns("t")+`
		FROM tasks t
		JOIN task_dependencies dep ON dep.blocked_by_task_id = t.id
		WHERE dep.task_id = ?
		ORDER BY dep.created_at ASC, t.id ASC`, taskID)
}

// ListDependencies returns every edge in the blocked-by graph.
func (d *Database) ListDependencies(ctx context.Context) ([]models.Dependency, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	rows, err := d.DB.QueryContext(ctx,
		"SELECT task_id, blocked_by_task_id, created_at FROM task_dependencies ORDER BY created_at ASC, task_id ASC")
	if err != nil {
		return nil, wrapErr(EntityDependency, "list", 0, err)
	}
	defer rows.Close()

	var deps []models.Dependency
	for rows.Next() {
		var dep models.Dependency
		if err := rows.Scan(&dep.TaskID, &dep.BlockedByTaskID, &dep.CreatedAt); err != nil {
			return nil, wrapErr(EntityDependency, "list", 0, err)
		}
		deps = append(deps, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(EntityDependency, "list", 0, err)
	}
	return deps, nil
}

// Blocking returns the tasks that taskID is blocking.
func (d *Database) Blocking(ctx context.Context, taskID int64) ([]models.Task, error) {
	return d.queryTasks(ctx, "blocking", `SELECT `+qualifiedTaskColumns("t")+`
		FROM tasks t
		JOIN task_dependencies dep ON dep.task_id = t.id
		WHERE dep.blocked_by_task_id = ?
		ORDER BY dep.created_at ASC, t.id ASC`, taskID)
}
