package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/tkessler/daybook/internal/models"
)

// EnsureLabel returns the label with the given name, creating it first if
// necessary. Names are case-sensitive and stored trimmed.
func (d *Database) EnsureLabel(ctx context.Context, name string, color *string) (models.Label, error) {
	name = strings.TrimSpace(name)
	var out models.Label
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		l, err := getLabelByNameTx(ctx, tx, name)
		if err == nil {
			out = l
			return nil
		}
		if !errors.Is(err, ErrLabelNotFound) {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO labels (name, color) VALUES (?, ?)", name, toNullableArg(color))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out = models.Label{ID: id, Name: name, Color: color}
		return nil
	})
	if err != nil {
		return models.Label{}, wrapErr(EntityLabel, "ensure", 0, err)
	}
	return out, nil
}

func getLabelByNameTx(ctx context.Context, tx *sql.Tx, name string) (models.Label, error) {
	var l models.Label
	err := tx.QueryRowContext(ctx,
		"SELECT id, name, color FROM labels WHERE name = ?", name).
		Scan(&l.ID, &l.Name, &l.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Label{}, ErrLabelNotFound
	}
	return l, err
}

// AssignLabel attaches a label to a task, creating the label on first use.
// Assigning a label the task already carries is a conflict.
func (d *Database) AssignLabel(ctx context.Context, taskID int64, name string) error {
	name = strings.TrimSpace(name)
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := taskExistsTx(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTaskNotFound
		}

		label, err := getLabelByNameTx(ctx, tx, name)
		if errors.Is(err, ErrLabelNotFound) {
			res, insErr := tx.ExecContext(ctx, "INSERT INTO labels (name) VALUES (?)", name)
			if insErr != nil {
				return insErr
			}
			id, insErr := res.LastInsertId()
			if insErr != nil {
				return insErr
			}
			label = models.Label{ID: id, Name: name}
		} else if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_label_map (task_id, label_id) VALUES (?, ?)",
			taskID, label.ID); err != nil {
			if isConstraintErr(err) {
				return ErrDuplicateLabel
			}
			return err
		}
		changes := models.Changes{"label": {Old: nil, New: name}}
		return appendLogTx(ctx, tx, taskID, nil, models.EventLabelAdded, changes, "")
	})
	return wrapErr(EntityLabel, "assign", taskID, err)
}

// UnassignLabel detaches a label from a task. Detaching a label the task
// does not carry is not an error and leaves no log entry.
func (d *Database) UnassignLabel(ctx context.Context, taskID int64, name string) error {
	name = strings.TrimSpace(name)
	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM task_label_map
			WHERE task_id = ? AND label_id = (SELECT id FROM labels WHERE name = ?)`,
			taskID, name)
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
		changes := models.Changes{"label": {Old: name, New: nil}}
		return appendLogTx(ctx, tx, taskID, nil, models.EventLabelRemoved, changes, "")
	})
	return wrapErr(EntityLabel, "unassign", taskID, err)
}

// GetTaskLabels returns a task's labels sorted by name.
func (d *Database) GetTaskLabels(ctx context.Context, taskID int64) ([]models.Label, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	rows, err := d.DB.QueryContext(ctx, `SELECT l.id, l.name, l.color
		FROM labels l
		JOIN task_label_map m ON m.label_id = l.id
		WHERE m.task_id = ?
		ORDER BY l.name ASC`, taskID)
	if err != nil {
		return nil, wrapErr(EntityLabel, "list", taskID, err)
	}
	defer rows.Close()

	var labels []models.Label
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, wrapErr(EntityLabel, "list", taskID, err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(EntityLabel, "list", taskID, err)
	}
	return labels, nil
}

// GetAllLabels returns every label sorted by name.
func (d *Database) GetAllLabels(ctx context.Context) ([]models.Label, error) {
	ctx, cancel := d.withTimeout(ctx, defaultDBTimeout)
	defer cancel()
	rows, err := d.DB.QueryContext(ctx,
		"SELECT id, name, color FROM labels ORDER BY name ASC")
	if err != nil {
		return nil, wrapErr(EntityLabel, "list all", 0, err)
	}
	defer rows.Close()

	var labels []models.Label
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, wrapErr(EntityLabel, "list all", 0, err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(EntityLabel, "list all", 0, err)
	}
	return labels, nil
}
