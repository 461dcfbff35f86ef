package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/tkessler/daybook/internal/util"
)

// Sentinel errors returned by task operations. Callers classify them with
// errors.Is: not-found, invalid-argument, and conflict conditions each have
// their own sentinel; anything else is a storage failure.
var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrLabelNotFound       = errors.New("label not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidPriority     = errors.New("invalid priority")
	ErrInvalidRecurrence   = errors.New("invalid recurrence")
	ErrSelfDependency      = errors.New("task cannot depend on itself")
	ErrCircularDependency  = errors.New("circular dependency")
	ErrDuplicateDependency = errors.New("dependency already exists")
	ErrDuplicateLabel      = errors.New("label already assigned")
)

// Entity names the resource an operation acted on, for error context.
type Entity string

const (
	EntityTask       Entity = "task"
	EntityDependency Entity = "dependency"
	EntityLabel      Entity = "label"
	EntityLog        Entity = "log"
)

// OpError wraps a failure with the operation and resource it occurred on.
type OpError struct {
	Entity Entity
	Op     string
	ID     int64
	Err    error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID > 0 {
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapErr(entity Entity, op string, id int64, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Entity: entity, Op: op, ID: id, Err: err}
}

// isConstraintErr reports whether err is a uniqueness/primary-key violation.
// The storage constraint is the source of truth for duplicate edges and
// label assignments; a violation means "already exists", not a hard failure.
func isConstraintErr(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func rollbackWithLog(tx interface{ Rollback() error }, err error) error {
	util.LogError("rollback", tx.Rollback())
	return err
}
