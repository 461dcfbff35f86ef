package database

import (
	"context"
	"time"

	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

// TaskReader is the read side of the task store.
type TaskReader interface {
	GetTask(ctx context.Context, taskID int64) (models.Task, error)
	GetAllTasks(ctx context.Context) ([]models.Task, error)
	GetOpenTasks(ctx context.Context) ([]models.Task, error)
	GetTasksByStatus(ctx context.Context, status models.TaskStatus) ([]models.Task, error)
	GetSubtasks(ctx context.Context, parentID int64) ([]models.Task, error)
	GetOverdueTasks(ctx context.Context) ([]models.Task, error)
	Search(ctx context.Context, query util.SearchQuery) ([]models.Task, error)
}

// TaskWriter is the write side of the task store.
type TaskWriter interface {
	CreateTask(ctx context.Context, seed TaskSeed) (models.Task, error)
	UpdateTask(ctx context.Context, taskID int64, seed TaskSeed) (models.Task, error)
	UpdateTaskPriority(ctx context.Context, taskID int64, priority models.Priority) error
	SetTimelineOrder(ctx context.Context, taskID int64, order *int) error
	CompletePomodoro(ctx context.Context, taskID int64, minutes int) error
	SetStatus(ctx context.Context, taskID int64, status models.TaskStatus) (models.Task, error)
	ToggleTask(ctx context.Context, taskID int64) (models.Task, error)
	DeleteTask(ctx context.Context, taskID int64) error
}

// DependencyStore manages the blocked-by graph.
type DependencyStore interface {
	AddDependency(ctx context.Context, taskID, blockerID int64) error
	RemoveDependency(ctx context.Context, taskID, blockerID int64) error
	IsBlocked(ctx context.Context, taskID int64) (bool, error)
	BlockedBy(ctx context.Context, taskID int64) ([]models.Task, error)
	Blocking(ctx context.Context, taskID int64) ([]models.Task, error)
	ListDependencies(ctx context.Context) ([]models.Dependency, error)
}

// LabelStore manages labels and their assignments.
type LabelStore interface {
	EnsureLabel(ctx context.Context, name string, color *string) (models.Label, error)
	AssignLabel(ctx context.Context, taskID int64, name string) error
	UnassignLabel(ctx context.Context, taskID int64, name string) error
	GetTaskLabels(ctx context.Context, taskID int64) ([]models.Label, error)
	GetAllLabels(ctx context.Context) ([]models.Label, error)
}

// LogReader exposes the append-only activity log.
type LogReader interface {
	GetTaskLogs(ctx context.Context, taskID int64) ([]models.TaskLog, error)
	GetTaskLogsByEvent(ctx context.Context, taskID int64, event models.LogEvent) ([]models.TaskLog, error)
	ListLogsSince(ctx context.Context, since time.Time) ([]models.TaskLog, error)
	AddComment(ctx context.Context, taskID int64, userID *int64, comment string) error
}

// Repository is the full surface of the task core.
type Repository interface {
	TaskReader
	TaskWriter
	DependencyStore
	LabelStore
	LogReader
	BuildExport(ctx context.Context) (*Export, error)
	ImportExport(ctx context.Context, export *Export) error
}

var _ Repository = (*Database)(nil)
