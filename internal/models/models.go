package models

import "time"

// TaskStatus enumerates the lifecycle states of a task.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusNext       TaskStatus = "next"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusDone       TaskStatus = "done"
)

// Valid reports whether s is a member of the closed status enumeration.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusNext, StatusInProgress, StatusBlocked, StatusDone:
		return true
	}
	return false
}

// Priority determines display ordering and urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Recurrence is the repeat period of a recurring task.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// LogEvent identifies the kind of mutation a log entry records.
type LogEvent string

// LogEvent values form a closed enumeration; the activity log is the audit
// trail and entries are never rewritten to a different type.
const (
	EventCreated           LogEvent = "created"
	EventUpdated           LogEvent = "updated"
	EventStatusChanged     LogEvent = "status_changed"
	EventPriorityChanged   LogEvent = "priority_changed"
	EventAssigned          LogEvent = "assigned"
	EventCompleted         LogEvent = "completed"
	EventReopened          LogEvent = "reopened"
	EventDeleted           LogEvent = "deleted"
	EventLabelAdded        LogEvent = "label_added"
	EventLabelRemoved      LogEvent = "label_removed"
	EventDependencyAdded   LogEvent = "dependency_added"
	EventDependencyRemoved LogEvent = "dependency_removed"
	EventCommentAdded      LogEvent = "comment_added"
)

// Task represents a single actionable item.
type Task struct {
	ID                 int64
	ParentTaskID       *int64 // subtasks
	Title              string
	Description        *string
	Priority           Priority
	TaskType           *string // free-form tag
	Status             TaskStatus
	PreviousStatus     *TaskStatus // recorded when entering done, for reopen
	Done               bool        // kept in sync with Status == done
	DueAt              *time.Time
	StartDate          *time.Time
	TimelineOrder      *int
	EstimatedMinutes   int
	ActualMinutes      int
	RecurrenceType     Recurrence
	RecurrenceInterval int
	RecurrenceEndDate  *time.Time
	PomodoroEstimate   *int
	PomodoroCompleted  int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
}

// Dependency is a directed "blocked by" edge between two tasks.
type Dependency struct {
	TaskID          int64
	BlockedByTaskID int64
	CreatedAt       time.Time
}

// Label is a reusable tag assignable to many tasks.
type Label struct {
	ID    int64
	Name  string
	Color *string
}

// FieldChange captures a single before/after value in a log payload.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Changes maps field names to their before/after values.
type Changes map[string]FieldChange

// TaskLog is one append-only activity-log entry.
type TaskLog struct {
	ID        int64
	TaskID    int64
	UserID    *int64
	Event     LogEvent
	Changes   Changes // nil for create-type events
	Comment   *string
	CreatedAt time.Time
}
