package database

import (
	"context"

	"github.com/tkessler/daybook/internal/events"
	"github.com/tkessler/daybook/internal/models"
	"github.com/tkessler/daybook/internal/util"
)

// Notifier receives completion/reopen events after the owning transaction
// commits. Implemented by *events.Bus.
type Notifier interface {
	Publish(ctx context.Context, e events.Event)
}

func (d *Database) notifyDoneChange(ctx context.Context, t models.Task, entered bool) {
	if d.notifier == nil {
		return
	}
	typ := events.TypeTaskReopened
	if entered {
		typ = events.TypeTaskCompleted
	}
	d.notifier.Publish(ctx, events.Event{
		Type:       typ,
		TaskID:     t.ID,
		TaskType:   util.Deref(t.TaskType),
		OccurredAt: d.now(),
	})
}
