// Package events carries completion notifications out of the task core so
// adjacent features (study-module progress, UI refresh) can react without
// the core calling into them directly.
package events

import (
	"context"
	"sync"
	"time"
)

// Type discriminates the events the task core emits.
type Type string

const (
	TypeTaskCompleted Type = "task_completed"
	TypeTaskReopened  Type = "task_reopened"
)

// Event describes a task crossing the done boundary.
type Event struct {
	Type       Type
	TaskID     int64
	TaskType   string
	OccurredAt time.Time
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine.
type Handler func(ctx context.Context, e Event)

type handlerEntry struct {
	id      int
	handler Handler
}

// Bus is a thread-safe in-process event bus.
type Bus struct {
	mu      sync.RWMutex
	entries []handlerEntry
	nextID  int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish delivers e to every subscriber.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.entries))
	for _, entry := range b.entries {
		targets = append(targets, entry.handler)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(ctx, e)
	}
}

// Subscribe registers a handler. The returned function unsubscribes it.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.entries = append(b.entries, handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		filtered := b.entries[:0]
		for _, entry := range b.entries {
			if entry.id != id {
				filtered = append(filtered, entry)
			}
		}
		b.entries = filtered
	}
}
