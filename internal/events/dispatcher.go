// Package events routes unsolicited worker notifications to registered
// handlers.
package events

import (
	"log/slog"
	"slices"
	"sync"
)

// Handler receives an event's name and payload.
type Handler func(name string, data map[string]any)

// Subscription identifies a registered handler so it can be removed.
// Go functions are not comparable, so Off takes the token returned by On
// rather than the handler itself.
type Subscription struct {
	name string
	id   uint64
}

// handlerEntry pairs a handler with its subscription id.
type handlerEntry struct {
	id uint64
	fn Handler
}

// Dispatcher maintains ordered handler lists per event name and invokes them
// synchronously, in registration order. A panicking handler is recovered and
// logged; it never prevents remaining handlers from running or interrupts
// message processing.
type Dispatcher struct {
	log *slog.Logger

	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]handlerEntry
}

// NewDispatcher creates an event dispatcher.
func NewDispatcher(log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		log:      log.With("component", "events"),
		handlers: make(map[string][]handlerEntry),
	}
}

// SetLogger swaps the dispatcher's logger. The dispatcher outlives bridge
// restarts, so the logger arrives with each Start's options.
func (d *Dispatcher) SetLogger(log *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.log = log.With("component", "events")
}

// On appends a handler to the list for an event name and returns its
// subscription token.
func (d *Dispatcher) On(name string, fn Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.handlers[name] = append(d.handlers[name], handlerEntry{id: d.nextID, fn: fn})

	d.log.Debug("Registered event handler", "event", name, "handler_id", d.nextID)

	return Subscription{name: name, id: d.nextID}
}

// Off removes a previously registered handler. Removing an already-removed
// subscription is a no-op.
func (d *Dispatcher) Off(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries := d.handlers[sub.name]
	for i, e := range entries {
		if e.id == sub.id {
			d.handlers[sub.name] = append(entries[:i:i], entries[i+1:]...)

			d.log.Debug("Removed event handler", "event", sub.name, "handler_id", sub.id)

			return
		}
	}
}

// Dispatch invokes every handler registered for the event name, in
// registration order, on the calling goroutine.
func (d *Dispatcher) Dispatch(name string, data map[string]any) {
	// Copy under lock so handlers can mutate registrations from within a
	// dispatch without corrupting iteration.
	d.mu.Lock()
	entries := slices.Clone(d.handlers[name])
	log := d.log
	d.mu.Unlock()

	if len(entries) == 0 {
		log.Debug("No handlers for event", "event", name)

		return
	}

	for _, e := range entries {
		invoke(log, name, data, e)
	}
}

// invoke runs a single handler with panic isolation.
func invoke(log *slog.Logger, name string, data map[string]any, e handlerEntry) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Event handler panicked", "event", name, "handler_id", e.id, "panic", r)
		}
	}()

	e.fn(name, data)
}
