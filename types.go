package nandabridge

import (
	"github.com/jinutvm/nanda-adapter-sdk/internal/bridge"
	"github.com/jinutvm/nanda-adapter-sdk/internal/events"
)

// State is the bridge lifecycle state.
type State = bridge.State

// Bridge lifecycle states.
const (
	// StateStopped means no worker process exists.
	StateStopped = bridge.StateStopped

	// StateStarting means the worker was spawned and the bridge is waiting
	// for its ready signal.
	StateStarting = bridge.StateStarting

	// StateRunning means the worker is ready and commands are accepted.
	StateRunning = bridge.StateRunning

	// StateStopping means Stop was called and no new commands are accepted.
	StateStopping = bridge.StateStopping

	// StateCrashed means the worker exited unexpectedly while running.
	StateCrashed = bridge.StateCrashed
)

// EventHandler receives an event's name and payload.
type EventHandler = events.Handler

// Subscription identifies a registered event handler so it can be removed.
type Subscription = events.Subscription
