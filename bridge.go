package nandabridge

import (
	"context"
)

// Bridge supervises one worker process and exposes the command API.
//
// Exactly one worker exists per bridge. Bridges are restartable: after a
// crash or a stop, a fresh Start spawns a new worker. Event handler
// registrations survive restarts.
type Bridge interface {
	// Start spawns the worker and waits for its ready signal.
	// Returns a SpawnError if the worker cannot launch, an InitTimeoutError
	// if no ready signal arrives within the startup window, or
	// ErrAlreadyStarted if the bridge is already starting or running.
	Start(ctx context.Context, opts ...Option) error

	// Execute sends a command with a payload and waits for the worker's
	// reply. Allowed only while Running; otherwise fails immediately with
	// ErrNotRunning. Each call is tracked independently by correlation id
	// with its own timeout, so any number of commands may be outstanding
	// concurrently and replies may arrive out of order.
	Execute(ctx context.Context, command string, data map[string]any) (any, error)

	// OnEvent registers a handler for a named worker event. Handlers for a
	// name run synchronously in registration order.
	OnEvent(name string, fn EventHandler) Subscription

	// OffEvent removes a previously registered handler. Removing an
	// already-removed subscription is a no-op.
	OffEvent(sub Subscription)

	// State returns the current lifecycle state.
	State() State

	// Stop shuts the bridge down: a best-effort shutdown command, then
	// graceful termination escalating to a forced kill. Idempotent.
	Stop(ctx context.Context) error

	// RegisterLogic selects the worker's improvement logic by name.
	// Customization travels as data, never as injected code.
	RegisterLogic(ctx context.Context, name string) error

	// StartServer starts the worker's agent server in the background.
	StartServer(ctx context.Context) error

	// StartServerAPI starts the worker's API server and returns the
	// enrollment link for the agent.
	StartServerAPI(ctx context.Context, cfg ServerAPIConfig) (string, error)

	// TestImprovement runs a message through the registered improvement
	// logic and returns the improved text.
	TestImprovement(ctx context.Context, message string) (string, error)

	// GetStatus reports the worker's view of its own state.
	GetStatus(ctx context.Context) (*Status, error)

	// StopServer stops the worker's background server without stopping the
	// worker itself.
	StopServer(ctx context.Context) error
}

// New creates a bridge in the Stopped state.
//
// Call Start with options to spawn the worker:
//
//	b := nandabridge.New()
//	err := b.Start(ctx, nandabridge.WithLogger(slog.Default()))
func New() Bridge {
	return newBridgeImpl()
}
