package config

import "context"

// Transport defines the interface for worker process communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative worker hosts.
//
// The default implementation is worker.Transport which spawns the Python
// bridge script as a subprocess.
type Transport interface {
	// Start spawns the worker and prepares it for communication.
	// This is called before any messages are sent or received.
	Start(ctx context.Context) error

	// ReadMessages returns channels for receiving messages and errors.
	// The message channel yields parsed protocol objects from the worker's
	// stdout. The error channel yields a terminal error when the worker
	// process exits unexpectedly. Both channels are closed when reading
	// completes.
	ReadMessages(ctx context.Context) (<-chan map[string]any, <-chan error)

	// SendMessage writes one serialized message to the worker's stdin.
	// A trailing newline is appended if missing. The write is atomic with
	// respect to other SendMessage calls.
	SendMessage(ctx context.Context, data []byte) error

	// Terminate requests graceful termination and escalates to a forced
	// kill if the worker does not exit within the grace period.
	// It's safe to call Terminate multiple times or on an already-exited
	// process.
	Terminate() error

	// IsReady returns true if the worker process is running and stdin is open.
	IsReady() bool
}
