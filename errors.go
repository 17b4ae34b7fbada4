package nandabridge

import "github.com/jinutvm/nanda-adapter-sdk/internal/errors"

// Re-export error types from internal package

// SpawnError indicates the worker process could not be located or launched.
type SpawnError = errors.SpawnError

// InitTimeoutError indicates the worker did not emit a ready message within
// the startup window.
type InitTimeoutError = errors.InitTimeoutError

// CommandTimeoutError indicates no response arrived for a command within the
// per-command window.
type CommandTimeoutError = errors.CommandTimeoutError

// CommandFailedError indicates the worker replied to a command with an error
// status.
type CommandFailedError = errors.CommandFailedError

// ProcessExitError indicates the worker process terminated while commands
// were outstanding.
type ProcessExitError = errors.ProcessExitError

// ProcessTerminatedError is the rejection broadcast to pending commands when
// the bridge resets on crash or stop.
type ProcessTerminatedError = errors.ProcessTerminatedError

// ProtocolError indicates an outbound message could not be produced.
type ProtocolError = errors.ProtocolError

// BridgeError is the base interface for all SDK errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrNotRunning indicates a command was issued while the bridge was not
	// in the Running state.
	ErrNotRunning = errors.ErrNotRunning

	// ErrAlreadyStarted indicates Start was called on a bridge that is
	// already starting or running.
	ErrAlreadyStarted = errors.ErrAlreadyStarted

	// ErrBridgeStopped is the reset cause when the bridge is stopped on
	// purpose rather than crashing.
	ErrBridgeStopped = errors.ErrBridgeStopped
)
