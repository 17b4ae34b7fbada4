package errors

import (
	"errors"
	"fmt"
	"time"
)

// BridgeError is the base interface for all SDK errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*SpawnError)(nil)
	_ BridgeError = (*InitTimeoutError)(nil)
	_ BridgeError = (*CommandTimeoutError)(nil)
	_ BridgeError = (*CommandFailedError)(nil)
	_ BridgeError = (*ProcessExitError)(nil)
	_ BridgeError = (*ProcessTerminatedError)(nil)
	_ BridgeError = (*ProtocolError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotRunning indicates a command was issued while the bridge was not
	// in the Running state.
	ErrNotRunning = errors.New("bridge not running")

	// ErrAlreadyStarted indicates Start was called on a bridge that is
	// already starting or running.
	ErrAlreadyStarted = errors.New("bridge already started")

	// ErrTransportNotConnected indicates the worker transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrStdinClosed indicates the worker's stdin was closed.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrBridgeStopped is the reset cause when the bridge is stopped on
	// purpose rather than crashing.
	ErrBridgeStopped = errors.New("bridge stopped")
)

// SpawnError indicates the worker process could not be located or launched.
type SpawnError struct {
	// SearchedPaths lists the locations searched when the interpreter was
	// not found. Empty if the failure happened after discovery.
	SearchedPaths []string

	Err error
}

func (e *SpawnError) Error() string {
	if len(e.SearchedPaths) > 0 {
		return fmt.Sprintf("python interpreter not found in: %v", e.SearchedPaths)
	}

	return fmt.Sprintf("failed to spawn worker: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *SpawnError) IsBridgeError() bool { return true }

// InitTimeoutError indicates the worker did not emit a ready message within
// the startup window.
type InitTimeoutError struct {
	Timeout time.Duration
}

func (e *InitTimeoutError) Error() string {
	return fmt.Sprintf("worker did not signal ready within %s", e.Timeout)
}

// IsBridgeError implements BridgeError.
func (e *InitTimeoutError) IsBridgeError() bool { return true }

// CommandTimeoutError indicates no response arrived for a command within the
// per-command window. The worker-side operation may still complete; its late
// response will be discarded.
type CommandTimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *CommandTimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

// IsBridgeError implements BridgeError.
func (e *CommandTimeoutError) IsBridgeError() bool { return true }

// CommandFailedError indicates the worker replied to a command with an error
// status.
type CommandFailedError struct {
	Command string
	Message string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command %q failed: %s", e.Command, e.Message)
}

// IsBridgeError implements BridgeError.
func (e *CommandFailedError) IsBridgeError() bool { return true }

// ProcessExitError indicates the worker process terminated while commands
// were outstanding.
type ProcessExitError struct {
	ExitCode int
	Signal   string
	Stderr   string
	Err      error
}

func (e *ProcessExitError) Error() string {
	if e.Signal != "" {
		return fmt.Sprintf("worker process exited (signal %s): %s", e.Signal, e.Stderr)
	}

	if e.Err != nil {
		return fmt.Sprintf("worker process exited (code %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("worker process exited (code %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessExitError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProcessExitError) IsBridgeError() bool { return true }

// ProcessTerminatedError is the rejection broadcast to every pending command
// when the bridge resets, either on crash or on stop. Cause carries the
// underlying reason, typically a *ProcessExitError.
type ProcessTerminatedError struct {
	Cause error
}

func (e *ProcessTerminatedError) Error() string {
	return fmt.Sprintf("bridge terminated: %v", e.Cause)
}

func (e *ProcessTerminatedError) Unwrap() error {
	return e.Cause
}

// IsBridgeError implements BridgeError.
func (e *ProcessTerminatedError) IsBridgeError() bool { return true }

// ProtocolError indicates an outbound message could not be produced, either
// because the payload failed command schema validation or because
// serialization failed.
type ProtocolError struct {
	Command string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error for command %q: %v", e.Command, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProtocolError) IsBridgeError() bool { return true }
