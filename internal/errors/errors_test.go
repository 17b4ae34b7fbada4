package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSpawnError_Messages tests both rendering modes.
func TestSpawnError_Messages(t *testing.T) {
	withPaths := &SpawnError{SearchedPaths: []string{"$PATH/python3", "/usr/bin/python3"}}
	require.Contains(t, withPaths.Error(), "python interpreter not found")
	require.Contains(t, withPaths.Error(), "/usr/bin/python3")

	cause := fmt.Errorf("permission denied")
	withCause := &SpawnError{Err: cause}
	require.Contains(t, withCause.Error(), "failed to spawn worker")
	require.ErrorIs(t, withCause, cause)
}

// TestInitTimeoutError_Message tests the timeout rendering.
func TestInitTimeoutError_Message(t *testing.T) {
	err := &InitTimeoutError{Timeout: 10 * time.Second}
	require.Contains(t, err.Error(), "10s")
	require.Contains(t, err.Error(), "ready")
}

// TestCommandTimeoutError_Message tests the per-command timeout rendering.
func TestCommandTimeoutError_Message(t *testing.T) {
	err := &CommandTimeoutError{Command: "get_status", Timeout: 30 * time.Second}
	require.Contains(t, err.Error(), `"get_status"`)
	require.Contains(t, err.Error(), "30s")
}

// TestCommandFailedError_Message tests the worker failure rendering.
func TestCommandFailedError_Message(t *testing.T) {
	err := &CommandFailedError{Command: "start_server", Message: "NANDA not initialized"}
	require.Contains(t, err.Error(), `"start_server"`)
	require.Contains(t, err.Error(), "NANDA not initialized")
}

// TestProcessExitError_Messages tests exit rendering for codes and signals.
func TestProcessExitError_Messages(t *testing.T) {
	byCode := &ProcessExitError{ExitCode: 137, Stderr: "oom"}
	require.Contains(t, byCode.Error(), "137")
	require.Contains(t, byCode.Error(), "oom")

	bySignal := &ProcessExitError{ExitCode: -1, Signal: "killed"}
	require.Contains(t, bySignal.Error(), "signal killed")
}

// TestProcessTerminatedError_UnwrapsToCause tests that the exit detail stays
// reachable through the termination wrapper.
func TestProcessTerminatedError_UnwrapsToCause(t *testing.T) {
	exit := &ProcessExitError{ExitCode: 2, Stderr: "traceback"}
	terminated := &ProcessTerminatedError{Cause: exit}

	var got *ProcessExitError
	require.ErrorAs(t, terminated, &got)
	require.Equal(t, 2, got.ExitCode)
}

// TestProtocolError_Unwrap tests unwrapping of the validation cause.
func TestProtocolError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("invalid payload")
	err := &ProtocolError{Command: "test_improvement", Err: cause}

	require.Contains(t, err.Error(), `"test_improvement"`)
	require.ErrorIs(t, err, cause)
}

// TestBridgeErrorMarker tests the marker interface across the taxonomy.
func TestBridgeErrorMarker(t *testing.T) {
	taxonomy := []error{
		&SpawnError{},
		&InitTimeoutError{},
		&CommandTimeoutError{},
		&CommandFailedError{},
		&ProcessExitError{},
		&ProcessTerminatedError{},
		&ProtocolError{},
	}

	for _, err := range taxonomy {
		var bridgeErr BridgeError

		require.ErrorAs(t, err, &bridgeErr, "%T", err)
		require.True(t, bridgeErr.IsBridgeError())
	}

	// Sentinels are not part of the typed taxonomy.
	var bridgeErr BridgeError

	require.False(t, errors.As(ErrNotRunning, &bridgeErr))
}
