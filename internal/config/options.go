// Package config provides configuration types for the NANDA bridge SDK.
package config

import (
	"log/slog"
	"time"
)

const (
	// DefaultCommandTimeout is the per-command response window.
	DefaultCommandTimeout = 30 * time.Second

	// DefaultInitTimeout is the window for the worker's ready signal.
	DefaultInitTimeout = 10 * time.Second
)

// Options holds configuration for a bridge instance.
//
// The zero value is usable: the python interpreter is discovered on PATH,
// the bundled bridge script is expected at python/bridge_wrapper.py relative
// to the working directory, and logging is disabled.
type Options struct {
	// Logger receives debug, info, warn, and error messages during bridge
	// operations. If nil, logging is disabled.
	Logger *slog.Logger

	// PythonPath is an explicit path to the python interpreter.
	// If empty, python3/python are searched on PATH and common locations.
	PythonPath string

	// ScriptPath is the path to the worker bridge script.
	ScriptPath string

	// Cwd is the working directory for the worker process.
	// If empty, the current working directory is used.
	Cwd string

	// Env provides additional environment variables for the worker process.
	Env map[string]string

	// CommandTimeout is the per-command response window.
	// Zero selects DefaultCommandTimeout.
	CommandTimeout time.Duration

	// InitTimeout is how long Start waits for the worker's ready signal.
	// Zero selects DefaultInitTimeout.
	InitTimeout time.Duration

	// Stderr receives each line of the worker's stderr output as it arrives.
	Stderr func(line string)

	// Diagnostics receives stdout lines that are not protocol messages.
	// Such lines are never treated as errors.
	Diagnostics func(line string)

	// Transport overrides the default subprocess transport.
	// Used for testing with mock transports.
	Transport Transport
}

// CommandTimeoutOrDefault returns the configured command timeout or the default.
func (o *Options) CommandTimeoutOrDefault() time.Duration {
	if o.CommandTimeout > 0 {
		return o.CommandTimeout
	}

	return DefaultCommandTimeout
}

// InitTimeoutOrDefault returns the configured init timeout or the default.
func (o *Options) InitTimeoutOrDefault() time.Duration {
	if o.InitTimeout > 0 {
		return o.InitTimeout
	}

	return DefaultInitTimeout
}
