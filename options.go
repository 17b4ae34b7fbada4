package nandabridge

import (
	"log/slog"
	"time"

	"github.com/jinutvm/nanda-adapter-sdk/internal/config"
)

// Option configures a bridge using the functional options pattern.
type Option func(*config.Options)

// applyOptions applies functional options to a config.Options struct.
func applyOptions(opts []Option) *config.Options {
	options := &config.Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for operation tracking.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *config.Options) {
		o.Logger = logger
	}
}

// WithPythonPath sets the explicit path to the python interpreter.
// If not set, python3/python are searched on PATH and common locations.
func WithPythonPath(path string) Option {
	return func(o *config.Options) {
		o.PythonPath = path
	}
}

// WithScriptPath sets the path to the worker bridge script.
// Defaults to python/bridge_wrapper.py.
func WithScriptPath(path string) Option {
	return func(o *config.Options) {
		o.ScriptPath = path
	}
}

// WithCwd sets the working directory for the worker process.
func WithCwd(cwd string) Option {
	return func(o *config.Options) {
		o.Cwd = cwd
	}
}

// WithEnv provides additional environment variables for the worker process.
func WithEnv(env map[string]string) Option {
	return func(o *config.Options) {
		o.Env = env
	}
}

// WithCommandTimeout sets the per-command response window.
// Defaults to 30 seconds.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(o *config.Options) {
		o.CommandTimeout = timeout
	}
}

// WithInitTimeout sets how long Start waits for the worker's ready signal.
// Defaults to 10 seconds.
func WithInitTimeout(timeout time.Duration) Option {
	return func(o *config.Options) {
		o.InitTimeout = timeout
	}
}

// WithStderr streams each line of the worker's stderr output to a callback
// as it arrives.
func WithStderr(fn func(line string)) Option {
	return func(o *config.Options) {
		o.Stderr = fn
	}
}

// WithDiagnostics receives stdout lines that are not protocol messages.
// Such lines are never treated as protocol errors.
func WithDiagnostics(fn func(line string)) Option {
	return func(o *config.Options) {
		o.Diagnostics = fn
	}
}

// WithTransport overrides the default subprocess transport.
// Intended for testing with mock transports.
func WithTransport(t Transport) Option {
	return func(o *config.Options) {
		o.Transport = t
	}
}
