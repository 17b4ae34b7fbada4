// Package worker provides the subprocess transport for the Python bridge.
//
// This package implements the Transport interface by spawning the bridge
// script under a Python interpreter and communicating via stdin/stdout. It
// handles interpreter discovery, process lifecycle, line framing, and
// graceful/forced termination. Stdout lines that are not protocol messages
// are forwarded as diagnostics and never abort the read loop.
package worker
