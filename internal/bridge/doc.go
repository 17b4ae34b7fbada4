// Package bridge implements the controller state machine that supervises the
// Python worker.
//
// The controller composes the worker transport, the request correlator, and
// the event dispatcher. It owns the single read loop that consumes the
// worker's output stream and routes each message: the ready signal completes
// Start, responses settle their pending requests by correlation id, and
// events fan out to registered handlers.
//
// Shared state is mutated only by the read loop and the public entry points,
// serialized by a mutex, so every pending request settles exactly once.
package bridge
