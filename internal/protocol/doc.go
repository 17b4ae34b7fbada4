// Package protocol implements the wire envelope and request correlation for
// the NANDA bridge.
//
// The wire format is newline-delimited UTF-8 JSON. Outbound messages carry a
// correlation id, a command name, a data payload, and a timestamp. Inbound
// messages are one of three kinds: a ready signal emitted once when the
// worker finishes initializing, a response correlated to a specific request
// by id, or an unsolicited event.
//
// The Correlator tracks outstanding requests by id, enforces per-request
// timeouts, and guarantees each request settles exactly once.
package protocol
