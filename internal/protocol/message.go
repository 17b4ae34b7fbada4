package protocol

import (
	"time"
)

// StatusSuccess is the response status the worker reports on success.
// Any other status rejects the pending request.
const StatusSuccess = "success"

// Request is an outbound command envelope.
//
// Wire format:
//
//	{"id": "01J...", "command": "test_improvement", "data": {...}, "timestamp": "2026-08-24T10:00:00Z"}
type Request struct {
	// ID uniquely identifies this request for response correlation.
	ID string `json:"id"`

	// Command is the operation name from the fixed command vocabulary.
	Command string `json:"command"`

	// Data is the command payload.
	Data map[string]any `json:"data"`

	// Timestamp is the issue time in ISO-8601 format.
	Timestamp string `json:"timestamp"`
}

// NewRequest builds a request envelope with the current time.
// A nil payload is sent as an empty object.
func NewRequest(id, command string, data map[string]any) *Request {
	if data == nil {
		data = map[string]any{}
	}

	return &Request{
		ID:        id,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Response is a reply to a specific outbound command.
type Response struct {
	ID     string
	Status string
	Result any
	Error  string
}

// IsError checks if the response carries an error status.
func (r *Response) IsError() bool {
	return r.Status != StatusSuccess
}

// ParseResponse extracts a response from a decoded inbound message.
// A message is a response when it carries a non-empty string id.
func ParseResponse(msg map[string]any) (*Response, bool) {
	id, ok := msg["id"].(string)
	if !ok || id == "" {
		return nil, false
	}

	resp := &Response{
		ID:     id,
		Result: msg["result"],
	}

	if s, ok := msg["status"].(string); ok {
		resp.Status = s
	}

	if e, ok := msg["error"].(string); ok {
		resp.Error = e
	}

	return resp, true
}

// Event is an unsolicited inbound notification not tied to any request.
type Event struct {
	Name string
	Data map[string]any
}

// ParseEvent extracts an event from a decoded inbound message.
func ParseEvent(msg map[string]any) (*Event, bool) {
	if t, _ := msg["type"].(string); t != "event" {
		return nil, false
	}

	ev := &Event{}

	if n, ok := msg["name"].(string); ok {
		ev.Name = n
	}

	if d, ok := msg["data"].(map[string]any); ok {
		ev.Data = d
	}

	return ev, true
}

// IsReady reports whether the message is the worker's ready signal.
func IsReady(msg map[string]any) bool {
	t, _ := msg["type"].(string)

	return t == "ready"
}

// ReadyMessage extracts the optional human-readable text from a ready signal.
func ReadyMessage(msg map[string]any) string {
	m, _ := msg["message"].(string)

	return m
}
