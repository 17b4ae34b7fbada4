package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewRequest_Shape tests the outbound envelope fields.
func TestNewRequest_Shape(t *testing.T) {
	req := NewRequest("01ABC", CmdTestImprovement, map[string]any{"message": "hi"})

	require.Equal(t, "01ABC", req.ID)
	require.Equal(t, CmdTestImprovement, req.Command)
	require.Equal(t, "hi", req.Data["message"])

	ts, err := time.Parse(time.RFC3339Nano, req.Timestamp)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), ts, 5*time.Second)
}

// TestNewRequest_NilDataBecomesEmptyObject tests that a nil payload is sent
// as {} rather than null.
func TestNewRequest_NilDataBecomesEmptyObject(t *testing.T) {
	req := NewRequest("01ABC", CmdGetStatus, nil)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"data":{}`)
}

// TestParseResponse_Classification tests response detection by message shape.
func TestParseResponse_Classification(t *testing.T) {
	tests := []struct {
		name string
		msg  map[string]any
		want bool
	}{
		{
			name: "response with id",
			msg:  map[string]any{"id": "req-1", "status": "success"},
			want: true,
		},
		{
			name: "empty id",
			msg:  map[string]any{"id": "", "status": "success"},
			want: false,
		},
		{
			name: "non-string id",
			msg:  map[string]any{"id": 42.0, "status": "success"},
			want: false,
		},
		{
			name: "event",
			msg:  map[string]any{"type": "event", "name": "server_error"},
			want: false,
		},
		{
			name: "ready",
			msg:  map[string]any{"type": "ready"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ParseResponse(tt.msg)
			require.Equal(t, tt.want, ok)
		})
	}
}

// TestParseResponse_Fields tests response field extraction.
func TestParseResponse_Fields(t *testing.T) {
	resp, ok := ParseResponse(map[string]any{
		"id":     "req-1",
		"status": "error",
		"error":  "boom",
		"result": map[string]any{"partial": true},
	})
	require.True(t, ok)
	require.Equal(t, "req-1", resp.ID)
	require.Equal(t, "error", resp.Status)
	require.Equal(t, "boom", resp.Error)
	require.True(t, resp.IsError())

	resp, ok = ParseResponse(map[string]any{"id": "req-2", "status": "success"})
	require.True(t, ok)
	require.False(t, resp.IsError())
}

// TestParseResponse_MissingStatusIsError tests that a response without a
// status field is treated as a failure, not a silent success.
func TestParseResponse_MissingStatusIsError(t *testing.T) {
	resp, ok := ParseResponse(map[string]any{"id": "req-1"})
	require.True(t, ok)
	require.True(t, resp.IsError())
}

// TestParseEvent tests event detection and extraction.
func TestParseEvent(t *testing.T) {
	ev, ok := ParseEvent(map[string]any{
		"type": "event",
		"name": "server_error",
		"data": map[string]any{"error": "bind failed"},
	})
	require.True(t, ok)
	require.Equal(t, "server_error", ev.Name)
	require.Equal(t, "bind failed", ev.Data["error"])

	_, ok = ParseEvent(map[string]any{"id": "req-1", "status": "success"})
	require.False(t, ok)

	_, ok = ParseEvent(map[string]any{"type": "ready"})
	require.False(t, ok)

	// Minimal event with no data.
	ev, ok = ParseEvent(map[string]any{"type": "event"})
	require.True(t, ok)
	require.Empty(t, ev.Name)
	require.Nil(t, ev.Data)
}

// TestIsReady tests ready signal detection.
func TestIsReady(t *testing.T) {
	require.True(t, IsReady(map[string]any{"type": "ready"}))
	require.True(t, IsReady(map[string]any{"type": "ready", "message": "NANDA bridge ready"}))
	require.False(t, IsReady(map[string]any{"type": "event"}))
	require.False(t, IsReady(map[string]any{"id": "req-1"}))

	require.Equal(t, "NANDA bridge ready",
		ReadyMessage(map[string]any{"type": "ready", "message": "NANDA bridge ready"}))
	require.Empty(t, ReadyMessage(map[string]any{"type": "ready"}))
}
