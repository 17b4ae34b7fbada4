package nandabridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockTransport is an in-memory Transport that answers requests through a
// configurable respond function.
type mockTransport struct {
	mu      sync.Mutex
	sent    []map[string]any
	respond func(req map[string]any) map[string]any

	messages  chan map[string]any
	errs      chan error
	closeOnce sync.Once
}

func newMockTransport(respond func(req map[string]any) map[string]any) *mockTransport {
	m := &mockTransport{
		respond:  respond,
		messages: make(chan map[string]any, 16),
		errs:     make(chan error, 1),
	}

	m.messages <- map[string]any{"type": "ready"}

	return m
}

func (m *mockTransport) Start(_ context.Context) error {
	return nil
}

func (m *mockTransport) ReadMessages(_ context.Context) (<-chan map[string]any, <-chan error) {
	return m.messages, m.errs
}

func (m *mockTransport) SendMessage(_ context.Context, data []byte) error {
	var req map[string]any
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	m.mu.Lock()
	m.sent = append(m.sent, req)
	respond := m.respond
	m.mu.Unlock()

	if respond != nil {
		if resp := respond(req); resp != nil {
			resp["id"] = req["id"]
			m.messages <- resp
		}
	}

	return nil
}

func (m *mockTransport) Terminate() error {
	m.closeOnce.Do(func() {
		close(m.errs)
		close(m.messages)
	})

	return nil
}

func (m *mockTransport) IsReady() bool {
	return true
}

func (m *mockTransport) lastRequest() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return nil
	}

	return m.sent[len(m.sent)-1]
}

func successResponder(results map[string]map[string]any) func(map[string]any) map[string]any {
	return func(req map[string]any) map[string]any {
		command, _ := req["command"].(string)

		resp := map[string]any{"status": "success"}
		if result, ok := results[command]; ok {
			resp["result"] = result
		}

		return resp
	}
}

func startBridge(t *testing.T, transport *mockTransport) Bridge {
	t.Helper()

	b := New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, b.Start(ctx, WithTransport(transport)))

	t.Cleanup(func() {
		_ = b.Stop(context.Background())
	})

	return b
}

// TestNew_Creation tests bridge creation.
func TestNew_Creation(t *testing.T) {
	b := New()
	require.NotNil(t, b)
	require.Equal(t, StateStopped, b.State())
}

// TestBridge_ExecuteNotRunning tests command rejection before Start.
func TestBridge_ExecuteNotRunning(t *testing.T) {
	b := New()

	_, err := b.Execute(context.Background(), CmdGetStatus, nil)
	require.ErrorIs(t, err, ErrNotRunning)
}

// TestBridge_StartStop tests the basic lifecycle through the public surface.
func TestBridge_StartStop(t *testing.T) {
	transport := newMockTransport(nil)
	b := startBridge(t, transport)

	require.Equal(t, StateRunning, b.State())

	require.NoError(t, b.Stop(context.Background()))
	require.Equal(t, StateStopped, b.State())
}

// TestBridge_RegisterLogic tests the register_improvement_logic helper.
func TestBridge_RegisterLogic(t *testing.T) {
	transport := newMockTransport(successResponder(nil))
	b := startBridge(t, transport)

	require.NoError(t, b.RegisterLogic(context.Background(), "pirate"))

	req := transport.lastRequest()
	require.Equal(t, CmdRegisterLogic, req["command"])

	data, ok := req["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "pirate", data["name"])
}

// TestBridge_TestImprovement tests the improved text extraction.
func TestBridge_TestImprovement(t *testing.T) {
	transport := newMockTransport(successResponder(map[string]map[string]any{
		CmdTestImprovement: {"improved_message": "arr, ahoy matey"},
	}))
	b := startBridge(t, transport)

	improved, err := b.TestImprovement(context.Background(), "hello friend")
	require.NoError(t, err)
	require.Equal(t, "arr, ahoy matey", improved)

	data, ok := transport.lastRequest()["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "hello friend", data["message"])
}

// TestBridge_GetStatus tests status decoding.
func TestBridge_GetStatus(t *testing.T) {
	transport := newMockTransport(successResponder(map[string]map[string]any{
		CmdGetStatus: {
			"bridge_running":               true,
			"nanda_initialized":            true,
			"server_running":               false,
			"improvement_logic_registered": true,
		},
	}))
	b := startBridge(t, transport)

	status, err := b.GetStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.BridgeRunning)
	require.True(t, status.NandaInitialized)
	require.False(t, status.ServerRunning)
	require.True(t, status.ImprovementLogicRegistered)
}

// TestBridge_StartServerAPI tests the enrollment link extraction and the
// payload defaults.
func TestBridge_StartServerAPI(t *testing.T) {
	transport := newMockTransport(successResponder(map[string]map[string]any{
		CmdStartServerAPI: {"enrollment_link": "https://agents.example.com/enroll/abc"},
	}))
	b := startBridge(t, transport)

	link, err := b.StartServerAPI(context.Background(), ServerAPIConfig{
		AnthropicKey: "sk-test",
		Domain:       "agents.example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://agents.example.com/enroll/abc", link)

	data, ok := transport.lastRequest()["data"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "sk-test", data["anthropic_key"])
	require.Equal(t, "agents.example.com", data["domain"])

	// A random agent id is generated when none is configured.
	agentID, ok := data["agent_id"].(string)
	require.True(t, ok)
	require.True(t, strings.HasPrefix(agentID, "agent-"))

	// Unset fields are omitted so the worker's defaults apply.
	require.NotContains(t, data, "port")
	require.NotContains(t, data, "registry")
	require.NotContains(t, data, "ssl")
}

// TestBridge_StartAndStopServer tests the background server helpers.
func TestBridge_StartAndStopServer(t *testing.T) {
	transport := newMockTransport(successResponder(nil))
	b := startBridge(t, transport)

	require.NoError(t, b.StartServer(context.Background()))
	require.Equal(t, CmdStartServer, transport.lastRequest()["command"])

	require.NoError(t, b.StopServer(context.Background()))
	require.Equal(t, CmdStopServer, transport.lastRequest()["command"])
}

// TestBridge_CommandFailure tests that a worker error surfaces through the
// typed helpers.
func TestBridge_CommandFailure(t *testing.T) {
	transport := newMockTransport(func(req map[string]any) map[string]any {
		return map[string]any{"status": "error", "error": "no logic registered"}
	})
	b := startBridge(t, transport)

	_, err := b.TestImprovement(context.Background(), "hello")
	require.Error(t, err)

	var failed *CommandFailedError
	require.ErrorAs(t, err, &failed)
	require.Equal(t, "no logic registered", failed.Message)
}

// TestBridge_EventRoundTrip tests event subscription through the public
// surface.
func TestBridge_EventRoundTrip(t *testing.T) {
	transport := newMockTransport(nil)
	b := startBridge(t, transport)

	received := make(chan map[string]any, 1)

	sub := b.OnEvent("server_error", func(name string, data map[string]any) {
		received <- data
	})
	defer b.OffEvent(sub)

	transport.messages <- map[string]any{
		"type": "event",
		"name": "server_error",
		"data": map[string]any{"error": "bind failed"},
	}

	select {
	case data := <-received:
		require.Equal(t, "bind failed", data["error"])
	case <-time.After(2 * time.Second):
		t.Fatal("event never dispatched")
	}
}

// TestCommands_Exported tests the exported vocabulary.
func TestCommands_Exported(t *testing.T) {
	commands := Commands()
	require.Len(t, commands, 7)
	require.Contains(t, commands, CmdRegisterLogic)
	require.Contains(t, commands, CmdShutdown)
}
