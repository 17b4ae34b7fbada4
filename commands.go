package nandabridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jinutvm/nanda-adapter-sdk/internal/protocol"
)

// Command names in the fixed vocabulary the worker honors.
const (
	CmdRegisterLogic   = protocol.CmdRegisterLogic
	CmdStartServer     = protocol.CmdStartServer
	CmdStartServerAPI  = protocol.CmdStartServerAPI
	CmdTestImprovement = protocol.CmdTestImprovement
	CmdGetStatus       = protocol.CmdGetStatus
	CmdStopServer      = protocol.CmdStopServer
	CmdShutdown        = protocol.CmdShutdown
)

// Commands returns the command vocabulary in sorted order.
func Commands() []string {
	return protocol.Commands()
}

// Status reports the worker's view of its own state.
type Status struct {
	BridgeRunning              bool `json:"bridge_running"`
	NandaInitialized           bool `json:"nanda_initialized"`
	ServerRunning              bool `json:"server_running"`
	ImprovementLogicRegistered bool `json:"improvement_logic_registered"`
}

// ServerAPIConfig carries the start_server_api payload.
type ServerAPIConfig struct {
	// AnthropicKey is the API key the agent server uses. Required.
	AnthropicKey string

	// Domain is the public domain the server is reachable at. Required.
	Domain string

	// AgentID identifies the agent in the registry.
	// If empty, a random agent id is generated.
	AgentID string

	// Port is the agent server port. Worker default: 6000.
	Port int

	// APIPort is the API server port. Worker default: 6001.
	APIPort int

	// Registry is the registry URL.
	Registry string

	// PublicURL and APIURL override the advertised endpoints.
	PublicURL string
	APIURL    string

	// Cert and Key are paths to the TLS certificate and private key.
	Cert string
	Key  string

	// SSL disables TLS when set to false. Worker default: true.
	SSL *bool
}

// payload builds the wire payload, applying the generated agent id and
// omitting unset fields so worker-side defaults apply.
func (c *ServerAPIConfig) payload() map[string]any {
	agentID := c.AgentID
	if agentID == "" {
		agentID = "agent-" + uuid.NewString()[:8]
	}

	data := map[string]any{
		"anthropic_key": c.AnthropicKey,
		"domain":        c.Domain,
		"agent_id":      agentID,
	}

	if c.Port != 0 {
		data["port"] = c.Port
	}

	if c.APIPort != 0 {
		data["api_port"] = c.APIPort
	}

	if c.Registry != "" {
		data["registry"] = c.Registry
	}

	if c.PublicURL != "" {
		data["public_url"] = c.PublicURL
	}

	if c.APIURL != "" {
		data["api_url"] = c.APIURL
	}

	if c.Cert != "" {
		data["cert"] = c.Cert
	}

	if c.Key != "" {
		data["key"] = c.Key
	}

	if c.SSL != nil {
		data["ssl"] = *c.SSL
	}

	return data
}

// RegisterLogic selects the worker's improvement logic by name.
//
// The name is data, not code: the worker maps it onto one of its built-in
// transformations.
func (b *bridgeWrapper) RegisterLogic(ctx context.Context, name string) error {
	_, err := b.Execute(ctx, CmdRegisterLogic, map[string]any{"name": name})

	return err
}

// StartServer starts the worker's agent server in the background.
func (b *bridgeWrapper) StartServer(ctx context.Context) error {
	_, err := b.Execute(ctx, CmdStartServer, nil)

	return err
}

// StartServerAPI starts the worker's API server and returns the enrollment
// link for the agent.
func (b *bridgeWrapper) StartServerAPI(ctx context.Context, cfg ServerAPIConfig) (string, error) {
	result, err := b.Execute(ctx, CmdStartServerAPI, cfg.payload())
	if err != nil {
		return "", err
	}

	fields, ok := result.(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected start_server_api result %T", result)
	}

	link, _ := fields["enrollment_link"].(string)

	return link, nil
}

// TestImprovement runs a message through the registered improvement logic
// and returns the improved text.
func (b *bridgeWrapper) TestImprovement(ctx context.Context, message string) (string, error) {
	result, err := b.Execute(ctx, CmdTestImprovement, map[string]any{"message": message})
	if err != nil {
		return "", err
	}

	fields, ok := result.(map[string]any)
	if !ok {
		return "", fmt.Errorf("unexpected test_improvement result %T", result)
	}

	improved, _ := fields["improved_message"].(string)

	return improved, nil
}

// GetStatus reports the worker's view of its own state.
func (b *bridgeWrapper) GetStatus(ctx context.Context) (*Status, error) {
	result, err := b.Execute(ctx, CmdGetStatus, nil)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal status result: %w", err)
	}

	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("unmarshal status: %w", err)
	}

	return &status, nil
}

// StopServer stops the worker's background server without stopping the
// worker itself.
func (b *bridgeWrapper) StopServer(ctx context.Context) error {
	_, err := b.Execute(ctx, CmdStopServer, nil)

	return err
}
