package nandabridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestServerAPIConfig_Payload tests wire payload construction.
func TestServerAPIConfig_Payload(t *testing.T) {
	ssl := false

	cfg := ServerAPIConfig{
		AnthropicKey: "sk-test",
		Domain:       "agents.example.com",
		AgentID:      "agent-custom",
		Port:         7000,
		APIPort:      7001,
		Registry:     "https://registry.example.com",
		PublicURL:    "https://agents.example.com:7000",
		APIURL:       "https://agents.example.com:7001",
		Cert:         "/etc/ssl/agent.crt",
		Key:          "/etc/ssl/agent.key",
		SSL:          &ssl,
	}

	data := cfg.payload()

	require.Equal(t, "sk-test", data["anthropic_key"])
	require.Equal(t, "agents.example.com", data["domain"])
	require.Equal(t, "agent-custom", data["agent_id"])
	require.Equal(t, 7000, data["port"])
	require.Equal(t, 7001, data["api_port"])
	require.Equal(t, "https://registry.example.com", data["registry"])
	require.Equal(t, "https://agents.example.com:7000", data["public_url"])
	require.Equal(t, "https://agents.example.com:7001", data["api_url"])
	require.Equal(t, "/etc/ssl/agent.crt", data["cert"])
	require.Equal(t, "/etc/ssl/agent.key", data["key"])
	require.Equal(t, false, data["ssl"])
}

// TestServerAPIConfig_PayloadMinimal tests that unset fields are omitted and
// an agent id is generated.
func TestServerAPIConfig_PayloadMinimal(t *testing.T) {
	cfg := ServerAPIConfig{
		AnthropicKey: "sk-test",
		Domain:       "agents.example.com",
	}

	data := cfg.payload()

	require.Len(t, data, 3)
	require.NotEmpty(t, data["agent_id"])

	// Two builds generate distinct ids.
	other := cfg.payload()
	require.NotEqual(t, data["agent_id"], other["agent_id"])
}
