package protocol

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// Command names in the fixed vocabulary the worker honors. Customization is
// carried in command payloads, never as injected code.
const (
	CmdRegisterLogic   = "register_improvement_logic"
	CmdStartServer     = "start_server"
	CmdStartServerAPI  = "start_server_api"
	CmdTestImprovement = "test_improvement"
	CmdGetStatus       = "get_status"
	CmdStopServer      = "stop_server"
	CmdShutdown        = "shutdown"
)

// commandSchemas defines the payload schema for every command.
var commandSchemas = map[string]*jsonschema.Schema{
	CmdRegisterLogic: {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"name":        {Type: "string"},
			"description": {Type: "string"},
		},
		Required: []string{"name"},
	},
	CmdStartServer: {Type: "object"},
	CmdStartServerAPI: {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"anthropic_key": {Type: "string"},
			"domain":        {Type: "string"},
			"agent_id":      {Type: "string"},
			"port":          {Type: "integer"},
			"api_port":      {Type: "integer"},
			"registry":      {Type: "string"},
			"public_url":    {Type: "string"},
			"api_url":       {Type: "string"},
			"cert":          {Type: "string"},
			"key":           {Type: "string"},
			"ssl":           {Type: "boolean"},
		},
		Required: []string{"anthropic_key", "domain"},
	},
	CmdTestImprovement: {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"message": {Type: "string"},
		},
		Required: []string{"message"},
	},
	CmdGetStatus:  {Type: "object"},
	CmdStopServer: {Type: "object"},
	CmdShutdown:   {Type: "object"},
}

var (
	resolveOnce sync.Once
	resolved    map[string]*jsonschema.Resolved
	resolveErr  error
)

// resolveSchemas resolves every command schema exactly once.
func resolveSchemas() error {
	resolveOnce.Do(func() {
		resolved = make(map[string]*jsonschema.Resolved, len(commandSchemas))

		for name, schema := range commandSchemas {
			rs, err := schema.Resolve(nil)
			if err != nil {
				resolveErr = fmt.Errorf("resolve schema for %q: %w", name, err)

				return
			}

			resolved[name] = rs
		}
	})

	return resolveErr
}

// ValidateCommand checks a command name against the vocabulary and its
// payload against the command's schema. A nil payload validates as an empty
// object.
func ValidateCommand(command string, data map[string]any) error {
	if err := resolveSchemas(); err != nil {
		return err
	}

	rs, ok := resolved[command]
	if !ok {
		return fmt.Errorf("unknown command %q", command)
	}

	if data == nil {
		data = map[string]any{}
	}

	if err := rs.Validate(data); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	return nil
}

// Commands returns the command vocabulary in sorted order.
func Commands() []string {
	names := make([]string, 0, len(commandSchemas))
	for name := range commandSchemas {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
