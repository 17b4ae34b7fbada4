package nandabridge

import "github.com/jinutvm/nanda-adapter-sdk/internal/config"

// Transport defines the interface for worker communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative worker hosts.
//
// The default implementation spawns the Python bridge script as a
// subprocess. Custom transports can be injected via WithTransport.
type Transport = config.Transport
