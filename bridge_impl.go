package nandabridge

import (
	"context"

	"github.com/jinutvm/nanda-adapter-sdk/internal/bridge"
	"github.com/jinutvm/nanda-adapter-sdk/internal/events"
)

// bridgeWrapper adapts the internal controller to the public interface.
type bridgeWrapper struct {
	impl *bridge.Controller
}

// Compile-time check that *bridgeWrapper implements the Bridge interface.
var _ Bridge = (*bridgeWrapper)(nil)

// newBridgeImpl creates the internal controller implementation.
func newBridgeImpl() Bridge {
	return &bridgeWrapper{impl: bridge.New()}
}

// Start spawns the worker and waits for its ready signal.
func (b *bridgeWrapper) Start(ctx context.Context, opts ...Option) error {
	return b.impl.Start(ctx, applyOptions(opts))
}

// Execute sends a command with a payload and waits for the worker's reply.
func (b *bridgeWrapper) Execute(ctx context.Context, command string, data map[string]any) (any, error) {
	return b.impl.Execute(ctx, command, data)
}

// OnEvent registers a handler for a named worker event.
func (b *bridgeWrapper) OnEvent(name string, fn EventHandler) Subscription {
	return b.impl.OnEvent(name, events.Handler(fn))
}

// OffEvent removes a previously registered handler.
func (b *bridgeWrapper) OffEvent(sub Subscription) {
	b.impl.OffEvent(sub)
}

// State returns the current lifecycle state.
func (b *bridgeWrapper) State() State {
	return b.impl.State()
}

// Stop shuts the bridge down.
func (b *bridgeWrapper) Stop(ctx context.Context) error {
	return b.impl.Stop(ctx)
}
