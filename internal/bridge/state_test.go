package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestState_String tests the state names.
func TestState_String(t *testing.T) {
	require.Equal(t, "stopped", StateStopped.String())
	require.Equal(t, "starting", StateStarting.String())
	require.Equal(t, "running", StateRunning.String())
	require.Equal(t, "stopping", StateStopping.String())
	require.Equal(t, "crashed", StateCrashed.String())
	require.Equal(t, "unknown", State(99).String())
}
