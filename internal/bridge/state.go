package bridge

// State is the bridge lifecycle state. Exactly one authoritative instance
// exists per controller.
type State int

const (
	// StateStopped means no worker process exists.
	StateStopped State = iota

	// StateStarting means the worker was spawned and the bridge is waiting
	// for its ready signal.
	StateStarting

	// StateRunning means the worker is ready and commands are accepted.
	StateRunning

	// StateStopping means Stop was called and the bridge is waiting for the
	// worker to exit. No new commands are accepted.
	StateStopping

	// StateCrashed means the worker exited unexpectedly while running.
	// A fresh Start is required before commands are accepted again.
	StateCrashed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}
