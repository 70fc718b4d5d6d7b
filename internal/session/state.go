package session

// State is the lifecycle of a session. Transitions are one-way: once a
// side is gone it never comes back, and Gone absorbs everything.
type State uint8

const (
	// StateLive means both the peer connection and the child task are up.
	StateLive State = iota
	// StateSockDown means the peer closed the connection.
	StateSockDown
	// StateTaskDone means the child task exited.
	StateTaskDone
	// StateGone means both sides are gone.
	StateGone
)

// Zombie reports whether the session lost its peer or its task and is
// only waiting for local clients to drain.
func (s State) Zombie() bool {
	return s != StateLive
}

func (s State) withSockDown() State {
	if s == StateLive || s == StateSockDown {
		return StateSockDown
	}
	return StateGone
}

func (s State) withTaskDone() State {
	if s == StateLive || s == StateTaskDone {
		return StateTaskDone
	}
	return StateGone
}

func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateSockDown:
		return "sock-down"
	case StateTaskDone:
		return "task-done"
	case StateGone:
		return "gone"
	}
	return "unknown"
}
