package stream

// State is the lifecycle state of a consumption or typing run.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateComplete
	StateError
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:      "idle",
	StateStreaming: "streaming",
	StateComplete:  "complete",
	StateError:     "error",
	StateCancelled: "cancelled",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the run has ended.
func (s State) Terminal() bool {
	return s >= StateComplete && int(s) < len(stateNames)
}
