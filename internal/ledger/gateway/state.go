package gateway

// State is a step of a single dispatch.
type State int

// Dispatch states, in the order a successful dispatch visits them.
const (
	StateIdle State = iota
	StateSessionOpening
	StateSessionReady
	StateInvoking
	StateSucceeded
	StateFailed
	StateSessionClosed
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateSessionOpening: "session_opening",
	StateSessionReady:   "session_ready",
	StateInvoking:       "invoking",
	StateSucceeded:      "succeeded",
	StateFailed:         "failed",
	StateSessionClosed:  "session_closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
