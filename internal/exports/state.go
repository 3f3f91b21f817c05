package exports

import "fmt"

// State is a stage of a single export call.
type State int

const (
	Idle State = iota
	Planning
	Rendering
	Finalizing
	Compressing
	Delivering
	Done
	Failed
)

var stateNames = [...]string{
	Idle:        "idle",
	Planning:    "planning",
	Rendering:   "rendering",
	Finalizing:  "finalizing",
	Compressing: "compressing",
	Delivering:  "delivering",
	Done:        "done",
	Failed:      "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// next lists the legal forward transitions. Failed is reachable from
// every non-terminal state and is not listed.
var next = map[State]State{
	Idle:        Planning,
	Planning:    Rendering,
	Rendering:   Finalizing,
	Finalizing:  Compressing,
	Compressing: Delivering,
	Delivering:  Done,
}

func (s State) terminal() bool {
	return s == Done || s == Failed
}

func canTransition(from, to State) bool {
	if to == Failed {
		return !from.terminal()
	}
	if to == Planning && from.terminal() {
		return true
	}
	n, ok := next[from]
	return ok && n == to
}
