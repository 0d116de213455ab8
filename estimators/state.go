package estimators

import "fmt"

// State is the terminal or current stage of an iterative fit.
type State int

const (
	StateInit State = iota
	StateInitialEstimate
	StateIterating
	StateConverged
	StateMaxIterReached
	StateDiverged
)

var stateNames = [...]string{
	StateInit:            "init",
	StateInitialEstimate: "initial_estimate",
	StateIterating:       "iterating",
	StateConverged:       "converged",
	StateMaxIterReached:  "max_iter_reached",
	StateDiverged:        "diverged",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further iteration follows the state.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateMaxIterReached || s == StateDiverged
}
