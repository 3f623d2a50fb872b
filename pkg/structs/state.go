package structs

import (
	"strings"
)

type State string

const (
	// transient states
	SUBMITTED State = "SUBMITTED"
	RUNNING   State = "RUNNING"

	// terminal states
	SUCCEEDED State = "SUCCEEDED"
	FAILED    State = "FAILED"
	TIMED_OUT State = "TIMED_OUT"
)

// IsTerminalState returns true if a job in the given state will never
// transition again.
func IsTerminalState(state State) bool {
	switch state {
	case SUCCEEDED, FAILED, TIMED_OUT:
		return true
	default:
		return false
	}
}

func ToState(s string) State {
	switch strings.ToUpper(s) {
	case "SUBMITTED":
		return SUBMITTED
	case "RUNNING":
		return RUNNING
	case "SUCCEEDED":
		return SUCCEEDED
	case "FAILED":
		return FAILED
	case "TIMED_OUT":
		return TIMED_OUT
	default:
		return ""
	}
}
