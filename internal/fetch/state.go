package fetch

import "net/http"

// State is a step of the per-page fetch state machine.
//
//	Pending ──attempt──▶ Succeeded | SucceededEmpty | TerminalError
//	   │                      ▲
//	   └──▶ Retrying ─────────┘   (429, ≥500, transport error while attempts remain)
type State int

// Page fetch states.
const (
	StatePending State = iota
	StateRetrying
	StateSucceeded
	StateSucceededEmpty
	StateTerminalError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateSucceededEmpty:
		return "succeeded_empty"
	case StateTerminalError:
		return "terminal_error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempt follows this state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateSucceededEmpty || s == StateTerminalError
}

// outcome is what one HTTP attempt produced.
type outcome struct {
	transportErr error
	status       int
	decodeErr    error
	batchSize    int
}

// transition returns the state after an attempt. attempt is 1-based.
func transition(o outcome, attempt, maxAttempts int) State {
	retryOrFail := func() State {
		if attempt < maxAttempts {
			return StateRetrying
		}
		return StateTerminalError
	}

	switch {
	case o.transportErr != nil:
		return retryOrFail()
	case o.status == http.StatusTooManyRequests:
		return retryOrFail()
	case o.status >= http.StatusInternalServerError:
		return retryOrFail()
	case o.status < 200 || o.status >= 300:
		return StateTerminalError
	case o.decodeErr != nil:
		return StateTerminalError
	case o.batchSize == 0:
		return StateSucceededEmpty
	default:
		return StateSucceeded
	}
}

// failureKind maps a failed outcome onto the error taxonomy.
func failureKind(o outcome) Kind {
	switch {
	case o.transportErr != nil:
		return KindNetwork
	case o.status == http.StatusTooManyRequests:
		return KindRateLimited
	case o.status < 200 || o.status >= 300:
		return KindUpstream
	default:
		return KindDecode
	}
}
