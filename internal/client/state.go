package client

// State of one logical request.
type State int

const (
	Idle State = iota
	Sent
	Success
	Unauthorized
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sent:
		return "sent"
	case Success:
		return "success"
	case Unauthorized:
		return "unauthorized"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Transition is reported to the OnTransition hook.
// Attempt is 1 for the original request and 2 for the retry.
type Transition struct {
	RequestID string
	Method    string
	Path      string
	Attempt   int
	From, To  State
}
