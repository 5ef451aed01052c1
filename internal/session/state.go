package session

// State is the session loading state.
type State int

const (
	StateLoading State = iota
	StateUndecided
	StateAuthenticated
	StateUnauthenticated
	// StateError is terminal for the current session. Recovery needs a reload.
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateUndecided:
		return "UNDECIDED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
