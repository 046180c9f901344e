package tooltip

// State is a hover session's position in its lifecycle.
type State int

const (
	Idle State = iota
	Debouncing
	Resolving
	Showing
	Closing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Resolving:
		return "resolving"
	case Showing:
		return "showing"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}
