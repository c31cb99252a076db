package session

// State is a step of the round-trip state machine.
type State int

const (
	Connecting State = iota
	Connected
	AwaitingData
	Closing
	Closed
	Error
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case AwaitingData:
		return "awaiting_data"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Closed }

// allowed lists the legal edges of the machine.
var allowed = map[State][]State{
	Connecting:   {Connected, Error},
	Connected:    {AwaitingData, Error},
	AwaitingData: {Closing, Error},
	Error:        {Closing},
	Closing:      {Closed},
}

// canTransition reports whether from -> to is a legal edge.
func canTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Observer receives every transition of every round trip.
type Observer func(serial string, from, to State)
