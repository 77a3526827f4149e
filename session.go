package wicket

// Session holds the credentials established by the bootstrap exchange.
// It lives in process memory for the lifetime of the client and is never
// persisted.
type Session struct {
	Token          string
	ConversationID int64
}

// State is the client lifecycle state. The only transition out of
// StateActive is to StateClosed, and it is one-way. StateError is
// absorbing: there is no recovery path short of restarting the process.
type State int

const (
	StateUninitialized State = iota
	StateAuthenticating
	StateActive
	StateClosed
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Transcript is the exportable view of a conversation: the rendered
// message list plus closing status. It never carries the session token.
type Transcript struct {
	ConversationID int64
	Closed         bool
	Messages       []Message
}
