package wicket

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrNoInitData indicates the host platform supplied no identity payload.
	ErrNoInitData = errors.New("no identity data from host platform")

	// ErrNotReady indicates an operation that requires an active session.
	ErrNotReady = errors.New("session not ready")

	// ErrClosed indicates an operation on a closed ticket.
	ErrClosed = errors.New("ticket closed")
)
