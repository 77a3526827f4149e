package wicket

import "context"

// Backend is the support-ticket API surface consumed by the client.
// Implementations attach the session token to every request after
// authentication.
type Backend interface {
	// Authenticate exchanges host-supplied identity data for a session.
	Authenticate(ctx context.Context, initData string) (Session, error)

	// History returns messages with ids strictly greater than after, in
	// ascending id order. after == 0 requests the full history.
	History(ctx context.Context, token string, after int64) ([]Message, error)

	// Send submits a text-only message.
	Send(ctx context.Context, token, text string) error

	// SendFile submits a single file with optional accompanying text.
	SendFile(ctx context.Context, token, text string, file Upload) error

	// Close resolves the conversation.
	Close(ctx context.Context, token string) error
}
