// Package wicket implements a client for a support-ticket chat backend.
// It establishes a session from host-supplied identity data, loads and
// polls conversation history, and submits messages, file uploads, and
// close requests.
package wicket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Timing constants for the poll loop. PollInterval is the steady-state
// cadence; SendPollDelay is the single deferred poll after a successful
// send.
const (
	PollInterval  = 2 * time.Second
	SendPollDelay = 250 * time.Millisecond
)

// Controller owns all mutable client state: the session credentials, the
// watermark, the transcript, and the lifecycle state. Methods are safe for
// concurrent use; the TUI invokes them from tea.Cmd goroutines.
type Controller struct {
	backend Backend
	log     zerolog.Logger

	polling atomic.Bool // single-flight poll guard

	mu         sync.Mutex
	state      State
	session    Session
	lastID     int64
	transcript []Message
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// NewController creates a Controller talking to the given backend.
func NewController(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Bootstrap exchanges initData for a session token and conversation id.
// An empty payload fails with ErrNoInitData without touching the network.
// Either failure leaves the controller in StateError, which is terminal
// for this process.
func (c *Controller) Bootstrap(ctx context.Context, initData string) (Session, error) {
	c.setState(StateAuthenticating)

	if initData == "" {
		c.setState(StateError)
		return Session{}, ErrNoInitData
	}

	sess, err := c.backend.Authenticate(ctx, initData)
	if err != nil {
		c.setState(StateError)
		return Session{}, err
	}

	c.mu.Lock()
	c.session = sess
	c.state = StateActive
	c.mu.Unlock()

	c.log.Debug().Int64("conversation", sess.ConversationID).Msg("session established")
	return sess, nil
}

// Load fetches messages newer than after and appends them to the
// transcript in server order. On a non-empty batch the watermark advances
// to the last returned id; it never regresses. An empty batch is an
// idempotent no-op.
func (c *Controller) Load(ctx context.Context, after int64) ([]Message, error) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return nil, ErrNotReady
	}
	token := c.session.Token
	c.mu.Unlock()

	msgs, err := c.backend.History(ctx, token, after)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, msgs...)
	if last := msgs[len(msgs)-1].ID; last > c.lastID {
		c.lastID = last
	}
	c.mu.Unlock()
	return msgs, nil
}

// Poll performs one incremental fetch from the current watermark. It
// returns ran == false without touching the network when a poll is
// already in flight or the session is not active (including closed).
// There is no queueing: a dropped trigger is simply dropped; the next
// timer tick retries naturally.
func (c *Controller) Poll(ctx context.Context) (msgs []Message, ran bool, err error) {
	c.mu.Lock()
	active := c.state == StateActive
	after := c.lastID
	c.mu.Unlock()
	if !active {
		return nil, false, nil
	}

	if !c.polling.CompareAndSwap(false, true) {
		return nil, false, nil
	}
	defer c.polling.Store(false)

	msgs, err = c.Load(ctx, after)
	if err != nil {
		// Best-effort by policy: the caller stays quiet and the next
		// tick retries.
		c.log.Debug().Err(err).Int64("after", after).Msg("poll failed")
		return nil, true, err
	}
	return msgs, true, nil
}

// Send submits the draft. An empty draft (no text, no file) is a no-op
// that issues no request. A staged file switches the submission to
// multipart with the text as an optional caption.
func (c *Controller) Send(ctx context.Context, text string, file *Upload) error {
	c.mu.Lock()
	state := c.state
	token := c.session.Token
	c.mu.Unlock()

	if state == StateClosed {
		return ErrClosed
	}
	if state != StateActive {
		return ErrNotReady
	}
	if text == "" && file == nil {
		return nil
	}

	if file != nil {
		if err := c.backend.SendFile(ctx, token, text, *file); err != nil {
			return err
		}
		c.log.Debug().Str("file", file.Name).Msg("file sent")
		return nil
	}
	if err := c.backend.Send(ctx, token, text); err != nil {
		return err
	}
	c.log.Debug().Msg("message sent")
	return nil
}

// Close resolves the ticket. Only an explicit success acknowledgment from
// the backend flips the closed flag; on failure the ticket stays active
// and the user may retry.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	token := c.session.Token
	c.mu.Unlock()

	if state == StateClosed {
		return ErrClosed
	}
	if state != StateActive {
		return ErrNotReady
	}

	if err := c.backend.Close(ctx, token); err != nil {
		return err
	}
	c.setState(StateClosed)
	c.log.Debug().Msg("ticket closed")
	return nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the established session. Zero before bootstrap completes.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// LastID returns the watermark: the highest message id loaded so far.
func (c *Controller) LastID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}

// Transcript returns a snapshot of the conversation for export.
func (c *Controller) Transcript() Transcript {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]Message, len(c.transcript))
	copy(msgs, c.transcript)
	return Transcript{
		ConversationID: c.session.ConversationID,
		Closed:         c.state == StateClosed,
		Messages:       msgs,
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
