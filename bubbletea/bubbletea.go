// Package bubbletea provides a Bubble Tea TUI for the wicket chat client.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/wicket"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown — when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// AuthDoneMsg signals that the session bootstrap has completed.
type AuthDoneMsg struct {
	Session wicket.Session
	Err     error
}

// HistoryMsg delivers a batch of loaded messages. Initial marks the first
// full load after bootstrap; its failure is surfaced to the user, while a
// failed background poll arrives with Err set and is dropped quietly.
type HistoryMsg struct {
	Messages []wicket.Message
	Initial  bool
	Err      error
}

// PollTickMsg fires on the steady poll cadence.
type PollTickMsg struct{}

// SendPollMsg fires once, shortly after a successful send, to pick up the
// echo of the submitted message ahead of the next regular tick.
type SendPollMsg struct{}

// SendDoneMsg signals that a message submission has completed.
type SendDoneMsg struct {
	Err error
}

// CloseDoneMsg signals that a close request has completed.
type CloseDoneMsg struct {
	Err error
}

// AttachDoneMsg delivers a file read from disk for staging.
type AttachDoneMsg struct {
	Upload wicket.Upload
	Err    error
}

// noticeExpireMsg clears the transient status notice identified by seq.
// A stale seq means a newer notice replaced this one; it is left alone.
type noticeExpireMsg struct {
	seq int
}
