package bubbletea_test

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/wicket"
	bt "github.com/fwojciec/wicket/bubbletea"
	"github.com/fwojciec/wicket/mock"
	"github.com/stretchr/testify/require"
)

// testPollEvery keeps the timer-driven poll out of unit tests; ticks are
// injected directly as PollTickMsg where a test needs one.
const testPollEvery = time.Hour

// newBackend returns a mock backend with a working Authenticate.
func newBackend() *mock.Backend {
	return &mock.Backend{
		AuthenticateFn: func(ctx context.Context, initData string) (wicket.Session, error) {
			return wicket.Session{Token: "tok", ConversationID: 7}, nil
		},
	}
}

// initModel creates a model over an already bootstrapped controller and
// sends a WindowSizeMsg to initialize the viewport. The AuthDoneMsg is
// injected directly; its batched follow-up commands (initial load, poll
// timer) are not executed, so tests control history delivery explicitly.
func initModel(t *testing.T, b *mock.Backend) (bt.Model, *wicket.Controller) {
	t.Helper()
	ctrl := wicket.NewController(b)
	sess, err := ctrl.Bootstrap(context.Background(), "init-data")
	require.NoError(t, err)

	m := bt.New(ctrl, "init-data", wicket.DefaultTheme(), testPollEvery)
	m = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updateModel(t, m, bt.AuthDoneMsg{Session: sess})
	return m, ctrl
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// execCmd runs a single (non-batched, non-timer) command and returns its
// message.
func execCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func agentMsg(id int64, text string) wicket.Message {
	return wicket.Message{ID: id, From: wicket.SideAgent, Text: text, Timestamp: time.Unix(1700000000, 0).UTC()}
}

func userMsg(id int64, text string) wicket.Message {
	return wicket.Message{ID: id, From: wicket.SideUser, Text: text, Timestamp: time.Unix(1700000000, 0).UTC()}
}
