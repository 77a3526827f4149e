package bubbletea_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/wicket"
	bt "github.com/fwojciec/wicket/bubbletea"
	"github.com/fwojciec/wicket/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	ctrl := wicket.NewController(newBackend())
	m := bt.New(ctrl, "init-data", wicket.DefaultTheme(), 0)

	assert.False(t, m.Sending())
	assert.Nil(t, m.Staged())
	assert.NoError(t, m.Err())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size initializes viewport", func(t *testing.T) {
		t.Parallel()

		ctrl := wicket.NewController(newBackend())
		m := bt.New(ctrl, "init-data", wicket.DefaultTheme(), testPollEvery)
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

		view := m.View()
		assert.NotEmpty(t, view)
		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 20, m.Viewport.Height) // 24 - 1 - 1 - 2
	})

	t.Run("bootstrap failure is terminal", func(t *testing.T) {
		t.Parallel()

		ctrl := wicket.NewController(&mock.Backend{})
		m := bt.New(ctrl, "", wicket.DefaultTheme(), testPollEvery)
		m = updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
		m = updateModel(t, m, bt.AuthDoneMsg{Err: wicket.ErrNoInitData})

		require.Error(t, m.Err())
		assert.Contains(t, m.View(), "Error:")

		// Composing is disabled for good.
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
		assert.Empty(t, m.Input.Value())
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	})

	t.Run("initial history fills the transcript", func(t *testing.T) {
		t.Parallel()

		m, _ := initModel(t, newBackend())
		m = updateModel(t, m, bt.HistoryMsg{
			Messages: []wicket.Message{userMsg(1, "hi"), agentMsg(2, "hello, how can I help?")},
			Initial:  true,
		})

		view := m.Viewport.View()
		assert.Contains(t, view, "hi")
		assert.Contains(t, view, "hello, how can I help?")
	})

	t.Run("initial history replaces previously rendered content", func(t *testing.T) {
		t.Parallel()

		m, _ := initModel(t, newBackend())
		m = updateModel(t, m, bt.HistoryMsg{Messages: []wicket.Message{agentMsg(1, "stale")}, Initial: true})
		m = updateModel(t, m, bt.HistoryMsg{Messages: []wicket.Message{agentMsg(1, "fresh")}, Initial: true})

		view := m.Viewport.View()
		assert.Contains(t, view, "fresh")
		assert.NotContains(t, view, "stale")
	})

	t.Run("incremental history appends", func(t *testing.T) {
		t.Parallel()

		m, _ := initModel(t, newBackend())
		m = updateModel(t, m, bt.HistoryMsg{Messages: []wicket.Message{agentMsg(1, "first")}, Initial: true})
		m = updateModel(t, m, bt.HistoryMsg{Messages: []wicket.Message{agentMsg(2, "second")}})

		view := m.Viewport.View()
		assert.Contains(t, view, "first")
		assert.Contains(t, view, "second")
	})

	t.Run("background poll failure is silent", func(t *testing.T) {
		t.Parallel()

		m, _ := initModel(t, newBackend())
		m = updateModel(t, m, bt.HistoryMsg{Err: errors.New("boom")})

		assert.Empty(t, m.Notice())
		assert.NotContains(t, m.View(), "boom")
	})

	t.Run("initial load failure shows a notice", func(t *testing.T) {
		t.Parallel()

		m, _ := initModel(t, newBackend())
		m = updateModel(t, m, bt.HistoryMsg{Err: errors.New("boom"), Initial: true})

		assert.Contains(t, m.Notice(), "could not load history")
	})

	t.Run("enter submits the draft and clears input on success", func(t *testing.T) {
		t.Parallel()

		b := newBackend()
		var sent string
		b.SendFn = func(ctx context.Context, token, text string) error {
			sent = text
			return nil
		}

		m, _ := initModel(t, b)
		m.Input.SetValue("hello")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		assert.True(t, m.Sending())

		msg := execCmd(t, cmd)
		done, ok := msg.(bt.SendDoneMsg)
		require.True(t, ok)
		require.NoError(t, done.Err)
		assert.Equal(t, "hello", sent)

		updated, followUp := m.Update(done)
		m = updated.(bt.Model)
		assert.False(t, m.Sending())
		assert.Empty(t, m.Input.Value())
		// One deferred poll is scheduled to pick up the echo.
		assert.NotNil(t, followUp)
	})

	t.Run("send failure keeps the draft for retry", func(t *testing.T) {
		t.Parallel()

		b := newBackend()
		b.SendFn = func(ctx context.Context, token, text string) error {
			return errors.New("conversation resolved")
		}

		m, _ := initModel(t, b)
		m.Input.SetValue("hello")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		msg := execCmd(t, cmd)

		m = updateModel(t, m, msg)
		assert.False(t, m.Sending())
		assert.Equal(t, "hello", m.Input.Value())
		assert.Contains(t, m.Notice(), "send failed")
	})

	t.Run("empty draft issues no request", func(t *testing.T) {
		t.Parallel()

		b := newBackend()
		b.SendFn = func(ctx context.Context, token, text string) error {
			t.Fatal("unexpected send")
			return nil
		}

		m, _ := initModel(t, b)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
	})

	t.Run("attach stages a file for the next send", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "shot.png")
		require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o600))

		b := newBackend()
		var gotFile wicket.Upload
		var gotText string
		b.SendFileFn = func(ctx context.Context, token, text string, file wicket.Upload) error {
			gotText, gotFile = text, file
			return nil
		}

		m, _ := initModel(t, b)
		m.Input.SetValue("/attach " + path)
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)

		m = updateModel(t, m, execCmd(t, cmd))
		require.NotNil(t, m.Staged())
		assert.Equal(t, "shot.png", m.Staged().Name)
		assert.Contains(t, m.Notice(), "staged")

		// The staged file rides along with the caption.
		m.Input.SetValue("see attached")
		updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		msg := execCmd(t, cmd)
		m = updateModel(t, m, msg)

		assert.Equal(t, "see attached", gotText)
		assert.Equal(t, "shot.png", gotFile.Name)
		assert.Equal(t, []byte{0x89, 0x50}, gotFile.Data)
		assert.Nil(t, m.Staged())
	})

	t.Run("detach drops the staged file", func(t *testing.T) {
		t.Parallel()

		m, _ := initModel(t, newBackend())
		m = updateModel(t, m, bt.AttachDoneMsg{Upload: wicket.Upload{Name: "log.txt", Data: []byte("x")}})
		require.NotNil(t, m.Staged())

		m.Input.SetValue("/detach")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, m.Staged())
	})

	t.Run("close asks for confirmation first", func(t *testing.T) {
		t.Parallel()

		b := newBackend()
		b.CloseFn = func(ctx context.Context, token string) error {
			t.Fatal("unexpected close")
			return nil
		}

		m, _ := initModel(t, b)
		m.Input.SetValue("/close")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(bt.Model)
		assert.Nil(t, cmd)
		assert.True(t, m.ConfirmingClose())
		assert.Contains(t, m.View(), "[y/n]")

		// Anything but y declines.
		updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
		m = updated.(bt.Model)
		assert.Nil(t, cmd)
		assert.False(t, m.ConfirmingClose())
	})

	t.Run("confirmed close resolves the ticket for good", func(t *testing.T) {
		t.Parallel()

		b := newBackend()
		b.CloseFn = func(ctx context.Context, token string) error { return nil }

		m, ctrl := initModel(t, b)
		m.Input.SetValue("/close")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
		m = updated.(bt.Model)
		m = updateModel(t, m, execCmd(t, cmd))

		assert.Equal(t, wicket.StateClosed, ctrl.State())
		assert.Contains(t, m.View(), "resolved")

		// Composing is disabled once closed.
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
		assert.Empty(t, m.Input.Value())
	})

	t.Run("close failure leaves the ticket open", func(t *testing.T) {
		t.Parallel()

		b := newBackend()
		b.CloseFn = func(ctx context.Context, token string) error {
			return errors.New("backend unavailable")
		}

		m, ctrl := initModel(t, b)
		m.Input.SetValue("/close")
		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
		m = updated.(bt.Model)
		m = updateModel(t, m, execCmd(t, cmd))

		assert.Equal(t, wicket.StateActive, ctrl.State())
		assert.Contains(t, m.Notice(), "close failed")
	})

	t.Run("poll tick stops rescheduling once closed", func(t *testing.T) {
		t.Parallel()

		b := newBackend()
		b.CloseFn = func(ctx context.Context, token string) error { return nil }

		m, ctrl := initModel(t, b)
		require.NoError(t, ctrl.Close(context.Background()))

		_, cmd := m.Update(bt.PollTickMsg{})
		assert.Nil(t, cmd)
	})
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var pending []wicket.Message
	nextID := int64(1)

	b := &mock.Backend{
		AuthenticateFn: func(ctx context.Context, initData string) (wicket.Session, error) {
			return wicket.Session{Token: "tok", ConversationID: 7}, nil
		},
		HistoryFn: func(ctx context.Context, token string, after int64) ([]wicket.Message, error) {
			mu.Lock()
			defer mu.Unlock()
			if after == 0 {
				return []wicket.Message{{ID: 1, From: wicket.SideAgent, Text: "How can I help?"}}, nil
			}
			out := pending
			pending = nil
			return out, nil
		},
		SendFn: func(ctx context.Context, token, text string) error {
			mu.Lock()
			defer mu.Unlock()
			nextID++
			pending = append(pending, wicket.Message{ID: nextID, From: wicket.SideUser, Text: text})
			return nil
		},
	}

	ctrl := wicket.NewController(b)
	m := bt.New(ctrl, "init-data", wicket.DefaultTheme(), 50*time.Millisecond)

	tm := teatest.NewTestModel(t, m,
		teatest.WithInitialTermSize(80, 24),
	)

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("How can I help?")) &&
			bytes.Contains(out, []byte("Ticket #7"))
	}, teatest.WithDuration(5*time.Second))

	tm.Type("hi")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	// The sent message comes back as a server echo via the poll loop.
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("> hi"))
	}, teatest.WithDuration(5*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	final, ok := fm.(bt.Model)
	require.True(t, ok)
	assert.False(t, final.Sending())
	assert.NoError(t, final.Err())
	assert.Equal(t, wicket.StateActive, ctrl.State())
}
