package bubbletea

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/wicket"
)

var _ tea.Model = Model{}

// noticeTTL is how long a transient status notice stays visible.
const noticeTTL = 4 * time.Second

// Model is the Bubble Tea model for the wicket TUI.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript area. Exported for test access.
	Viewport viewport.Model

	ctrl      *wicket.Controller
	initData  string
	pollEvery time.Duration
	theme     wicket.Theme
	styles    Styles

	blocks []MessageBlock
	staged *wicket.Upload

	confirmingClose bool
	sending         bool

	// notice is a short-lived status message (send failure, staged file,
	// close failure). noticeSeq guards against a stale expiry clearing a
	// newer notice.
	notice    string
	noticeErr bool
	noticeSeq int

	fatal error // bootstrap failure; terminal for this run
	ready bool
}

// New creates a new TUI Model. pollEvery values <= 0 fall back to
// wicket.PollInterval.
func New(ctrl *wicket.Controller, initData string, theme wicket.Theme, pollEvery time.Duration) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	if pollEvery <= 0 {
		pollEvery = wicket.PollInterval
	}

	return Model{
		Input:     ti,
		ctrl:      ctrl,
		initData:  initData,
		pollEvery: pollEvery,
		theme:     theme,
		styles:    NewStyles(theme),
	}
}

// Sending returns whether a submission is in flight.
func (m Model) Sending() bool { return m.sending }

// Staged returns the file staged for the next send, if any.
func (m Model) Staged() *wicket.Upload { return m.staged }

// ConfirmingClose returns whether the close confirmation prompt is showing.
func (m Model) ConfirmingClose() bool { return m.confirmingClose }

// Notice returns the current transient status notice.
func (m Model) Notice() string { return m.notice }

// Err returns the fatal bootstrap error, if any.
func (m Model) Err() error { return m.fatal }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, bootstrap(m.ctrl, m.initData))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AuthDoneMsg:
		if msg.Err != nil {
			m.fatal = msg.Err
			m.Input.Blur()
			return m, nil
		}
		return m, tea.Batch(load(m.ctrl, 0, true), pollTick(m.pollEvery))

	case HistoryMsg:
		if msg.Err != nil {
			// Background poll failures are dropped; the next tick retries.
			if msg.Initial {
				return m.setNotice(fmt.Sprintf("could not load history: %v", msg.Err), true)
			}
			return m, nil
		}
		if msg.Initial {
			m.blocks = nil
		}
		m = m.appendMessages(msg.Messages)
		return m, nil

	case PollTickMsg:
		if m.fatal != nil || m.ctrl.State() != wicket.StateActive {
			return m, nil
		}
		return m, tea.Batch(poll(m.ctrl), pollTick(m.pollEvery))

	case SendPollMsg:
		return m, poll(m.ctrl)

	case SendDoneMsg:
		m.sending = false
		if msg.Err != nil {
			// The draft stays in the input for retry.
			return m.setNotice(fmt.Sprintf("send failed: %v", msg.Err), true)
		}
		m.Input.SetValue("")
		m.staged = nil
		return m, sendPollTimer()

	case CloseDoneMsg:
		if msg.Err != nil {
			return m.setNotice(fmt.Sprintf("close failed: %v", msg.Err), true)
		}
		m.Input.Blur()
		return m.setNotice("ticket resolved", false)

	case AttachDoneMsg:
		if msg.Err != nil {
			return m.setNotice(fmt.Sprintf("attach failed: %v", msg.Err), true)
		}
		up := msg.Upload
		m.staged = &up
		return m.setNotice(fmt.Sprintf("staged %s (%d bytes)", up.Name, len(up.Data)), false)

	case noticeExpireMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
			m.noticeErr = false
		}
		return m, nil
	}

	// Pass remaining messages to sub-components.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	if m.inputEnabled() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) inputEnabled() bool {
	return m.fatal == nil && !m.confirmingClose && m.ctrl.State() == wicket.StateActive
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := msg.Height - inputH - statusHeight - borderHeight

	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}

	m.Input.Width = msg.Width
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.confirmingClose {
		m.confirmingClose = false
		if msg.Type == tea.KeyRunes && (string(msg.Runes) == "y" || string(msg.Runes) == "Y") {
			return m, closeTicket(m.ctrl)
		}
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		if !m.inputEnabled() || m.sending {
			return m, nil
		}
		return m.submitInput(strings.TrimSpace(m.Input.Value()))
	}

	// Non-character keys also drive the viewport so PgUp/PgDn scroll the
	// transcript while typing stays with the input.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.inputEnabled() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	switch {
	case text == "/close":
		m.Input.SetValue("")
		m.confirmingClose = true
		return m, nil

	case text == "/detach":
		m.Input.SetValue("")
		m.staged = nil
		return m, nil

	case strings.HasPrefix(text, "/attach "):
		path := strings.TrimSpace(strings.TrimPrefix(text, "/attach "))
		m.Input.SetValue("")
		if path == "" {
			return m.setNotice("attach: missing path", true)
		}
		return m, attach(path)

	case text == "" && m.staged == nil:
		// Empty draft, nothing staged: no request.
		return m, nil
	}

	m.sending = true
	return m, send(m.ctrl, text, m.staged)
}

func (m Model) appendMessages(msgs []wicket.Message) Model {
	if len(msgs) == 0 {
		return m
	}
	for _, msg := range msgs {
		m.blocks = append(m.blocks, NewChatMessageBlock(msg, m.theme, m.styles))
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	if len(m.blocks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) setNotice(text string, isErr bool) (Model, tea.Cmd) {
	m.noticeSeq++
	m.notice = text
	m.noticeErr = isErr
	return m, expireNotice(m.noticeSeq)
}

func (m Model) statusLine() string {
	if m.fatal != nil {
		return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.fatal))
	}
	if m.confirmingClose {
		return m.styles.Accent.Render("Close the ticket? [y/n]")
	}
	if m.notice != "" {
		if m.noticeErr {
			return m.styles.Error.Render(m.notice)
		}
		return m.styles.Success.Render(m.notice)
	}
	if m.sending {
		return m.styles.Muted.Render("Sending...")
	}

	switch m.ctrl.State() {
	case wicket.StateClosed:
		return m.styles.Success.Render(fmt.Sprintf("Ticket #%d resolved", m.ctrl.Session().ConversationID))
	case wicket.StateActive:
		status := fmt.Sprintf("Ticket #%d", m.ctrl.Session().ConversationID)
		if m.staged != nil {
			status += fmt.Sprintf(" · %s staged", m.staged.Name)
		}
		status += " · Enter to send, /close to resolve"
		return m.styles.Muted.Render(status)
	default:
		return m.styles.Muted.Render("Connecting...")
	}
}

// bootstrap exchanges the identity payload for a session. Runs off the
// Update loop; the result comes back as AuthDoneMsg.
func bootstrap(ctrl *wicket.Controller, initData string) tea.Cmd {
	return func() tea.Msg {
		sess, err := ctrl.Bootstrap(context.Background(), initData)
		return AuthDoneMsg{Session: sess, Err: err}
	}
}

func load(ctrl *wicket.Controller, after int64, initial bool) tea.Cmd {
	return func() tea.Msg {
		msgs, err := ctrl.Load(context.Background(), after)
		return HistoryMsg{Messages: msgs, Initial: initial, Err: err}
	}
}

// poll runs one incremental fetch. Errors are intentionally not forwarded:
// a failed or skipped poll delivers an empty HistoryMsg and the next tick
// tries again.
func poll(ctrl *wicket.Controller) tea.Cmd {
	return func() tea.Msg {
		msgs, _, _ := ctrl.Poll(context.Background())
		return HistoryMsg{Messages: msgs}
	}
}

func pollTick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg { return PollTickMsg{} })
}

func sendPollTimer() tea.Cmd {
	return tea.Tick(wicket.SendPollDelay, func(time.Time) tea.Msg { return SendPollMsg{} })
}

func send(ctrl *wicket.Controller, text string, file *wicket.Upload) tea.Cmd {
	return func() tea.Msg {
		return SendDoneMsg{Err: ctrl.Send(context.Background(), text, file)}
	}
}

func closeTicket(ctrl *wicket.Controller) tea.Cmd {
	return func() tea.Msg {
		return CloseDoneMsg{Err: ctrl.Close(context.Background())}
	}
}

func attach(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return AttachDoneMsg{Err: err}
		}
		return AttachDoneMsg{Upload: wicket.Upload{Name: filepath.Base(path), Data: data}}
	}
}

func expireNotice(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpireMsg{seq: seq} })
}
