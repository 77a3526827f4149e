package bubbletea

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/wicket"
	"github.com/fwojciec/wicket/markdown"
)

var _ MessageBlock = (*ChatMessageBlock)(nil)

// ChatMessageBlock renders one conversation message. The user's own
// messages get a "> " prefix; agent messages get a header line and their
// body rendered as markdown.
type ChatMessageBlock struct {
	msg    wicket.Message
	theme  wicket.Theme
	styles Styles
}

// NewChatMessageBlock creates a ChatMessageBlock.
func NewChatMessageBlock(msg wicket.Message, theme wicket.Theme, styles Styles) *ChatMessageBlock {
	return &ChatMessageBlock{msg: msg, theme: theme, styles: styles}
}

func (b *ChatMessageBlock) Update(msg tea.Msg) (MessageBlock, tea.Cmd) {
	return b, nil
}

func (b *ChatMessageBlock) View(width int) string {
	var out string
	if b.msg.From == wicket.SideUser {
		content := b.styles.Self.Render("> ") + b.msg.Text
		out = lipgloss.NewStyle().Width(width).Render(content)
	} else {
		header := b.styles.Agent.Render("Agent")
		if !b.msg.Timestamp.IsZero() {
			header += " " + b.styles.Muted.Render(b.msg.Timestamp.Format("15:04"))
		}
		out = header
		if b.msg.Text != "" {
			out += "\n" + markdown.Render(b.msg.Text, width, b.theme)
		}
	}

	for _, a := range b.msg.Attachments {
		line := fmt.Sprintf("↳ %s (%s)", a.Name, a.URL)
		out += "\n" + b.styles.Muted.Render(truncate(line, width))
	}
	return out
}
