package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/wicket"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// renderer covers the markdown agents actually write in support replies:
// paragraphs, emphasis, inline code, links, lists, headings, and fenced
// code blocks. Raw HTML and images fall through to their plain text.
type renderer struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	accent    lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func newRenderer(theme wicket.Theme) *renderer {
	return &renderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		accent:    lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte, width int) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, source, width, &buf)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func (r *renderer) block(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph:
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(r.inline(n, source)))
		r.blockGap(n, buf)

	case *ast.Heading:
		styled := r.accent.Render(r.inline(n, source))
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(styled))
		r.blockGap(n, buf)

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(r.muted.Render(lang))
			buf.WriteString("\n")
		}
		gutter := r.muted.Render("│") + " "
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.WriteString(gutter + strings.TrimRight(string(line.Value(source)), "\n"))
			buf.WriteString("\n")
		}
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}

	case *ast.List:
		r.list(n, source, width, buf, 0)
		if n.NextSibling() != nil {
			buf.WriteString("\n")
		}

	default:
		// Blockquotes, HTML blocks and anything else uncommon in agent
		// replies: recurse so the text content still shows.
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.block(c, source, width, buf)
		}
	}
}

// blockGap terminates a block and inserts the blank line separating it from
// a following sibling.
func (r *renderer) blockGap(n ast.Node, buf *bytes.Buffer) {
	buf.WriteString("\n")
	if n.NextSibling() != nil {
		buf.WriteString("\n")
	}
}

func (r *renderer) list(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat("  ", depth)

		var itemBuf bytes.Buffer
		for ic := item.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				itemBuf.WriteString(r.inline(in, source))
			case *ast.List:
				if itemBuf.Len() > 0 {
					r.listItem(buf, indent, marker, itemBuf.String(), width)
					itemBuf.Reset()
				}
				r.list(in, source, width, buf, depth+1)
				marker = strings.Repeat(" ", len(marker))
			default:
				r.block(ic, source, width, &itemBuf)
			}
		}
		if itemBuf.Len() > 0 {
			r.listItem(buf, indent, marker, itemBuf.String(), width)
		}
	}
}

// listItem writes one item with continuation lines indented under the marker.
func (r *renderer) listItem(buf *bytes.Buffer, indent, marker, content string, width int) {
	prefix := indent + marker
	itemWidth := width - len(prefix)
	if itemWidth < 10 {
		itemWidth = 10
	}
	continuation := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(lipgloss.NewStyle().Width(itemWidth).Render(content), "\n") {
		if i == 0 {
			buf.WriteString(prefix + line + "\n")
		} else {
			buf.WriteString(continuation + line + "\n")
		}
	}
}

// inline collects styled inline text from a node's children.
func (r *renderer) inline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.inlineNode(c, source, &buf)
	}
	return buf.String()
}

func (r *renderer) inlineNode(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.inline(n, source)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(source))))

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inlineNode(c, source, buf)
		}
	}
}
