package bubbletea

import (
	rw "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// truncate shortens s to at most width terminal cells, appending an
// ellipsis when anything was cut. Widths are measured per grapheme
// cluster so emoji and combining marks are not split.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}

	var (
		out  []byte
		used int
	)
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		w := uniseg.StringWidth(cluster)
		if used+w > width-rw.RuneWidth('…') {
			break
		}
		out = append(out, cluster...)
		used += w
	}
	return string(out) + "…"
}
