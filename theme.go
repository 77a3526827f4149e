package wicket

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	Self    int // own messages
	Agent   int // agent name label
	Error   int // error notices
	Success int // success notices
	Muted   int // status bar, timestamps, attachment labels
	Accent  int // headings and links in agent markdown
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Self:    4,
		Agent:   6,
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
	}
}
