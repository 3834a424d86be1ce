package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorOK      = lipgloss.Color("#00D26A")
	colorWarn    = lipgloss.Color("#FFB800")
	colorFail    = lipgloss.Color("#FF4444")
	colorLink    = lipgloss.Color("#00B4D8")
	colorTon     = lipgloss.Color("#0098EA")
	colorDim     = lipgloss.Color("#6C6C6C")
	colorOutline = lipgloss.Color("#1E3A5F")
)

var (
	StyleSuccess  = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	StyleWarning  = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
	StyleError    = lipgloss.NewStyle().Foreground(colorFail).Bold(true)
	StyleAddress  = lipgloss.NewStyle().Foreground(colorLink)
	StyleMeta     = lipgloss.NewStyle().Foreground(colorDim)
	StyleTitle    = lipgloss.NewStyle().Foreground(colorTon).Bold(true)
	StyleSelected = lipgloss.NewStyle().Foreground(colorTon).Bold(true)
	StyleHeader   = lipgloss.NewStyle().Foreground(colorTon).Bold(true).Underline(true)
	StyleBox      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorOutline).
			Padding(0, 1)
)

// Success formats a success line.
func Success(msg string) string { return StyleSuccess.Render("✓ " + msg) }

// Warn formats a non-fatal warning.
func Warn(msg string) string { return StyleWarning.Render("⚠ " + msg) }

// Err formats a fatal error.
func Err(msg string) string { return StyleError.Render("✗ " + msg) }

// Addr highlights an address, hash or link.
func Addr(a string) string { return StyleAddress.Render(a) }

// Meta dims secondary text.
func Meta(m string) string { return StyleMeta.Render(m) }

// Outcome renders a transaction result word: green when ok, red otherwise.
func Outcome(ok bool) string {
	if ok {
		return StyleSuccess.Render("ok")
	}
	return StyleError.Render("failed")
}

// TruncateAddr shortens an address or hash for table cells: EQAb12…9xYz.
func TruncateAddr(s string) string {
	r := []rune(s)
	if len(r) <= 14 {
		return s
	}
	return string(r[:6]) + "…" + string(r[len(r)-4:])
}
