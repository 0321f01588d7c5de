package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	orange = lipgloss.AdaptiveColor{Light: "#EA580C", Dark: "#FB923C"}
	green  = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	red    = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	yellow = lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#FACC15"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
)

// Styles used by the views
var (
	Title   = lipgloss.NewStyle().Bold(true).Foreground(orange)
	Muted   = lipgloss.NewStyle().Foreground(muted)
	Success = lipgloss.NewStyle().Foreground(green)
	Error   = lipgloss.NewStyle().Foreground(red)
	Warning = lipgloss.NewStyle().Foreground(yellow)
	Amount  = lipgloss.NewStyle().Bold(true).Foreground(green)
)

// Status renders a transaction status in its color
func Status(status string) string {
	switch strings.ToLower(status) {
	case "success":
		return Success.Render(status)
	case "failed":
		return Error.Render(status)
	case "pending":
		return Warning.Render(status)
	default:
		return status
	}
}
