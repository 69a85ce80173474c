package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all the lipgloss styles for the TUI.
type Styles struct {
	// App
	App lipgloss.Style

	// Title
	Title   lipgloss.Style
	Section lipgloss.Style

	// Device list
	Device         lipgloss.Style
	DeviceSelected lipgloss.Style
	Placeholder    lipgloss.Style

	// Status
	StatusOnline  lipgloss.Style
	StatusOffline lipgloss.Style
	StatusBusy    lipgloss.Style

	// Log lines, one per message kind
	LogSystem lipgloss.Style
	LogSent   lipgloss.Style
	LogRecv   lipgloss.Style
	LogScan   lipgloss.Style

	// Content
	Input lipgloss.Style
	Muted lipgloss.Style

	// Help
	Help lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special := lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(highlight).
			Padding(0, 1),

		Section: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#343433", Dark: "#C1C6B2"}).
			Bold(true).
			MarginTop(1),

		Device: lipgloss.NewStyle(),

		DeviceSelected: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),

		Placeholder: lipgloss.NewStyle().
			Foreground(subtle).
			Italic(true),

		StatusOnline: lipgloss.NewStyle().
			Foreground(special).
			Bold(true),

		StatusOffline: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),

		StatusBusy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFCC00")),

		// grey system, blue sent, green received
		LogSystem: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#A8A8A8"}),

		LogSent: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}),

		LogRecv: lipgloss.NewStyle().
			Foreground(special),

		LogScan: lipgloss.NewStyle().
			Foreground(highlight),

		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1),

		Muted: lipgloss.NewStyle().
			Foreground(subtle),

		Help: lipgloss.NewStyle().
			Foreground(subtle).
			MarginTop(1),
	}
}
