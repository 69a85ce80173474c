package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vitaminmoo/blecon/internal/bridge"
	"github.com/vitaminmoo/blecon/internal/config"
)

// Run starts the TUI application. When the program exits the bridge is
// shut down and its worker joined, even if the TUI failed.
func Run(b *bridge.Bridge, cfg *config.Config) error {
	defer b.ShutdownAndJoin()

	m := NewModel(b, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}

	return nil
}
