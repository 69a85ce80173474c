package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vitaminmoo/blecon/internal/bridge"
	"github.com/vitaminmoo/blecon/internal/config"
)

// Bridge is the part of the device bridge the console drives. None of
// these calls block.
type Bridge interface {
	Submit(cmd bridge.Command)
	DrainMessages() []bridge.Message
	Busy() bool
	State() bridge.State
}

type focus int

const (
	focusDevices focus = iota
	focusInput
)

// Model is the main Bubbletea model for the TUI.
type Model struct {
	bridge Bridge
	cfg    *config.Config
	width  int
	height int

	// Data
	devices []string
	cursor  int
	scanned bool
	lines   []bridge.Message
	state   bridge.State
	busy    bool
	focus   focus

	// Components
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	scan    ProgressState
	styles  Styles
}

// frameMsg drives the fixed-rate frame loop.
type frameMsg time.Time

// NewModel creates a new TUI model.
func NewModel(b Bridge, cfg *config.Config) Model {
	h := help.New()
	h.ShowAll = false // Use ShortHelp for horizontal layout

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	in := textinput.New()
	in.Placeholder = "text to send"
	in.Prompt = "> "
	in.CharLimit = 512

	return Model{
		bridge:  b,
		cfg:     cfg,
		keys:    DefaultKeyMap(),
		help:    h,
		spinner: s,
		input:   in,
		scan:    NewProgressState(),
		styles:  DefaultStyles(),
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.frameCmd(), m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.focus == focusInput {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-12, 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case frameMsg:
		m.frame(time.Time(msg))
		return m, m.frameCmd()
	}

	return m, nil
}

// frame drains the bridge once. It runs every frame whether or not
// anything arrived.
func (m *Model) frame(now time.Time) {
	for _, msg := range m.bridge.DrainMessages() {
		if r, ok := msg.(bridge.ScanResult); ok {
			m.devices = uniqueNames(r.Names)
			m.cursor = 0
			m.scanned = true
			continue
		}
		m.lines = append(m.lines, msg)
	}
	if over := len(m.lines) - m.cfg.MessageCap; over > 0 {
		m.lines = append([]bridge.Message(nil), m.lines[over:]...)
	}

	m.state = m.bridge.State()
	m.busy = m.bridge.Busy()

	if m.scan.IsActive() {
		if m.busy {
			m.scan.Tick(now)
		} else {
			m.scan.Complete()
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Scan):
		m.bridge.Submit(bridge.Scan{})
		m.busy = true
		m.scan.Start("Scanning...", m.cfg.ScanDuration, time.Now())
		return m, nil

	case key.Matches(msg, m.keys.Connect):
		if name, ok := m.selected(); ok {
			m.bridge.Submit(bridge.Connect{Name: name})
			m.busy = true
		}
		return m, nil

	case key.Matches(msg, m.keys.Disconnect):
		m.bridge.Submit(bridge.Disconnect{})
		m.busy = true
		return m, nil

	case key.Matches(msg, m.keys.Input):
		m.focus = focusInput
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Quick):
		m.bridge.Submit(bridge.SendText(m.cfg.QuickPayload))
		m.busy = true
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.lines = nil
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Send):
		if text := m.input.Value(); text != "" {
			m.bridge.Submit(bridge.SendText(text))
			m.busy = true
			m.input.Reset()
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.focus = focusDevices
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// selected returns the device under the cursor. The "no devices found"
// placeholder is not selectable.
func (m Model) selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.devices) {
		return "", false
	}
	return m.devices[m.cursor], true
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTitleBar("blecon"))
	b.WriteString("\n")

	b.WriteString(m.styles.Section.Render("Devices"))
	b.WriteString("\n")
	b.WriteString(m.viewDevices())

	if p := m.scan.View(); p != "" {
		b.WriteString("\n")
		b.WriteString(p)
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Section.Render("Log"))
	b.WriteString("\n")
	b.WriteString(m.viewLog())

	b.WriteString("\n")
	b.WriteString(m.styles.Input.Render(m.input.View()))

	helpView := m.styles.Help.Render(m.help.View(m.keys))

	return m.styles.App.Render(
		b.String() + "\n" + helpView,
	)
}

// renderTitleBar renders the title with connection status.
func (m Model) renderTitleBar(title string) string {
	parts := []string{m.styles.Title.Render(title)}

	switch m.state {
	case bridge.StateConnected:
		parts = append(parts, m.styles.StatusOnline.Render("● connected"))
	case bridge.StateClosed:
		parts = append(parts, m.styles.StatusOffline.Render("✕ closed"))
	case bridge.StateIdle:
		parts = append(parts, m.styles.StatusOffline.Render("○ offline"))
	default:
		parts = append(parts, m.styles.StatusBusy.Render(m.state.String()+"..."))
	}

	if m.busy {
		parts = append(parts, m.spinner.View())
	}

	return strings.Join(parts, "  ")
}

func (m Model) viewDevices() string {
	if !m.scanned {
		return m.styles.Muted.Render(fmt.Sprintf("press '%s' to scan", m.keys.Scan.Help().Key)) + "\n"
	}
	if len(m.devices) == 0 {
		return m.styles.Placeholder.Render("no devices found") + "\n"
	}

	var b strings.Builder
	for i, name := range m.devices {
		if i == m.cursor && m.focus == focusDevices {
			b.WriteString(m.styles.DeviceSelected.Render("> " + name))
		} else {
			b.WriteString(m.styles.Device.Render("  " + name))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewLog() string {
	if len(m.lines) == 0 {
		return m.styles.Muted.Render("(empty)") + "\n"
	}

	var b strings.Builder
	for _, msg := range m.lines {
		b.WriteString(m.logStyle(msg).Render(bridge.Format(msg)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) logStyle(msg bridge.Message) lipgloss.Style {
	switch msg.(type) {
	case bridge.Sent:
		return m.styles.LogSent
	case bridge.Received:
		return m.styles.LogRecv
	case bridge.ScanResult:
		return m.styles.LogScan
	default:
		return m.styles.LogSystem
	}
}

// frameCmd returns a command that fires the next frame.
func (m Model) frameCmd() tea.Cmd {
	return tea.Tick(m.cfg.FrameInterval(), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// uniqueNames keeps the first occurrence of each name. Connecting to a
// duplicated name reaches its first sighting anyway.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
