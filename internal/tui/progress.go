package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressState tracks a timed operation, such as a scan, whose end is
// known only when it happens.
type ProgressState struct {
	progress    progress.Model
	started     time.Time
	expected    time.Duration
	percent     float64
	description string
	isActive    bool
}

// NewProgressState creates a new progress tracking state.
func NewProgressState() ProgressState {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)
	return ProgressState{
		progress: p,
	}
}

// Start begins tracking an operation expected to take about expected.
func (p *ProgressState) Start(description string, expected time.Duration, now time.Time) {
	p.isActive = true
	p.percent = 0
	p.description = description
	p.started = now
	p.expected = expected
}

// Tick advances the bar by elapsed time. It stops short of full until
// Complete is called.
func (p *ProgressState) Tick(now time.Time) {
	if !p.isActive || p.expected <= 0 {
		return
	}
	p.percent = min(float64(now.Sub(p.started))/float64(p.expected), 0.95)
}

// Complete marks the operation as complete.
func (p *ProgressState) Complete() {
	p.percent = 1.0
	p.isActive = false
}

// IsActive returns whether an operation is in progress.
func (p *ProgressState) IsActive() bool {
	return p.isActive
}

// Percent returns the current fill, 0.0 to 1.0.
func (p *ProgressState) Percent() float64 {
	return p.percent
}

// View renders the progress bar.
func (p ProgressState) View() string {
	if !p.isActive {
		return ""
	}
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	return descStyle.Render(p.description) + "\n" + p.progress.ViewAs(p.percent)
}
