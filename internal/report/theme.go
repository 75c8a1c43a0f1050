package report

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha, the subset used by CLI reports.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface2 lipgloss.Color = "#585b70"
)

const (
	colorBrand   = colorPink
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(colorBrand).Bold(true)
	sepStyle     = lipgloss.NewStyle().Foreground(colorSurface2)
	labelStyle   = lipgloss.NewStyle().Foreground(colorSubtext0)
	valueStyle   = lipgloss.NewStyle().Foreground(colorPeach)
	okStyle      = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	newStyle     = lipgloss.NewStyle().Foreground(colorInfo)
	hintStyle    = lipgloss.NewStyle().Foreground(colorOverlay1).Italic(true)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface2).
			Padding(0, 1)
)
