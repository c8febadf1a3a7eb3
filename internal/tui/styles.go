package tui

import "github.com/charmbracelet/lipgloss"

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorLavender lipgloss.Color = "#b4befe"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	countStyle     = lipgloss.NewStyle().Foreground(colorLavender)
	cursorStyle    = lipgloss.NewStyle().Foreground(colorPink).Bold(true)
	nameStyle      = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(colorOverlay1)
	followingStyle = lipgloss.NewStyle().Foreground(colorOverlay1).Border(lipgloss.RoundedBorder(), false, true).Padding(0, 1)
	followStyle    = lipgloss.NewStyle().Foreground(colorPink).Bold(true).Border(lipgloss.RoundedBorder(), false, true).Padding(0, 1)
	likedStyle     = lipgloss.NewStyle().Foreground(colorRed)
	emptyStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSurface1).Padding(1, 3)
	toastStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	toastErrStyle  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	modalStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPeach).Padding(0, 1)
)
