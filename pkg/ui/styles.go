package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/theapemachine/ukg/pkg/types"
)

// UI color scheme
var (
	red    = lipgloss.AdaptiveColor{Light: "#FE5F86", Dark: "#FE5F86"}
	indigo = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	green  = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#02BF87"}
	blue   = lipgloss.AdaptiveColor{Light: "#1E88E5", Dark: "#42A5F5"}
	yellow = lipgloss.AdaptiveColor{Light: "#FFC107", Dark: "#FFD54F"}
	gray   = lipgloss.AdaptiveColor{Light: "#9E9E9E", Dark: "#BDBDBD"}
)

var (
	senderStyle = lipgloss.NewStyle().
			Foreground(blue).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(indigo).
			Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(gray)

	responseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(indigo).
			PaddingLeft(1)
)

// levelStyles colour the badge of each processing level.
var levelStyles = map[types.ProcessingLevel]lipgloss.Style{
	types.LevelEntry:      lipgloss.NewStyle().Bold(true).Foreground(gray),
	types.LevelSimulation: lipgloss.NewStyle().Bold(true).Foreground(green),
	types.LevelEscalation: lipgloss.NewStyle().Bold(true).Foreground(yellow),
}

func levelStyle(level types.ProcessingLevel) lipgloss.Style {
	if style, ok := levelStyles[level]; ok {
		return style
	}

	return metaStyle
}

/*
confidenceStyle is green at or above high, red below low, and yellow in
between.
*/
func confidenceStyle(confidence, low, high float64) lipgloss.Style {
	switch {
	case confidence >= high:
		return lipgloss.NewStyle().Foreground(green)
	case confidence < low:
		return lipgloss.NewStyle().Foreground(red)
	default:
		return lipgloss.NewStyle().Foreground(yellow)
	}
}
