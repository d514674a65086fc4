package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// UIColors 定义统一的颜色主题
type UIColors struct {
	Gray      lipgloss.Color
	Blue      lipgloss.Color
	Green     lipgloss.Color
	Yellow    lipgloss.Color
	Red       lipgloss.Color
	DarkGreen lipgloss.Color
	DarkBlue  lipgloss.Color
}

// DefaultColors 返回默认的颜色主题
func DefaultColors() UIColors {
	return UIColors{
		Gray:      lipgloss.Color("245"),
		Blue:      lipgloss.Color("39"),
		Green:     lipgloss.Color("42"),
		Yellow:    lipgloss.Color("220"),
		Red:       lipgloss.Color("196"),
		DarkGreen: lipgloss.Color("22"),
		DarkBlue:  lipgloss.Color("19"),
	}
}

// UIStyles 定义统一的样式
type UIStyles struct {
	Colors   UIColors
	Success  lipgloss.Style
	Pending  lipgloss.Style
	Warning  lipgloss.Style
	Progress lipgloss.Style
}

// DefaultStyles 返回默认的样式集
func DefaultStyles() UIStyles {
	colors := DefaultColors()
	return UIStyles{
		Colors: colors,
		Success: lipgloss.NewStyle().
			Foreground(colors.Green).
			Background(colors.DarkGreen).
			Bold(true).
			Padding(0, 1),
		Pending: lipgloss.NewStyle().
			Foreground(colors.Blue).
			Background(colors.DarkBlue).
			Bold(true).
			Padding(0, 1),
		Warning:  lipgloss.NewStyle().Foreground(colors.Yellow).Padding(0, 1),
		Progress: lipgloss.NewStyle().Foreground(colors.Yellow),
	}
}

// Bar kinds.
const (
	BarPending = iota
	BarSuccess
	BarWarning
)

// StatusBar 渲染带样式的状态条
func StatusBar(message string, kind int) string {
	styles := DefaultStyles()
	switch kind {
	case BarSuccess:
		return styles.Success.Render("✓ " + message)
	case BarWarning:
		return styles.Warning.Render("! " + message)
	default:
		return styles.Pending.Render("▶ " + message)
	}
}
