// Package themes holds the color schemes of the chat terminal UI.
package themes

import (
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles the chat renders with.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Bold          lipgloss.Style
	Assistant     lipgloss.Style
	User          lipgloss.Style
	Choice        lipgloss.Style
	Timestamp     lipgloss.Style
	StatusInfo    lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	categories    map[string]lipgloss.Color
	muted         lipgloss.Color
}

// Category returns the style for c, keyed by its registry color name.
func (t Theme) Category(c model.Category) lipgloss.Style {
	color, ok := t.categories[c.Info().Color]
	if !ok {
		color = t.muted
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

type palette struct {
	categories map[string]lipgloss.Color
	accent     lipgloss.Color
	accentSoft lipgloss.Color
	text       lipgloss.Color
	onAccent   lipgloss.Color
	subtext    lipgloss.Color
	border     lipgloss.Color
	muted      lipgloss.Color
	info       lipgloss.Color
	warning    lipgloss.Color
	danger     lipgloss.Color
}

func (p palette) theme() Theme {
	bubble := lipgloss.NewStyle().Padding(0, 1)
	status := lipgloss.NewStyle().Bold(true)

	return Theme{
		Title:         lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Subtitle:      lipgloss.NewStyle().Foreground(p.subtext),
		Bold:          lipgloss.NewStyle().Bold(true).Foreground(p.text),
		Assistant:     bubble.Border(lipgloss.RoundedBorder()).BorderForeground(p.border),
		User:          bubble.Background(p.accent).Foreground(p.onAccent),
		Choice:        lipgloss.NewStyle().Foreground(p.accentSoft),
		Timestamp:     lipgloss.NewStyle().Foreground(p.muted).Italic(true),
		StatusInfo:    status.Foreground(p.info),
		StatusError:   status.Foreground(p.danger),
		StatusWarning: status.Foreground(p.warning),
		categories:    p.categories,
		muted:         p.muted,
	}
}

// Default is the default theme.
var Default = palette{
	accent:     "#7c3aed",
	accentSoft: "#a78bfa",
	text:       "#fafafa",
	onAccent:   "#fafafa",
	subtext:    "#a3a3a3",
	border:     "#404040",
	muted:      "#737373",
	info:       "#3b82f6",
	warning:    "#f59e0b",
	danger:     "#ef4444",
	categories: map[string]lipgloss.Color{
		"orange": "#f97316",
		"blue":   "#3b82f6",
		"green":  "#10b981",
		"purple": "#8b5cf6",
		"pink":   "#ec4899",
		"yellow": "#eab308",
		"gray":   "#737373",
	},
}.theme()

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = palette{
	accent:     "#cba6f7",
	accentSoft: "#f5c2e7",
	text:       "#cdd6f4",
	onAccent:   "#1e1e2e",
	subtext:    "#a6adc8",
	border:     "#45475a",
	muted:      "#6c7086",
	info:       "#89dceb",
	warning:    "#f9e2af",
	danger:     "#f38ba8",
	categories: map[string]lipgloss.Color{
		"orange": "#fab387",
		"blue":   "#89b4fa",
		"green":  "#a6e3a1",
		"purple": "#cba6f7",
		"pink":   "#f5c2e7",
		"yellow": "#f9e2af",
		"gray":   "#6c7086",
	},
}.theme()

// ByName returns the named theme, falling back to Default.
func ByName(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
