// Package cli provides the line-mode terminal surface: styled output, the
// categorization prompt and spending reports.
package cli

import (
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	violet = lipgloss.Color("#6C5CE7")
	teal   = lipgloss.Color("#4ECDC4")
	amber  = lipgloss.Color("#FFE66D")
	coral  = lipgloss.Color("#FF6B6B")
	mint   = lipgloss.Color("#95E1D3")
	money  = lipgloss.Color("#00B894")
	slate  = lipgloss.Color("#666666")
)

var (
	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(violet).MarginBottom(1)
	// SuccessStyle formats confirmations.
	SuccessStyle = lipgloss.NewStyle().Foreground(teal)
	// SubtleStyle formats secondary text such as times and hints.
	SubtleStyle = lipgloss.NewStyle().Foreground(slate)
	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().Bold(true)
	// AmountStyle formats rupee amounts.
	AmountStyle = lipgloss.NewStyle().Bold(true).Foreground(money)
	// ProgressStyle is used for summary bars.
	ProgressStyle = lipgloss.NewStyle().Foreground(violet)
	// PromptStyle is used for user prompts.
	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(violet)

	warningStyle = lipgloss.NewStyle().Foreground(amber)
	errorStyle   = lipgloss.NewStyle().Foreground(coral)
	infoStyle    = lipgloss.NewStyle().Foreground(mint)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)
)

// Icons.
const (
	WalletIcon = "👛"
	ChatIcon   = "💬"
	ChartIcon  = "📊"
	CheckIcon  = "✅"
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string {
	return SuccessStyle.Render("✓ " + message)
}

// FormatError prefixes message with a cross.
func FormatError(message string) string {
	return errorStyle.Render("✗ " + message)
}

// FormatWarning prefixes message with a warning sign.
func FormatWarning(message string) string {
	return warningStyle.Render("⚠️ " + message)
}

// FormatInfo prefixes message with an info sign.
func FormatInfo(message string) string {
	return infoStyle.Render("ℹ️ " + message)
}

var categoryColors = map[string]lipgloss.Color{
	"orange": lipgloss.Color("#E17055"),
	"blue":   lipgloss.Color("#0984E3"),
	"green":  lipgloss.Color("#00B894"),
	"purple": lipgloss.Color("#A29BFE"),
	"pink":   lipgloss.Color("#FD79A8"),
	"yellow": lipgloss.Color("#FDCB6E"),
	"gray":   lipgloss.Color("#B2BEC3"),
}

// CategoryStyle returns the style carrying c's registry color.
func CategoryStyle(c model.Category) lipgloss.Style {
	color, ok := categoryColors[c.Info().Color]
	if !ok {
		color = slate
	}
	return lipgloss.NewStyle().Foreground(color)
}

// FormatCategory renders c's glyph and label in its color.
func FormatCategory(c model.Category) string {
	return CategoryStyle(c).Render(c.Display())
}

// FormatPrompt formats a prompt message.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox renders content under title in a rounded box.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.UnsetMargins().Render(title),
		content))
}
