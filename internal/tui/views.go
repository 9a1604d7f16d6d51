package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/format"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderNotice(),
		m.input.View(),
		m.help.View(m.keymap),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("👛 SmartTrack")
	status := "Ask me anything about your spending"
	switch m.session.State {
	case flow.StateAwaitingCategory:
		status = "Waiting for a category"
	case flow.StateSaving:
		status = "Saving..."
	}
	return title + "  " + m.theme.Subtitle.Render(status) + "\n"
}

func (m Model) renderNotice() string {
	switch {
	case m.notice == "" && m.busy:
		return m.theme.StatusInfo.Render("…")
	case m.notice == "":
		return ""
	case m.errored:
		return m.theme.StatusError.Render("✗ " + m.notice)
	default:
		return m.theme.StatusWarning.Render("⚠ " + m.notice)
	}
}

func (m Model) renderMessages() string {
	width := max(m.width-4, 20)
	blocks := make([]string, 0, len(m.session.Messages)+1)

	for _, msg := range m.session.Messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	if m.echo != "" {
		blocks = append(blocks, m.renderUser(m.echo, "", width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderMessage(msg model.ChatMessage, width int) string {
	stamp := format.Time(msg.Timestamp.Local())
	if msg.Role == model.RoleUser {
		return m.renderUser(msg.Content, stamp, width)
	}

	body := m.renderBold(msg.Content)
	if msg.CategoryPrompt && m.isActivePrompt(msg) {
		body += "\n\n" + m.renderChoices()
	}
	bubble := m.theme.Assistant.Width(min(width, 72)).Render(body)
	return bubble + "\n" + m.theme.Timestamp.Render(stamp)
}

func (m Model) renderUser(text, stamp string, width int) string {
	bubble := m.theme.User.MaxWidth(min(width, 72)).Render(text)
	out := lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	if stamp != "" {
		out += "\n" + lipgloss.PlaceHorizontal(width, lipgloss.Right, m.theme.Timestamp.Render(stamp))
	}
	return out
}

func (m Model) isActivePrompt(msg model.ChatMessage) bool {
	return m.session.State == flow.StateAwaitingCategory &&
		m.session.Pending != nil &&
		m.session.Pending.ID == msg.PendingID
}

func (m Model) renderChoices() string {
	var b strings.Builder
	for i, c := range model.PromptChoices() {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(m.theme.Choice.Render(fmt.Sprintf("[%d]", i+1)))
		b.WriteString(" ")
		b.WriteString(m.theme.Category(c).Render(c.Display()))
	}
	return b.String()
}

// renderBold styles **bold** spans. Unbalanced markers are left as typed.
func (m Model) renderBold(text string) string {
	parts := strings.Split(text, "**")
	if len(parts)%2 == 0 {
		return text
	}
	var b strings.Builder
	for i, part := range parts {
		if i%2 == 1 {
			b.WriteString(m.theme.Bold.Render(part))
			continue
		}
		b.WriteString(part)
	}
	return b.String()
}
