package tui

import (
	"context"
	"time"

	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/model"
	tea "github.com/charmbracelet/bubbletea"
)

const operationTimeout = 60 * time.Second

// Flow is the part of the categorization coordinator the chat drives.
type Flow interface {
	Snapshot(userID string) flow.Session
	Simulate(userID string) (flow.Session, error)
	Choose(ctx context.Context, userID string, category model.Category) (flow.Session, *model.Transaction, error)
	Ask(ctx context.Context, userID, text string, answerer flow.Answerer) (string, flow.Session)
}

// simulate opens a prompt for a synthesized payment.
func (m Model) simulate() tea.Cmd {
	f, userID := m.flow, m.userID
	return func() tea.Msg {
		session, err := f.Simulate(userID)
		return simulatedMsg{session: session, err: err}
	}
}

// choose saves the pending payment under c.
func (m Model) choose(c model.Category) tea.Cmd {
	f, userID, parent := m.flow, m.userID, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, operationTimeout)
		defer cancel()

		session, txn, err := f.Choose(ctx, userID, c)
		return savedMsg{session: session, transaction: txn, err: err}
	}
}

// ask sends a question to the responder.
func (m Model) ask(text string) tea.Cmd {
	f, userID, parent, answerer := m.flow, m.userID, m.ctx, m.answerer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, operationTimeout)
		defer cancel()

		reply, session := f.Ask(ctx, userID, text, answerer)
		return answeredMsg{reply: reply, session: session}
	}
}
