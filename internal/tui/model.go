// Package tui is the bubbletea chat: the assistant conversation, simulated
// payments and one-key categorization.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Notices shown under the message log.
const (
	noticePending = "Please categorize the pending payment first."
	noticeBusy    = "Still working on the last request..."
)

const (
	headerHeight = 2
	footerHeight = 4
)

// Model holds the chat state.
type Model struct {
	ctx      context.Context
	flow     Flow
	answerer flow.Answerer
	logger   *slog.Logger
	theme    themes.Theme
	keymap   KeyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	session  flow.Session
	userID   string
	notice   string
	echo     string
	errored  bool
	width    int
	height   int
	busy     bool
	quitting bool
}

// NewModel creates the chat for userID's session in f. Questions go to
// answerer.
func NewModel(f Flow, answerer flow.Answerer, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Ask about your spending..."
	input.Prompt = "› "
	input.CharLimit = 500
	input.Focus()

	m := Model{
		ctx:      cfg.Context,
		flow:     f,
		answerer: answerer,
		logger:   cfg.Logger.With("component", "tui"),
		theme:    cfg.Theme,
		keymap:   DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(cfg.Width, max(cfg.Height-headerHeight-footerHeight, 1)),
		input:    input,
		session:  f.Snapshot(cfg.UserID),
		userID:   cfg.UserID,
		width:    cfg.Width,
		height:   cfg.Height,
	}
	m.resize()
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case simulatedMsg:
		m.busy = false
		m.session = msg.session
		switch {
		case errors.Is(msg.err, flow.ErrPaymentPending):
			m.setNotice(noticePending, false)
		case msg.err != nil:
			m.logger.Error("Failed to simulate payment", "error", msg.err)
			m.setNotice(msg.err.Error(), true)
		default:
			m.setNotice("", false)
		}
		m.refresh()
		return m, nil

	case savedMsg:
		m.busy = false
		m.session = msg.session
		switch {
		case msg.err != nil:
			m.setNotice(msg.err.Error(), true)
		case msg.transaction == nil:
			m.setNotice(flow.SaveFailedMessage, true)
		default:
			m.setNotice("", false)
		}
		m.refresh()
		return m, nil

	case answeredMsg:
		m.busy = false
		m.echo = ""
		m.session = msg.session
		m.setNotice("", false)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		return m, nil

	case key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keymap.Simulate):
		if m.busy {
			m.setNotice(noticeBusy, false)
			return m, nil
		}
		if m.session.State != flow.StateIdle {
			m.setNotice(noticePending, false)
			return m, nil
		}
		m.busy = true
		return m, m.simulate()

	case key.Matches(msg, m.keymap.Choose) && m.input.Value() == "":
		if m.session.State != flow.StateAwaitingCategory {
			// Digits go to the input when nothing is pending.
			break
		}
		if m.busy {
			m.setNotice(noticeBusy, false)
			return m, nil
		}
		c, ok := choiceForKey(msg.String())
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.choose(c)

	case key.Matches(msg, m.keymap.Send):
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		if m.busy {
			m.setNotice(noticeBusy, false)
			return m, nil
		}
		if m.session.State == flow.StateAwaitingCategory {
			if c, ok := model.ClosestCategory(text); ok && offeredChoice(c) {
				m.input.Reset()
				m.busy = true
				return m, m.choose(c)
			}
		}
		m.input.Reset()
		m.busy = true
		m.echo = text
		m.refresh()
		return m, m.ask(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func choiceForKey(k string) (model.Category, bool) {
	choices := model.PromptChoices()
	if len(k) != 1 || k[0] < '1' || int(k[0]-'0') > len(choices) {
		return "", false
	}
	return choices[k[0]-'1'], true
}

func offeredChoice(c model.Category) bool {
	for _, choice := range model.PromptChoices() {
		if c == choice {
			return true
		}
	}
	return false
}

func (m *Model) setNotice(text string, isError bool) {
	m.notice = text
	m.errored = isError
}

func (m *Model) resize() {
	footer := footerHeight
	if m.help.ShowAll {
		footer++
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-headerHeight-footer, 1)
	m.input.Width = max(m.width-4, 10)
	m.help.Width = m.width
}

// refresh re-renders the message log and keeps it scrolled to the bottom.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

// Session returns the session shown by the chat.
func (m Model) Session() flow.Session {
	return m.session
}
