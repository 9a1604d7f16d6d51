package tui

import (
	"fmt"

	"github.com/Veraticus/smarttrack/internal/flow"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the chat and blocks until the user quits or the configured
// context is canceled.
func Run(f Flow, answerer flow.Answerer, opts ...Option) error {
	if f == nil {
		return fmt.Errorf("flow is required")
	}
	if answerer == nil {
		return fmt.Errorf("answerer is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	programOpts := []tea.ProgramOption{tea.WithContext(cfg.Context)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	program := tea.NewProgram(NewModel(f, answerer, opts...), programOpts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
