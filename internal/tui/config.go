package tui

import (
	"context"
	"log/slog"

	"github.com/Veraticus/smarttrack/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Context   context.Context
	Logger    *slog.Logger
	Theme     themes.Theme
	UserID    string
	Width     int
	Height    int
	AltScreen bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Context:   context.Background(),
		Logger:    slog.Default(),
		Theme:     themes.Default,
		Width:     80,
		Height:    24,
		AltScreen: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithUserID sets the user whose session the chat drives.
func WithUserID(userID string) Option {
	return func(c *Config) {
		c.UserID = userID
	}
}

// WithContext sets the context passed to saves and questions.
func WithContext(ctx context.Context) Option {
	return func(c *Config) {
		c.Context = ctx
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
