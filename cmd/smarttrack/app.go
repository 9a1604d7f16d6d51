package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/config"
	"github.com/Veraticus/smarttrack/internal/events"
	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/ledger"
	"github.com/Veraticus/smarttrack/internal/llm"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/responder"
	"github.com/Veraticus/smarttrack/internal/service"
	"github.com/Veraticus/smarttrack/internal/storage"
	"github.com/spf13/viper"
)

// errNotSignedIn is returned by commands that need an account.
var errNotSignedIn = errors.New("not signed in: run 'smarttrack auth signin' first")

// app holds the services a command needs. Close releases them in reverse
// order of creation.
type app struct {
	cfg       config.Config
	store     service.Storage
	ledger    *ledger.Ledger
	auth      *auth.Service
	publisher service.EventPublisher
	logger    *slog.Logger
	loc       *time.Location
	closers   []func() error
}

type appOptions struct {
	// events publishes transaction.created when amqp.url is set.
	events bool
}

// loadConfig materializes and validates the configuration. An unset JWT
// secret is replaced by a locally generated one so the CLI and a local
// server agree on tokens.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := localSecret(filepath.Join(config.Dir(), "secret"))
		if err != nil {
			return config.Config{}, err
		}
		cfg.Auth.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// localSecret reads the signing secret at path, creating it on first use.
func localSecret(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is under the config directory
	if err == nil {
		if secret := strings.TrimSpace(string(data)); len(secret) >= 32 {
			return secret, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	if err := config.EnsureParentDir(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(secret+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return secret, nil
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		loc:       loc,
		logger:    slog.Default(),
		publisher: events.NopPublisher{},
	}

	if cfg.Database.Driver == storage.DriverSQLite {
		if err := config.EnsureParentDir(cfg.Database.Path); err != nil {
			return nil, err
		}
	}

	store, err := storage.Open(storage.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	if err := store.Migrate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if opts.events && cfg.AMQP.URL != "" {
		client, err := events.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, a.logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to event broker: %w", err)
		}
		a.publisher = client
		a.closers = append(a.closers, client.Close)
	}

	a.ledger = ledger.New(store, ledger.Options{
		Publisher: a.publisher,
		Location:  loc,
		Logger:    a.logger,
	})

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}
	a.auth = auth.NewService(store, tokens, a.logger)

	return a, nil
}

// Close releases every resource the app opened.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			common.LogError(err, "Failed to close resource", nil)
		}
	}
	a.closers = nil
}

// token returns the saved session token.
func (a *app) token() (string, error) {
	token, err := auth.LoadToken(a.cfg.Auth.TokenPath)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			return "", errNotSignedIn
		}
		return "", err
	}
	return token, nil
}

// currentUser resolves the signed-in account.
func (a *app) currentUser(ctx context.Context) (model.User, error) {
	token, err := a.token()
	if err != nil {
		return model.User{}, err
	}
	user, err := a.auth.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, common.ErrNotFound) {
			return model.User{}, fmt.Errorf("session expired: %w", errNotSignedIn)
		}
		return model.User{}, err
	}
	return user, nil
}

// coordinator creates a categorization flow saving through the ledger.
func (a *app) coordinator() *flow.Coordinator {
	return flow.NewCoordinator(a.ledger, nil, a.logger)
}

// newResponder builds the configured free-text strategy.
func (a *app) newResponder(ctx context.Context) (responder.Responder, error) {
	switch a.cfg.Responder.Mode {
	case config.ResponderAI:
		client, err := llm.New(ctx, llmConfig(a.cfg.LLM), a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return responder.NewAssistant(a.ledger, client, a.logger), nil

	case config.ResponderRemote:
		token, err := a.token()
		if err != nil {
			return nil, err
		}
		return responder.NewRemote(a.cfg.Responder.ServerURL, token, a.cfg.Responder.Timeout), nil

	default:
		return responder.NewRules(a.ledger, a.loc), nil
	}
}

func llmConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		Provider:    c.Provider,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		MaxRetries:  c.MaxRetries,
		RetryDelay:  c.RetryDelay,
		CacheTTL:    c.CacheTTL,
		RateLimit:   c.RateLimit,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
}
