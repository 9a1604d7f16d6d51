package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/service"
)

// GuardedClient wraps a provider with a rate limiter, a response cache and
// retries for transient failures.
type GuardedClient struct {
	client      Client
	cache       *responseCache
	logger      *slog.Logger
	rateLimiter *rateLimiter
	retryOpts   service.RetryOptions
}

// NewGuardedClient wraps client using the limits in cfg.
func NewGuardedClient(client Client, cfg Config, logger *slog.Logger) *GuardedClient {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &GuardedClient{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		logger:      logger.With("component", "llm"),
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

// New builds a guarded client for the configured provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*GuardedClient, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewGuardedClient(client, cfg, logger), nil
}

// Chat returns a cached reply when available, otherwise calls the provider.
func (g *GuardedClient) Chat(ctx context.Context, req Request) (Response, error) {
	key := cacheKey(req)
	if content, ok := g.cache.get(key); ok {
		g.logger.Debug("cache hit for chat request")
		return Response{Content: content}, nil
	}

	var resp Response
	err := common.WithRetry(ctx, func() error {
		if err := g.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		var callErr error
		resp, callErr = g.client.Chat(ctx, req)
		if callErr == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(callErr, &statusErr) && !statusErr.Retryable() {
			return &common.RetryableError{Err: callErr, Retryable: false}
		}
		if errors.Is(callErr, ErrNotConfigured) || errors.Is(callErr, context.Canceled) {
			return &common.RetryableError{Err: callErr, Retryable: false}
		}
		return callErr
	}, g.retryOpts)
	if err != nil {
		g.logger.Warn("chat request failed", "error", err)
		return Response{}, err
	}

	if resp.Content != "" {
		g.cache.set(key, resp.Content)
	}
	return resp, nil
}

// Close stops background goroutines and releases the provider.
func (g *GuardedClient) Close() error {
	g.rateLimiter.Close()
	g.cache.Close()
	if closer, ok := g.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
