package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/smarttrack/internal/api"
	"github.com/Veraticus/smarttrack/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const cacheCleanupInterval = time.Minute

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the SmartTrack HTTP API.

The server answers chat questions with the rules or ai responder, records
categorized payments and publishes transaction.created events when
amqp.url is set.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, appOptions{events: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		a.cfg.Server.Addr = addr
	}
	if err := a.cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if a.cfg.Responder.Mode == config.ResponderRemote {
		return fmt.Errorf("responder.mode %q cannot be used by the server; use %q or %q",
			config.ResponderRemote, config.ResponderRules, config.ResponderAI)
	}

	answerer, err := a.newResponder(ctx)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Deps{
		Auth:        a.auth,
		Ledger:      a.ledger,
		Coordinator: a.coordinator(),
		Gateway:     answerer,
		Answerer:    answerer,
		Store:       a.store,
	}, api.Options{
		Logger:             a.logger,
		Addr:               a.cfg.Server.Addr,
		AllowedOrigin:      a.cfg.Server.AllowedOrigin,
		ReadTimeout:        a.cfg.Server.ReadTimeout,
		WriteTimeout:       a.cfg.Server.WriteTimeout,
		RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, a.cfg.Server.ShutdownTimeout)
	})
	g.Go(func() error {
		a.ledger.RunCleanup(gctx, cacheCleanupInterval)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
