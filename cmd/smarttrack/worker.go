package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/events"
	"github.com/Veraticus/smarttrack/internal/sheets"
	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror new transactions into Google Sheets",
		Long: `Consume transaction.created events from the broker at amqp.url and append
each transaction to the Ledger tab of the configured spreadsheet.

Failed appends are requeued. Stop with ctrl+c.`,
		RunE: runWorker,
	}
}

func runWorker(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.AMQP.URL == "" {
		return fmt.Errorf("amqp.url is required")
	}

	sc, err := cfg.SheetsWriterConfig()
	if err != nil {
		return fmt.Errorf("google sheets is not configured: %w", err)
	}
	logger := common.Component("worker")
	writer, err := sheets.NewWriter(ctx, sc, logger)
	if err != nil {
		return err
	}

	client, err := events.NewClient(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to event broker: %w", err)
	}
	defer func() { _ = client.Close() }()

	err = client.Consume(ctx, sheets.AppendHandler(writer, logger))
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
