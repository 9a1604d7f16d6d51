//go:build integration

package sheets

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/testutil"
	"github.com/stretchr/testify/require"
)

func integrationConfig(t *testing.T) Config {
	t.Helper()

	cfg := DefaultConfig()
	cfg.SpreadsheetName = "SmartTrack Report - Integration"
	cfg.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")

	if path := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			t.Skipf("service account file does not exist: %s", path)
		}
		cfg.ServiceAccountPath = path
		return cfg
	}

	cfg.ClientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
	cfg.ClientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
	cfg.RefreshToken = os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN")
	if !cfg.HasOAuth() {
		t.Skip("Google Sheets credentials not available")
	}
	return cfg
}

func TestWriter_Integration(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	writer, err := NewWriter(ctx, integrationConfig(t), logger)
	require.NoError(t, err)

	txns := testutil.NewestFirst(testutil.SampleTransactions())
	id, err := writer.WriteReport(ctx, BuildReport(txns, writer.Location(), time.Now()))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, writer.AppendTransaction(ctx, txns[0]))
}
