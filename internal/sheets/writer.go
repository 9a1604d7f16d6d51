package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ReportWriter replaces the Report tab with a fresh report.
type ReportWriter interface {
	WriteReport(ctx context.Context, report Report) (string, error)
}

// RowAppender adds one transaction to the Ledger tab.
type RowAppender interface {
	AppendTransaction(ctx context.Context, txn model.Transaction) error
}

// Writer writes reports and ledger rows to a Google spreadsheet.
type Writer struct {
	service       *sheets.Service
	logger        *slog.Logger
	loc           *time.Location
	spreadsheetID string
	config        Config
	mu            sync.Mutex
}

// NewWriter creates a new Google Sheets writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(srv, config, logger)
}

func newWriter(srv *sheets.Service, config Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc := time.UTC
	if config.TimeZone != "" {
		l, err := time.LoadLocation(config.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("invalid time zone %q: %w", config.TimeZone, err)
		}
		loc = l
	}

	return &Writer{
		service:       srv,
		config:        config,
		spreadsheetID: config.SpreadsheetID,
		loc:           loc,
		logger:        logger.With("component", "sheets"),
	}, nil
}

// Location returns the zone used for dates in written rows.
func (w *Writer) Location() *time.Location {
	return w.loc
}

// WriteReport clears the Report tab and writes report to it. It returns the
// spreadsheet ID, which is new when none was configured.
func (w *Writer) WriteReport(ctx context.Context, report Report) (string, error) {
	w.logger.Info("starting report export",
		"transactions", len(report.Transactions),
		"categories", len(report.Categories))

	spreadsheetID, err := w.ensureSpreadsheet(ctx)
	if err != nil {
		return "", err
	}

	values := report.Values()
	retryOpts := w.retryOptions()

	err = common.WithRetry(ctx, func() error {
		if clearErr := w.clearTab(ctx, spreadsheetID, ReportTab); clearErr != nil {
			return classify(clearErr)
		}
		return classify(w.writeData(ctx, spreadsheetID, ReportTab, values))
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classify(w.applyFormatting(ctx, spreadsheetID, len(values)))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report export completed",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))

	return spreadsheetID, nil
}

// AppendTransaction appends txn to the Ledger tab, writing the header first
// when the tab is empty.
func (w *Writer) AppendTransaction(ctx context.Context, txn model.Transaction) error {
	spreadsheetID, err := w.ensureSpreadsheet(ctx)
	if err != nil {
		return err
	}
	return w.appendRow(ctx, spreadsheetID, txn)
}

func (w *Writer) appendRow(ctx context.Context, spreadsheetID string, txn model.Transaction) error {
	row := NewTransactionRow(txn, w.loc).Values()

	err := common.WithRetry(ctx, func() error {
		empty, checkErr := w.tabEmpty(ctx, spreadsheetID, LedgerTab)
		if checkErr != nil {
			return classify(checkErr)
		}

		rows := [][]any{row}
		if empty {
			rows = [][]any{LedgerHeader, row}
		}

		_, appendErr := w.service.Spreadsheets.Values.Append(spreadsheetID, LedgerTab+"!A1", &sheets.ValueRange{Values: rows}).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
		return classify(appendErr)
	}, w.retryOptions())
	if err != nil {
		return fmt.Errorf("failed to append transaction %s: %w", txn.ID, err)
	}

	w.logger.Debug("appended ledger row", "transaction_id", txn.ID, "spreadsheet_id", spreadsheetID)
	return nil
}

func (w *Writer) retryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// classify marks client errors other than 429 as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// ensureSpreadsheet resolves the target spreadsheet, creating it when no ID
// is configured, and makes sure both tabs exist.
func (w *Writer) ensureSpreadsheet(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.spreadsheetID == "" {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: ReportTab}},
				{Properties: &sheets.SheetProperties{Title: LedgerTab}},
			},
		}

		created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		w.spreadsheetID = created.SpreadsheetId
		return w.spreadsheetID, nil
	}

	existing, err := w.service.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.spreadsheetID, err)
	}

	present := make(map[string]bool)
	for _, sheet := range existing.Sheets {
		if sheet.Properties != nil {
			present[sheet.Properties.Title] = true
		}
	}

	var requests []*sheets.Request
	for _, tab := range []string{ReportTab, LedgerTab} {
		if !present[tab] {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tab}},
			})
		}
	}
	if len(requests) > 0 {
		_, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("unable to add tabs: %w", err)
		}
		w.logger.Info("added missing tabs", "count", len(requests))
	}

	return w.spreadsheetID, nil
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, tab string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tab+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *Writer) tabEmpty(ctx context.Context, spreadsheetID, tab string) (bool, error) {
	resp, err := w.service.Spreadsheets.Values.Get(spreadsheetID, tab+"!A1:A1").Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return len(resp.Values) == 0, nil
}

// writeData writes values in batches to avoid API limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", tab, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}

	return nil
}

// applyFormatting bolds the title and freezes the header of the Report tab.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	existing, err := w.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return err
	}

	var sheetID int64 = -1
	for _, sheet := range existing.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == ReportTab {
			sheetID = sheet.Properties.SheetId
		}
	}
	if sheetID < 0 {
		return fmt.Errorf("tab %q not found", ReportTab)
	}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 16},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: 4,
					EndColumnIndex:   5,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "[$₹]#,##,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(len(LedgerHeader)),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err = w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).
		Do()
	return err
}

var (
	_ ReportWriter = (*Writer)(nil)
	_ RowAppender  = (*Writer)(nil)
)
