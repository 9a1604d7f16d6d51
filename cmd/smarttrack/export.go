package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smarttrack/internal/cli"
	"github.com/Veraticus/smarttrack/internal/sheets"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your ledger",
	}

	cmd.AddCommand(exportSheetsCmd())

	return cmd
}

func exportSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Write the spending report to Google Sheets",
		Long: `Replace the Report tab of the configured spreadsheet with a fresh summary
and transaction list.

Authenticate with a service account (sheets.service_account_path) or run
'smarttrack sheets auth' once to store an OAuth refresh token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, userID, err := signedIn(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			sc, err := a.cfg.SheetsWriterConfig()
			if err != nil {
				return fmt.Errorf("google sheets is not configured: %w", err)
			}
			writer, err := sheets.NewWriter(ctx, sc, a.logger)
			if err != nil {
				return err
			}

			txns, err := a.ledger.Transactions(ctx, userID)
			if err != nil {
				return err
			}

			url, err := writer.WriteReport(ctx, sheets.BuildReport(txns, a.loc, time.Now()))
			if err != nil {
				return err
			}
			slog.Debug("Exported report", "transactions", len(txns))
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Report written to "+url))
			return nil
		},
	}
}

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage the Google Sheets connection",
	}

	auth := &cobra.Command{
		Use:   "auth",
		Short: "Authorize SmartTrack to write to Google Sheets",
		Long: `Run the Google OAuth2 consent flow in your browser and save the refresh
token to sheets.token_path.`,
		RunE: runSheetsAuth,
	}
	auth.Flags().Bool("force", false, "Run the consent flow even if a token is saved")
	auth.Flags().String("callback", sheets.DefaultCallbackAddr, "Address for the local OAuth callback")

	cmd.AddCommand(auth)
	return cmd
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	callback, _ := cmd.Flags().GetString("callback")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	clientID, clientSecret := cfg.SheetsOAuthClient()
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("sheets.client_id and sheets.client_secret are required for OAuth")
	}

	out := cmd.OutOrStdout()
	oauth := sheets.OAuth2Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenFile:    cfg.Sheets.TokenPath,
		CallbackAddr: callback,
		Open: func(url string) {
			fmt.Fprintln(out, cli.FormatInfo("Open this URL to authorize SmartTrack:"))
			fmt.Fprintln(out, url)
		},
	}

	if force {
		_, err = sheets.AuthenticateOAuth2Interactive(cmd.Context(), oauth)
	} else {
		_, err = sheets.GetOrCreateToken(cmd.Context(), oauth)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess("Google Sheets authorized. Token saved to "+cfg.Sheets.TokenPath))
	return nil
}
