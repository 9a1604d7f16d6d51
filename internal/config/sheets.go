package config

import (
	"os"

	"github.com/Veraticus/smarttrack/internal/sheets"
)

// SheetsWriterConfig builds the writer configuration. Unset credentials fall
// back to the GOOGLE_SHEETS_* variables, and a refresh token saved by
// `smarttrack sheets auth` is used when none is configured.
func (c Config) SheetsWriterConfig() (sheets.Config, error) {
	sc := sheets.DefaultConfig()
	s := c.Sheets

	sc.ServiceAccountPath = firstNonEmpty(s.ServiceAccountPath, ExpandPath(os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")))
	sc.ClientID, sc.ClientSecret = c.SheetsOAuthClient()
	sc.RefreshToken = firstNonEmpty(s.RefreshToken, os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	sc.SpreadsheetID = firstNonEmpty(s.SpreadsheetID, os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	sc.SpreadsheetName = firstNonEmpty(s.SpreadsheetName, os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"), sc.SpreadsheetName)
	if c.App.TimeZone != "" {
		sc.TimeZone = c.App.TimeZone
	}

	if sc.ServiceAccountPath == "" && sc.RefreshToken == "" && s.TokenPath != "" {
		if token, err := sheets.LoadToken(s.TokenPath); err == nil {
			sc.RefreshToken = token.RefreshToken
		}
	}

	if err := sc.Validate(); err != nil {
		return sheets.Config{}, err
	}
	return sc, nil
}

// SheetsOAuthClient returns the OAuth2 client credentials used by
// `smarttrack sheets auth`.
func (c Config) SheetsOAuthClient() (clientID, clientSecret string) {
	return firstNonEmpty(c.Sheets.ClientID, os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
		firstNonEmpty(c.Sheets.ClientSecret, os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
