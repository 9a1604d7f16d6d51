package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, strings.HasSuffix(cfg.Database.Path, filepath.Join("smarttrack", "smarttrack.db")))
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60, cfg.Server.RateLimitPerMinute)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, ResponderRules, cfg.Responder.Mode)
	assert.Equal(t, "smarttrack", cfg.AMQP.Exchange)
	assert.Equal(t, "transactions.created", cfg.AMQP.Queue)
	assert.Equal(t, "Asia/Kolkata", cfg.App.TimeZone)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SMARTTRACK_LLM_API_KEY", "sk-test")
	t.Setenv("SMARTTRACK_RESPONDER_MODE", "AI")
	t.Setenv("SMARTTRACK_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("SMARTTRACK_DATABASE_DRIVER", "postgres")
	t.Setenv("SMARTTRACK_DATABASE_DSN", "postgres://localhost/smarttrack")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, ResponderAI, cfg.Responder.Mode)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "responder:\n  mode: remote\n  server_url: http://api.local\napp:\n  timezone: UTC\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ResponderRemote, cfg.Responder.Mode)
	assert.Equal(t, "http://api.local", cfg.Responder.ServerURL)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database:  DatabaseConfig{Driver: "sqlite", Path: "/tmp/st.db"},
			Responder: ResponderConfig{Mode: ResponderRules},
			Auth:      AuthConfig{TokenTTL: time.Hour},
			App:       AppConfig{TimeZone: "UTC"},
		}
	}

	tests := []struct {
		mutate func(*Config)
		name   string
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:   "unknown driver",
			mutate: func(c *Config) { c.Database.Driver = "mysql" },
			errMsg: "unsupported database.driver",
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *Config) { c.Database.Driver = "postgres" },
			errMsg: "database.dsn is required",
		},
		{
			name:   "unknown responder",
			mutate: func(c *Config) { c.Responder.Mode = "magic" },
			errMsg: "unsupported responder.mode",
		},
		{
			name: "remote without url",
			mutate: func(c *Config) {
				c.Responder.Mode = ResponderRemote
				c.Responder.ServerURL = ""
			},
			errMsg: "responder.server_url is required",
		},
		{
			name:   "bad timezone",
			mutate: func(c *Config) { c.App.TimeZone = "Mars/Olympus" },
			errMsg: "invalid app.timezone",
		},
		{
			name:   "zero token ttl",
			mutate: func(c *Config) { c.Auth.TokenTTL = 0 },
			errMsg: "auth.token_ttl must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_ValidateServer(t *testing.T) {
	cfg := Config{
		Database:  DatabaseConfig{Driver: "sqlite", Path: "/tmp/st.db"},
		Responder: ResponderConfig{Mode: ResponderRules},
		Auth:      AuthConfig{TokenTTL: time.Hour, JWTSecret: "short"},
		Server:    ServerConfig{RateLimitPerMinute: 60},
	}
	assert.ErrorContains(t, cfg.ValidateServer(), "jwt_secret")

	cfg.Auth.JWTSecret = strings.Repeat("s", 32)
	assert.NoError(t, cfg.ValidateServer())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SMARTTRACK_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/smarttrack/db", want: filepath.Join(home, "smarttrack/db")},
		{in: "$SMARTTRACK_TEST_DIR/st.db", want: "/data/st.db"},
		{in: "/abs/path", want: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestConfig_SheetsWriterConfig(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "")

	t.Run("environment fallback and saved token", func(t *testing.T) {
		tokenPath := filepath.Join(t.TempDir(), "google-token.json")
		require.NoError(t, os.WriteFile(tokenPath, []byte(`{"refresh_token":"saved-refresh"}`), 0o600))

		cfg := Config{
			Sheets: SheetsConfig{TokenPath: tokenPath, SpreadsheetID: "sheet-1"},
			App:    AppConfig{TimeZone: "UTC"},
		}
		sc, err := cfg.SheetsWriterConfig()
		require.NoError(t, err)

		assert.Equal(t, "env-client", sc.ClientID)
		assert.Equal(t, "env-secret", sc.ClientSecret)
		assert.Equal(t, "saved-refresh", sc.RefreshToken)
		assert.Equal(t, "sheet-1", sc.SpreadsheetID)
		assert.Equal(t, "UTC", sc.TimeZone)
	})

	t.Run("service account wins over saved token", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
		cfg := Config{Sheets: SheetsConfig{ServiceAccountPath: "/keys/sa.json", TokenPath: "/nonexistent"}}
		sc, err := cfg.SheetsWriterConfig()
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", sc.ServiceAccountPath)
		assert.Equal(t, "SmartTrack Report", sc.SpreadsheetName)
	})

	t.Run("no credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
		_, err := Config{}.SheetsWriterConfig()
		assert.ErrorContains(t, err, "no authentication method configured")
	})
}

func TestConfig_SheetsOAuthClient(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "env-secret")

	id, secret := Config{}.SheetsOAuthClient()
	assert.Equal(t, "env-client", id)
	assert.Equal(t, "env-secret", secret)

	id, secret = Config{Sheets: SheetsConfig{ClientID: "cfg-client", ClientSecret: "cfg-secret"}}.SheetsOAuthClient()
	assert.Equal(t, "cfg-client", id)
	assert.Equal(t, "cfg-secret", secret)
}
