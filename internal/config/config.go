package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // app.timezone must resolve on hosts without zoneinfo

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SMARTTRACK_LLM_API_KEY.
const EnvPrefix = "SMARTTRACK"

// Responder modes.
const (
	ResponderRules  = "rules"
	ResponderAI     = "ai"
	ResponderRemote = "remote"
)

// Config holds application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Responder ResponderConfig `mapstructure:"responder"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	Plaid     PlaidConfig     `mapstructure:"plaid"`
	Sheets    SheetsConfig    `mapstructure:"sheets"`
	App       AppConfig       `mapstructure:"app"`
}

// DatabaseConfig selects the store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr               string        `mapstructure:"addr"`
	AllowedOrigin      string        `mapstructure:"allowed_origin"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute"`
}

// AuthConfig configures token issuing.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenPath string        `mapstructure:"token_path"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LLMConfig holds provider settings.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Temperature float64       `mapstructure:"temperature"`
	MaxRetries  int           `mapstructure:"max_retries"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	RateLimit   int           `mapstructure:"rate_limit"`
}

// ResponderConfig selects the free-text query strategy.
type ResponderConfig struct {
	Mode      string        `mapstructure:"mode"`
	ServerURL string        `mapstructure:"server_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// AMQPConfig configures transaction events. An empty URL disables them.
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

// PlaidConfig holds bank feed credentials.
type PlaidConfig struct {
	ClientID    string `mapstructure:"client_id"`
	Secret      string `mapstructure:"secret"`
	Environment string `mapstructure:"environment"`
	AccessToken string `mapstructure:"access_token"`
}

// SheetsConfig holds Google Sheets export settings.
type SheetsConfig struct {
	ServiceAccountPath string `mapstructure:"service_account_path"`
	ClientID           string `mapstructure:"client_id"`
	ClientSecret       string `mapstructure:"client_secret"`
	RefreshToken       string `mapstructure:"refresh_token"`
	TokenPath          string `mapstructure:"token_path"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	SpreadsheetName    string `mapstructure:"spreadsheet_name"`
}

// AppConfig holds presentation settings.
type AppConfig struct {
	TimeZone string `mapstructure:"timezone"`
}

// Dir returns the configuration directory.
func Dir() string {
	return ExpandPath("~/.config/smarttrack")
}

// SetDefaults registers every key with its default so environment overrides
// are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join(Dir(), "smarttrack.db"))
	v.SetDefault("database.dsn", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origin", "*")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit_per_minute", 60)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_path", filepath.Join(Dir(), "token"))
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 5*time.Minute)
	v.SetDefault("llm.rate_limit", 60)

	v.SetDefault("responder.mode", ResponderRules)
	v.SetDefault("responder.server_url", "http://localhost:8080")
	v.SetDefault("responder.timeout", 60*time.Second)

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "smarttrack")
	v.SetDefault("amqp.queue", "transactions.created")

	v.SetDefault("plaid.client_id", "")
	v.SetDefault("plaid.secret", "")
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("plaid.access_token", "")

	v.SetDefault("sheets.service_account_path", "")
	v.SetDefault("sheets.client_id", "")
	v.SetDefault("sheets.client_secret", "")
	v.SetDefault("sheets.refresh_token", "")
	v.SetDefault("sheets.token_path", filepath.Join(Dir(), "google-token.json"))
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.spreadsheet_name", "SmartTrack Report")

	v.SetDefault("app.timezone", "Asia/Kolkata")
}

// Load materializes the configuration held by v. The caller is responsible
// for reading any config file and enabling environment overrides.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Database.Path = ExpandPath(c.Database.Path)
	c.Auth.TokenPath = ExpandPath(c.Auth.TokenPath)
	c.Sheets.ServiceAccountPath = ExpandPath(c.Sheets.ServiceAccountPath)
	c.Sheets.TokenPath = ExpandPath(c.Sheets.TokenPath)
	c.Responder.Mode = strings.ToLower(strings.TrimSpace(c.Responder.Mode))

	return c, nil
}

// Validate checks settings shared by every command.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Responder.Mode {
	case ResponderRules, ResponderAI:
	case ResponderRemote:
		if c.Responder.ServerURL == "" {
			return fmt.Errorf("responder.server_url is required in remote mode")
		}
	default:
		return fmt.Errorf("unsupported responder.mode %q", c.Responder.Mode)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	return nil
}

// ValidateServer checks settings needed by the HTTP server.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit_per_minute must be positive")
	}
	return nil
}

// Location resolves the display time zone.
func (c Config) Location() (*time.Location, error) {
	if c.App.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.App.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid app.timezone %q: %w", c.App.TimeZone, err)
	}
	return loc, nil
}
