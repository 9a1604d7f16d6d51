package llm

import "time"

// Provider names accepted by NewClient.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultGatewayURL is the OpenAI-compatible gateway used when no base URL is set.
const DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1"

// DefaultGatewayModel is requested from the gateway when no model is set.
const DefaultGatewayModel = "google/gemini-3-flash-preview"

// Config holds configuration for LLM clients.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
}
