package llm

import (
	"fmt"
	"net/http"

	"github.com/Veraticus/smarttrack/internal/common"
)

// Gateway failures. Each wraps common.ErrGateway.
var (
	ErrRateLimited    = fmt.Errorf("%w: rate limited", common.ErrGateway)
	ErrQuotaExhausted = fmt.Errorf("%w: quota exhausted", common.ErrGateway)
	ErrUpstream       = fmt.Errorf("%w: upstream error", common.ErrGateway)
	ErrNotConfigured  = fmt.Errorf("%w: not configured", common.ErrGateway)
)

// StatusError is a non-2xx reply from a provider.
type StatusError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap maps the status onto the gateway taxonomy.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrQuotaExhausted
	default:
		return ErrUpstream
	}
}

// Retryable reports whether repeating the request could succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusRequestTimeout
}

func newStatusError(provider string, status int, body []byte) error {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &StatusError{Provider: provider, StatusCode: status, Body: string(body)}
}
