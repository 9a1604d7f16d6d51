package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/service"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply of POST /api/chat. Exactly one field is set.
type ChatResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Remote asks a SmartTrack server's chat endpoint. The server resolves the
// user from the bearer token, so the userID argument is ignored.
type Remote struct {
	httpClient *http.Client
	baseURL    string
	token      string
	retry      service.RetryOptions
}

// NewRemote creates a client for the server at baseURL.
func NewRemote(baseURL, token string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Remote{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		},
	}
}

// Respond posts text and returns the server's reply.
func (r *Remote) Respond(ctx context.Context, _ string, text string) (string, error) {
	body, err := json.Marshal(ChatRequest{Message: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var reply ChatResponse
	var status int
	err = common.WithRetry(ctx, func() error {
		var postErr error
		status, reply, postErr = r.post(ctx, body)
		return postErr
	}, r.retry)
	if err != nil {
		return "", err
	}

	if status != http.StatusOK {
		msg := reply.Error
		if msg == "" {
			msg = MsgServiceError
		}
		base := common.ErrGateway
		if status == http.StatusUnauthorized {
			base = common.ErrAuthentication
		}
		return "", common.NewUserError(msg, fmt.Errorf("%w: server returned status %d", base, status))
	}

	if reply.Response == "" && reply.Error != "" {
		return reply.Error, nil
	}
	return reply.Response, nil
}

func (r *Remote) post(ctx context.Context, body []byte) (int, ChatResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return 0, ChatResponse{}, &common.RetryableError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, ChatResponse{}, &common.RetryableError{Err: err}
		}
		return 0, ChatResponse{}, &common.RetryableError{Err: fmt.Errorf("%w: %w", common.ErrNetwork, err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, ChatResponse{}, &common.RetryableError{Err: fmt.Errorf("%w: read response: %w", common.ErrNetwork, err), Retryable: true}
	}

	var reply ChatResponse
	if err := json.Unmarshal(data, &reply); err != nil {
		return 0, ChatResponse{}, &common.RetryableError{
			Err: fmt.Errorf("%w: decode response (status %d): %w", common.ErrGateway, resp.StatusCode, err),
		}
	}
	return resp.StatusCode, reply, nil
}
