package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/ledger"
	"github.com/Veraticus/smarttrack/internal/llm"
	"github.com/Veraticus/smarttrack/internal/responder"
	"github.com/Veraticus/smarttrack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeGateway struct {
	err   error
	reply string
	asked []string
}

func (f *fakeGateway) Respond(_ context.Context, _ string, text string) (string, error) {
	f.asked = append(f.asked, text)
	return f.reply, f.err
}

type testServer struct {
	srv     *Server
	gateway *fakeGateway
	token   string
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	authService := auth.NewService(db.Storage, tokens, logger)

	l := ledger.New(db.Storage, ledger.Options{Logger: logger})
	gateway := &fakeGateway{reply: "You spent ₹180 on food."}

	opts.Logger = logger
	srv := NewServer(Deps{
		Auth:        authService,
		Ledger:      l,
		Coordinator: flow.NewCoordinator(l, nil, logger),
		Gateway:     gateway,
		Answerer:    responder.NewRules(l, time.UTC),
		Store:       db.Storage,
	}, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	session, err := authService.SignUp(context.Background(), "asha@example.com", "secret1")
	require.NoError(t, err)

	return &testServer{srv: srv, gateway: gateway, token: session.Token}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	}
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/auth/signup", "", credentialsRequest{Email: "ravi@example.com", Password: "12345"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "at least 6 characters")

	rr = ts.do(t, http.MethodPost, "/api/auth/signup", "", credentialsRequest{Email: "Asha@Example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/auth/signin", "", credentialsRequest{Email: "asha@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/auth/signin", "", credentialsRequest{Email: "asha@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rr.Code)
	session := decodeBody[auth.Session](t, rr)
	assert.NotEmpty(t, session.Token)

	rr = ts.do(t, http.MethodGet, "/api/auth/me", session.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"asha@example.com"`)
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodGet, "/api/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Unauthorized", decodeBody[errorResponse](t, rr).Error)

	rr = ts.do(t, http.MethodGet, "/api/transactions", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Invalid token", decodeBody[errorResponse](t, rr).Error)
}

func TestTransactionsEndpoints(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodPost, "/api/transactions", ts.token, map[string]any{
		"amount":                 180,
		"merchant_name":          "Cafe Coffee Day",
		"category":               "food",
		"is_registered_merchant": true,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"payment_type":"QR"`)

	rr = ts.do(t, http.MethodPost, "/api/transactions", ts.token, map[string]any{
		"amount":        50,
		"merchant_name": "Somewhere",
		"category":      "travel",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodGet, "/api/transactions", ts.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Cafe Coffee Day")

	rr = ts.do(t, http.MethodGet, "/api/transactions/by-date", ts.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"groups"`)

	rr = ts.do(t, http.MethodGet, "/api/summary?top=2", ts.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"total":"180"`)

	rr = ts.do(t, http.MethodGet, "/api/summary?top=lots", ts.token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTransaction_ImportedPayment(t *testing.T) {
	ts := newTestServer(t, Options{})
	imported := map[string]any{
		"amount":                 350,
		"merchant_name":          "Swiggy",
		"category":               "food",
		"is_registered_merchant": true,
		"occurred_at":            "2025-01-16T13:00:00Z",
		"source_id":              "plaid:tx-42",
	}

	rr := ts.do(t, http.MethodPost, "/api/transactions", ts.token, imported)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"created_at":"2025-01-16T13:00:00Z"`)
	assert.Contains(t, rr.Body.String(), `"source_id":"plaid:tx-42"`)

	rr = ts.do(t, http.MethodPost, "/api/transactions", ts.token, imported)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCategoriesEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[struct {
		Categories []categoryResponse `json:"categories"`
	}](t, rr)
	require.Len(t, body.Categories, 7)
	assert.Equal(t, "Food", body.Categories[0].Label)
	assert.True(t, body.Categories[0].PromptChoice)
}

func TestChatGateway(t *testing.T) {
	tests := []struct {
		err        error
		name       string
		reply      string
		wantBody   string
		wantStatus int
	}{
		{name: "reply", reply: "You spent ₹180 on food.", wantStatus: http.StatusOK, wantBody: "You spent ₹180 on food."},
		{name: "empty reply", reply: " ", wantStatus: http.StatusOK, wantBody: responder.MsgEmptyGeneration},
		{
			name:       "fetch failure",
			err:        common.NewUserError(responder.MsgFetchFailed, responder.ErrFetchTransactions),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Failed to fetch transactions",
		},
		{name: "not configured", err: llm.ErrNotConfigured, wantStatus: http.StatusInternalServerError, wantBody: "AI service not configured"},
		{
			name:       "rate limited",
			err:        &llm.StatusError{StatusCode: http.StatusTooManyRequests},
			wantStatus: http.StatusTooManyRequests,
			wantBody:   "Rate limit exceeded. Please try again later.",
		},
		{
			name:       "credits exhausted",
			err:        &llm.StatusError{StatusCode: http.StatusPaymentRequired},
			wantStatus: http.StatusPaymentRequired,
			wantBody:   "AI credits exhausted. Please add funds.",
		},
		{name: "other failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantBody: "AI service error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, Options{})
			ts.gateway.reply = tt.reply
			ts.gateway.err = tt.err

			rr := ts.do(t, http.MethodPost, "/api/chat", ts.token, responder.ChatRequest{Message: "food?"})
			assert.Equal(t, tt.wantStatus, rr.Code)
			body := decodeBody[responder.ChatResponse](t, rr)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, body.Response)
			} else {
				assert.Equal(t, tt.wantBody, body.Error)
			}
			assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestChatPreflight(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodOptions, "/api/chat", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "authorization")
}

func TestFlowEndpoints(t *testing.T) {
	ts := newTestServer(t, Options{})

	rr := ts.do(t, http.MethodGet, "/api/flow", ts.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"state":"idle"`)

	rr = ts.do(t, http.MethodPost, "/api/flow/choose", ts.token, chooseRequest{Category: "food"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/flow/simulate", ts.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Quick question")

	rr = ts.do(t, http.MethodPost, "/api/flow/simulate", ts.token, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/flow/choose", ts.token, chooseRequest{Category: "transport"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(t, http.MethodPost, "/api/flow/choose", ts.token, chooseRequest{Category: "Daily Needs"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	choice := decodeBody[chooseResponse](t, rr)
	assert.True(t, choice.Saved)
	require.NotNil(t, choice.Transaction)
	assert.Equal(t, flow.StateIdle, choice.Session.State)

	rr = ts.do(t, http.MethodGet, "/api/transactions", ts.token, nil)
	assert.Contains(t, rr.Body.String(), choice.Transaction.ID)

	rr = ts.do(t, http.MethodPost, "/api/flow/messages", ts.token, messageRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, rr.Code)
	msg := decodeBody[messageResponse](t, rr)
	assert.Equal(t, responder.GreetingReply, msg.Response)
}

func TestRateLimitOnPost(t *testing.T) {
	ts := newTestServer(t, Options{RateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		rr := ts.do(t, http.MethodPost, "/api/chat", ts.token, responder.ChatRequest{Message: "hi"})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := ts.do(t, http.MethodPost, "/api/chat", ts.token, responder.ChatRequest{Message: "hi"})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// GETs are not limited.
	rr = ts.do(t, http.MethodGet, "/api/flow", ts.token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBadJSON(t *testing.T) {
	ts := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rr := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
