// Package api serves the SmartTrack JSON API: accounts, transactions,
// summaries, the categorization flow and the AI chat gateway.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Veraticus/smarttrack/internal/aggregate"
	"github.com/Veraticus/smarttrack/internal/auth"
	"github.com/Veraticus/smarttrack/internal/flow"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/responder"
)

// Authenticator signs users up and in and resolves tokens.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (auth.Session, error)
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	CurrentUser(ctx context.Context, token string) (model.User, error)
}

// Ledger reads and records transactions.
type Ledger interface {
	Transactions(ctx context.Context, userID string) ([]model.Transaction, error)
	Record(ctx context.Context, userID string, txn model.NewTransaction) (model.Transaction, error)
	Summary(ctx context.Context, userID string, topN int) (aggregate.Summary, error)
	ByDate(ctx context.Context, userID string) ([]aggregate.DateGroup, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the API.
type Deps struct {
	Auth        Authenticator
	Ledger      Ledger
	Coordinator *flow.Coordinator
	// Gateway answers POST /api/chat.
	Gateway responder.Responder
	// Answerer replies to chat messages sent through the flow.
	Answerer responder.Responder
	Store    Pinger
}

// Options configures the HTTP server.
type Options struct {
	Logger             *slog.Logger
	Addr               string
	AllowedOrigin      string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	RateLimitPerMinute int
}

// Server is the API's HTTP server.
type Server struct {
	http.Server
	deps         Deps
	limiter      *rateLimiter
	logger       *slog.Logger
	origin       string
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware into a ready-to-run server.
func NewServer(deps Deps, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = 60
	}
	if deps.Answerer == nil {
		deps.Answerer = deps.Gateway
	}

	s := &Server{
		deps:    deps,
		limiter: newRateLimiter(opts.RateLimitPerMinute, time.Minute),
		logger:  opts.Logger.With("component", "api"),
		origin:  opts.AllowedOrigin,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	mux.HandleFunc("GET /api/auth/me", s.authed(s.handleMe))

	mux.HandleFunc("GET /api/categories", handleCategories)

	mux.HandleFunc("GET /api/transactions", s.authed(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.authed(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/by-date", s.authed(s.handleTransactionsByDate))
	mux.HandleFunc("GET /api/summary", s.authed(s.handleSummary))

	mux.HandleFunc("POST /api/chat", s.authed(s.handleChat))

	mux.HandleFunc("GET /api/flow", s.authed(s.handleFlow))
	mux.HandleFunc("POST /api/flow/simulate", s.authed(s.handleSimulate))
	mux.HandleFunc("POST /api/flow/choose", s.authed(s.handleChoose))
	mux.HandleFunc("POST /api/flow/messages", s.authed(s.handleFlowMessage))

	mux.HandleFunc("OPTIONS /api/", handlePreflight)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.withRequestLogging(s.withSecurityHeaders(s.withCORS(s.withRateLimit(mux)))),
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.WriteTimeout,
	}

	return s
}

// Run serves until ctx is canceled, then shuts down within shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- s.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
