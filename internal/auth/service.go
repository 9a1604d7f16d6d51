// Package auth signs users up and in, and resolves bearer tokens to users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/service"
)

// Auth errors. Each wraps common.ErrAuthentication or common.ErrValidation.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", common.ErrAuthentication)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", common.ErrAuthentication)
	ErrMissingToken       = fmt.Errorf("%w: missing token", common.ErrAuthentication)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", common.ErrValidation)
	ErrWeakPassword       = fmt.Errorf("%w: password too short", common.ErrValidation)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email", common.ErrValidation)
)

// Session is the result of a successful sign-in.
type Session struct {
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
	Token     string     `json:"token"`
}

// Service implements the auth provider over a user store.
type Service struct {
	users  service.UserStore
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService creates an auth service.
func NewService(users service.UserStore, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, tokens: tokens, logger: logger.With("component", "auth")}
}

// NormalizeEmail trims and lowercases email and checks that it is a bare
// address.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (Session, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return Session{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	user, err := s.users.CreateUser(ctx, normalized, hash)
	if errors.Is(err, common.ErrDuplicateEntry) {
		return Session{}, ErrEmailTaken
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID)
	return s.session(user)
}

// SignIn checks credentials and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, normalized)
	if errors.Is(err, common.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, err
	}

	return s.session(user)
}

// CurrentUser resolves a token to its user.
func (s *Service) CurrentUser(ctx context.Context, token string) (model.User, error) {
	if strings.TrimSpace(token) == "" {
		return model.User{}, ErrMissingToken
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, common.ErrNotFound) {
		return model.User{}, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *Service) session(user model.User) (Session, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	if strings.EqualFold(header, "bearer") {
		return "", ErrInvalidToken
	}
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	if header == "" {
		return "", ErrInvalidToken
	}
	return header, nil
}
