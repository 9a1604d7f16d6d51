package auth

import (
	"context"

	"github.com/Veraticus/smarttrack/internal/model"
)

type contextKey struct{}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(contextKey{}).(model.User)
	return user, ok
}
