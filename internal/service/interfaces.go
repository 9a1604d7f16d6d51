// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/smarttrack/internal/model"
)

// TransactionStore persists a user's transactions.
type TransactionStore interface {
	// ListTransactions returns the user's transactions, newest first.
	ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
	// InsertTransaction stores a new transaction and returns it with the
	// store-assigned ID and creation time.
	InsertTransaction(ctx context.Context, userID string, txn model.NewTransaction) (model.Transaction, error)
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// Storage is the complete persistence layer.
type Storage interface {
	TransactionStore
	UserStore

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces ledger changes to other processes.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, txn model.Transaction) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
