// Package testutil provides shared fixtures and database helpers for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/Veraticus/smarttrack/internal/storage"
)

// TestDB wraps a migrated in-memory database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{Storage: store, t: t}
}

// MustCreateUser inserts an account and returns it.
func (db *TestDB) MustCreateUser(email string) model.User {
	db.t.Helper()
	user, err := db.Storage.CreateUser(context.Background(), email, "not-a-real-hash")
	if err != nil {
		db.t.Fatalf("failed to create user %q: %v", email, err)
	}
	return user
}

// MustInsert stores each transaction for userID in order.
func (db *TestDB) MustInsert(userID string, txns ...model.NewTransaction) []model.Transaction {
	db.t.Helper()
	stored := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		saved, err := db.Storage.InsertTransaction(context.Background(), userID, txn)
		if err != nil {
			db.t.Fatalf("failed to insert transaction at %q: %v", txn.MerchantName, err)
		}
		stored = append(stored, saved)
	}
	return stored
}
