package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/shopspring/decimal"
)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// steppingClock returns a clock that advances one minute per call.
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		current := next
		next = next.Add(time.Minute)
		return current
	}
}

func createTestUser(t *testing.T, store *SQLiteStorage, email string) model.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func newTxn(amount int64, merchant string, category model.Category, registered bool) model.NewTransaction {
	return model.NewTransaction{
		Amount:               decimal.NewFromInt(amount),
		MerchantName:         merchant,
		Category:             category,
		PaymentMode:          model.PaymentModeFor(registered),
		IsRegisteredMerchant: registered,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		defer func() { _ = store.Close() }()

		if err := store.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
		if store.Path() != ":memory:" {
			t.Errorf("Path() = %q, want :memory:", store.Path())
		}
	})

	t.Run("creates parent directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "smarttrack.db")
		store, err := NewSQLiteStorage(dbPath)
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error = %v", err)
		}
		defer func() { _ = store.Close() }()

		if store.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", store.Path(), dbPath)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		if _, err := NewSQLiteStorage(" "); !errors.Is(err, ErrEmptyString) {
			t.Errorf("NewSQLiteStorage() error = %v, want ErrEmptyString", err)
		}
	})
}

func TestSQLiteStorage_Users(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	created := createTestUser(t, store, "asha@example.com")
	if created.ID == "" {
		t.Fatal("CreateUser() returned empty ID")
	}

	byEmail, err := store.GetUserByEmail(ctx, "asha@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != created.ID || byEmail.PasswordHash != "hash" {
		t.Errorf("GetUserByEmail() = %+v, want %+v", byEmail, created)
	}

	byID, err := store.GetUserByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Email != "asha@example.com" {
		t.Errorf("GetUserByID().Email = %q", byID.Email)
	}

	if _, err := store.CreateUser(ctx, "asha@example.com", "other"); !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("duplicate CreateUser() error = %v, want ErrDuplicateEntry", err)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetUserByEmail(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := store.GetUserByID(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("GetUserByID(missing) error = %v, want ErrNotFound", err)
	}

	if _, err := store.CreateUser(ctx, "not-an-email", "hash"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("CreateUser(invalid) error = %v, want ErrInvalidEmail", err)
	}
}
