package storage

import (
	"context"
	"testing"
)

func TestMigrate_ReachesExpectedVersion(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, ExpectedSchemaVersion)
	}

	// A second run is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestMigrate_CreatesTablesAndIndex(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, name := range []string{"users", "transactions", "idx_transactions_user_created", "idx_transactions_user_source"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = ?`, name).Scan(&count)
		if err != nil {
			t.Fatalf("query sqlite_master for %s: %v", name, err)
		}
		if count != 1 {
			t.Errorf("%s missing after migration", name)
		}
	}
}

func TestMigrate_PaymentTypeConstraint(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	user := createTestUser(t, store, "check@example.com")

	_, err := store.db.Exec(`
		INSERT INTO transactions (id, user_id, amount, merchant_name, category, payment_type, is_registered_merchant, created_at)
		VALUES ('t1', ?, '10', 'Uber', 'transport', 'CARD', 1, CURRENT_TIMESTAMP)
	`, user.ID)
	if err == nil {
		t.Error("insert with payment_type CARD succeeded, want CHECK failure")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "mysql"}); err == nil {
		t.Error("Open(mysql) succeeded, want error")
	}

	store, err := Open(Config{Driver: DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	_ = store.Close()
}
