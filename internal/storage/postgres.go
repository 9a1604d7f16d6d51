package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStorage implements service.Storage on PostgreSQL.
type PostgresStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStorage connects to the database at dsn.
func NewPostgresStorage(dsn string) (*PostgresStorage, error) {
	if err := validateString(dsn, "dsn"); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStorage{db: db, now: time.Now}, nil
}

// Migrate applies the embedded SQL migrations.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	m, err := s.migrator()
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Debug("Postgres schema ready", "version", version, "dirty", dirty)

	return nil
}

// SchemaVersion reports the applied migration version.
func (s *PostgresStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	m, err := s.migrator()
	if err != nil {
		return 0, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return int(version), fmt.Errorf("schema version %d is dirty", version)
	}
	return int(version), nil
}

func (s *PostgresStorage) migrator() (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(postgresMigrations, "migrations/postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// ListTransactions returns the user's transactions, newest first.
func (s *PostgresStorage) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// InsertTransaction stores a new transaction for userID. A second insert with
// the same source ID returns common.ErrDuplicateEntry.
func (s *PostgresStorage) InsertTransaction(ctx context.Context, userID string, txn model.NewTransaction) (model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return model.Transaction{}, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return model.Transaction{}, err
	}
	if err := validateNewTransaction(txn); err != nil {
		return model.Transaction{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+transactionColumns,
		uuid.NewString(),
		userID,
		txn.Amount,
		txn.MerchantName,
		string(txn.Category),
		string(txn.PaymentMode),
		txn.IsRegisteredMerchant,
		occurredAt(txn, s.now),
		nullableSource(txn.SourceID),
	)

	stored, err := scanTransaction(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Transaction{}, fmt.Errorf("%w: source %s", common.ErrDuplicateEntry, txn.SourceID)
		}
		return model.Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return stored, nil
}

// CreateUser stores a new account. The email must already be normalized.
func (s *PostgresStorage) CreateUser(ctx context.Context, email, passwordHash string) (model.User, error) {
	if err := validateContext(ctx); err != nil {
		return model.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return model.User{}, err
	}
	if err := validateString(passwordHash, "passwordHash"); err != nil {
		return model.User{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		uuid.NewString(), email, passwordHash, s.now().UTC(),
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, fmt.Errorf("%w: email %s", common.ErrDuplicateEntry, email)
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

// GetUserByEmail looks up an account by normalized email.
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if err := validateContext(ctx); err != nil {
		return model.User{}, err
	}
	if err := validateString(email, "email"); err != nil {
		return model.User{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID looks up an account by ID.
func (s *PostgresStorage) GetUserByID(ctx context.Context, id string) (model.User, error) {
	if err := validateContext(ctx); err != nil {
		return model.User{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.User{}, common.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
