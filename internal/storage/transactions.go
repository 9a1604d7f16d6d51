package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const transactionColumns = `id, user_id, amount, merchant_name, category, payment_type, is_registered_merchant, created_at, source_id`

// ListTransactions returns the user's transactions, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// InsertTransaction stores a new transaction for userID. A second insert with
// the same source ID returns common.ErrDuplicateEntry.
func (s *SQLiteStorage) InsertTransaction(ctx context.Context, userID string, txn model.NewTransaction) (model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return model.Transaction{}, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return model.Transaction{}, err
	}
	if err := validateNewTransaction(txn); err != nil {
		return model.Transaction{}, err
	}

	stored := model.Transaction{
		ID:                   uuid.NewString(),
		UserID:               userID,
		Amount:               txn.Amount,
		MerchantName:         txn.MerchantName,
		Category:             txn.Category,
		PaymentMode:          txn.PaymentMode,
		SourceID:             txn.SourceID,
		IsRegisteredMerchant: txn.IsRegisteredMerchant,
		CreatedAt:            occurredAt(txn, s.now),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stored.ID,
		stored.UserID,
		stored.Amount.String(),
		stored.MerchantName,
		string(stored.Category),
		string(stored.PaymentMode),
		stored.IsRegisteredMerchant,
		stored.CreatedAt,
		nullableSource(stored.SourceID),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return model.Transaction{}, fmt.Errorf("%w: source %s", common.ErrDuplicateEntry, txn.SourceID)
		}
		return model.Transaction{}, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return stored, nil
}

// occurredAt is the stored timestamp of txn: its own date when imported,
// otherwise now.
func occurredAt(txn model.NewTransaction, now func() time.Time) time.Time {
	if !txn.OccurredAt.IsZero() {
		return txn.OccurredAt.UTC()
	}
	return now().UTC()
}

func nullableSource(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		txn      model.Transaction
		category string
		payment  string
		source   sql.NullString
	)
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Amount,
		&txn.MerchantName,
		&category,
		&payment,
		&txn.IsRegisteredMerchant,
		&txn.CreatedAt,
		&source,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.SourceID = source.String
	txn.Category = model.Category(category)
	txn.PaymentMode = model.PaymentMode(payment)
	txn.CreatedAt = txn.CreatedAt.UTC()
	return txn, nil
}
