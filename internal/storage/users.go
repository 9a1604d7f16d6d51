package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/smarttrack/internal/common"
	"github.com/Veraticus/smarttrack/internal/model"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const userColumns = `id, email, password_hash, created_at`

// CreateUser stores a new account. The email must already be normalized.
func (s *SQLiteStorage) CreateUser(ctx context.Context, email, passwordHash string) (model.User, error) {
	if err := validateContext(ctx); err != nil {
		return model.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return model.User{}, err
	}
	if err := validateString(passwordHash, "passwordHash"); err != nil {
		return model.User{}, err
	}

	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return model.User{}, fmt.Errorf("%w: email %s", common.ErrDuplicateEntry, email)
		}
		return model.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// GetUserByEmail looks up an account by normalized email.
func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if err := validateContext(ctx); err != nil {
		return model.User{}, err
	}
	if err := validateString(email, "email"); err != nil {
		return model.User{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// GetUserByID looks up an account by ID.
func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (model.User, error) {
	if err := validateContext(ctx); err != nil {
		return model.User{}, err
	}
	if err := validateString(id, "id"); err != nil {
		return model.User{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row rowScanner) (model.User, error) {
	var user model.User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, common.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to scan user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
