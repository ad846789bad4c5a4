package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Store is the durable mapping of username/email to account records.
// FindByUsername reports a missing account as sql.ErrNoRows.
type Store interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}

	return exists, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (Account, error) {
	var account Account
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_digest, full_name, is_active, created_at
		FROM users
		WHERE username = $1
	`, username).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordDigest,
		&account.FullName,
		&account.IsActive,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("query account by username: %w", err)
	}

	return account, nil
}

// Create inserts the account and returns it with the assigned id. The
// unique indexes on username and email are the backstop for the
// pre-check race: a concurrent claim of either value surfaces here as
// the matching duplicate error instead of a silent overwrite.
func (r *Repository) Create(ctx context.Context, account Account) (Account, error) {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_digest, full_name, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, account.Username, account.Email, account.PasswordDigest, account.FullName, account.IsActive, account.CreatedAt).
		Scan(&account.ID)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return Account{}, dup
		}
		return Account{}, fmt.Errorf("insert account: %w", err)
	}

	return account, nil
}

func duplicateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}

	switch pgErr.ConstraintName {
	case "users_username_key":
		return ErrDuplicateUsername
	case "users_email_key":
		return ErrDuplicateEmail
	default:
		return nil
	}
}
