package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vidshare/internal/model"
)

type accountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates the identity account store.
func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	query := `
		INSERT INTO vidshare.accounts (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowxContext(ctx, query, a.ID, a.Email, a.Name, a.PasswordHash).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*model.Account, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM vidshare.accounts
		WHERE id = $1
	`
	var a model.Account
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return &a, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM vidshare.accounts
		WHERE email = $1
	`
	var a model.Account
	if err := r.db.GetContext(ctx, &a, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &a, nil
}

// Delete removes an account. Its sessions go with it (ON DELETE CASCADE).
func (r *accountRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vidshare.accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// ExistsByEmail checks if an email is already registered
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM vidshare.accounts WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}
