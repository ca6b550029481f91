package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vidshare/internal/model"
)

var userColumns = []string{"id", "account_id", "email", "username", "avatar", "created_at"}

// userRepository implements UserRepository using sqlx
type userRepository struct {
	db    *sqlx.DB
	table table
}

// NewUserRepository binds the users table identified by databaseID/tableID.
func NewUserRepository(db *sqlx.DB, databaseID, tableID string) UserRepository {
	return &userRepository{
		db:    db,
		table: table{schema: databaseID, name: tableID, columns: userColumns},
	}
}

// Create inserts a new user row; the database assigns created_at.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, account_id, email, username, avatar)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, r.table.qualified())

	err := r.db.QueryRowxContext(ctx, query,
		u.ID,
		u.AccountID,
		u.Email,
		u.Username,
		u.Avatar,
	).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// List returns user rows matching the predicates.
func (r *userRepository) List(ctx context.Context, queries ...Query) ([]model.User, error) {
	query, args, err := buildSelect(r.table, queries)
	if err != nil {
		return nil, err
	}

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
