package repository

import (
	"context"
	"time"

	"vidshare/internal/model"
)

// UserRepository is the users row table.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	List(ctx context.Context, queries ...Query) ([]model.User, error)
}

// PostRepository is the videos row table.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	List(ctx context.Context, queries ...Query) ([]model.Post, error)
}

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Revoke(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type DeviceTokenRepository interface {
	Upsert(ctx context.Context, userID, token, platform string) error
	ListForUser(ctx context.Context, userID string) ([]model.DeviceToken, error)
	Delete(ctx context.Context, userID, token string) error
}
