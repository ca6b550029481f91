package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vidshare/internal/model"
)

const deviceTokenColumns = `token, user_id, platform, created_at, updated_at`

type deviceTokenRepository struct {
	db *sqlx.DB
}

// NewDeviceTokenRepository stores the Expo push tokens that receive
// "video is live" notifications.
func NewDeviceTokenRepository(db *sqlx.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

// Upsert registers token for userID. A token is owned by one user at a time:
// registering it again moves it to the caller and refreshes updated_at.
func (r *deviceTokenRepository) Upsert(ctx context.Context, userID, token, platform string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vidshare.device_tokens (user_id, token, platform, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = NOW()
	`, userID, token, platform)
	if err != nil {
		return fmt.Errorf("register device token for %s: %w", userID, err)
	}
	return nil
}

// ListForUser returns the user's tokens, most recently registered first.
// A user without devices gets an empty slice.
func (r *deviceTokenRepository) ListForUser(ctx context.Context, userID string) ([]model.DeviceToken, error) {
	tokens := []model.DeviceToken{}
	err := r.db.SelectContext(ctx, &tokens,
		`SELECT `+deviceTokenColumns+` FROM vidshare.device_tokens WHERE user_id = $1 ORDER BY updated_at DESC, token`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list device tokens for %s: %w", userID, err)
	}
	return tokens, nil
}

// Delete unregisters token if userID owns it. Removing a token that is
// unknown or owned by someone else is a no-op.
func (r *deviceTokenRepository) Delete(ctx context.Context, userID, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM vidshare.device_tokens WHERE token = $1 AND user_id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("delete device token for %s: %w", userID, err)
	}
	return nil
}
