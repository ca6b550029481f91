package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vidshare/internal/model"
	"vidshare/internal/queue"
)

// FileDeleter removes stored objects.
type FileDeleter interface {
	DeleteFile(ctx context.Context, fileID string) error
}

// Refresher is a loader that can be told to fetch again.
type Refresher interface {
	Refetch(ctx context.Context) <-chan struct{}
}

// DeviceTokenProvider lists the push tokens of a user.
type DeviceTokenProvider interface {
	ListForUser(ctx context.Context, userID string) ([]model.DeviceToken, error)
}

// Pusher delivers a push notification to devices.
type Pusher interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) error
}

const (
	liveTitle = "Your video is live"
	liveBody  = "It now shows up in the feed."
)

// Handler processes media events.
type Handler struct {
	files    FileDeleter
	logger   *zap.Logger
	trending Refresher           // optional
	devices  DeviceTokenProvider // optional, with pusher
	pusher   Pusher
}

func NewHandler(files FileDeleter, logger *zap.Logger) *Handler {
	return &Handler{files: files, logger: logger}
}

// SetTrending makes post_created refresh the latest-posts loader.
func (h *Handler) SetTrending(r Refresher) {
	h.trending = r
}

// SetPush enables "video is live" notifications to the creator's devices.
func (h *Handler) SetPush(devices DeviceTokenProvider, pusher Pusher) {
	h.devices = devices
	h.pusher = pusher
}

// HandleEvent routes an event by type. Unknown types are ignored.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MediaEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventPostCreated:
		err = h.handlePostCreated(ctx, event)
	case queue.EventUploadOrphaned:
		err = h.handleUploadOrphaned(ctx, event)
	default:
		h.logger.Warn("unknown event type", zap.String("type", event.Type))
		return nil
	}

	h.logger.Debug("event handled",
		zap.String("type", event.Type),
		zap.Duration("duration", time.Since(startTime)),
		zap.Error(err),
	)
	return err
}

func (h *Handler) handlePostCreated(ctx context.Context, event queue.MediaEvent) error {
	if h.trending != nil {
		h.trending.Refetch(ctx)
	}

	if h.pusher == nil || h.devices == nil || event.CreatorID == "" {
		return nil
	}

	tokens, err := h.devices.ListForUser(ctx, event.CreatorID)
	if err != nil {
		return fmt.Errorf("get device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	raw := make([]string, len(tokens))
	for i, t := range tokens {
		raw[i] = t.Token
	}
	data := map[string]interface{}{"type": queue.EventPostCreated, "post_id": event.PostID}
	if err := h.pusher.SendToTokens(ctx, raw, liveTitle, liveBody, data); err != nil {
		return fmt.Errorf("push post_created: %w", err)
	}
	return nil
}

// handleUploadOrphaned deletes every listed object, continuing past failures.
func (h *Handler) handleUploadOrphaned(ctx context.Context, event queue.MediaEvent) error {
	var errs []error
	for _, id := range event.FileIDs {
		if err := h.files.DeleteFile(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		h.logger.Info("orphaned file deleted", zap.String("file_id", id))
	}
	return errors.Join(errs...)
}
