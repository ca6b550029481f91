package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vidshare/internal/model"
	"vidshare/internal/queue"
	"vidshare/internal/session"
)

// PostBackend is what the upload flow needs from the Client.
type PostBackend interface {
	session.Resolver
	Upload(ctx context.Context, file *model.MediaFile, kind model.FileKind) (*model.UploadResult, error)
	CreatePost(ctx context.Context, post *model.Post) error
}

// UploadOrchestrator turns a video post form into stored files and a row.
type UploadOrchestrator struct {
	backend   PostBackend
	publisher queue.Publisher
	logger    *zap.Logger
}

func NewUploadOrchestrator(backend PostBackend, publisher queue.Publisher, logger *zap.Logger) *UploadOrchestrator {
	return &UploadOrchestrator{backend: backend, publisher: publisher, logger: logger}
}

// CreateVideoPost uploads the thumbnail and video concurrently, then creates
// the post row owned by the current user. No row is written unless both
// uploads succeeded. Stored files left without a row are handed to the
// media worker for deletion.
func (o *UploadOrchestrator) CreateVideoPost(ctx context.Context, token string, form *model.VideoPostForm) (*model.Post, error) {
	if err := validateForm(form); err != nil {
		return nil, &model.UploadError{Stage: model.StageValidation, Err: err}
	}

	thumbnail, video, err := o.uploadBoth(ctx, form)
	if err != nil {
		o.orphan(ctx, thumbnail, video)
		return nil, &model.UploadError{Stage: model.StageUpload, Err: err}
	}

	creator, creatorID, err := o.creator(ctx, token, form)
	if err != nil {
		o.orphan(ctx, thumbnail, video)
		return nil, &model.UploadError{Stage: model.StageSession, Err: err}
	}

	post := &model.Post{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(form.Title),
		Prompt:    strings.TrimSpace(form.Prompt),
		Thumbnail: thumbnail.URL,
		Video:     video.URL,
		CreatorID: &creatorID,
	}
	if err := o.backend.CreatePost(ctx, post); err != nil {
		o.orphan(ctx, thumbnail, video)
		return nil, &model.UploadError{Stage: model.StageRowCreation, Err: err}
	}
	post.Creator = creator

	if _, err := o.publisher.Publish(ctx, queue.StreamMedia, queue.NewPostCreatedEvent(post.ID, creatorID)); err != nil {
		o.logger.Warn("failed to publish post_created", zap.String("post_id", post.ID), zap.Error(err))
	}

	o.logger.Info("video post created", zap.String("post_id", post.ID), zap.String("creator_id", creatorID))
	return post, nil
}

func validateForm(form *model.VideoPostForm) error {
	if form == nil {
		return &model.ValidationError{Message: "Please fill in all the fields"}
	}
	title := strings.TrimSpace(form.Title)
	prompt := strings.TrimSpace(form.Prompt)

	switch {
	case title == "":
		return &model.ValidationError{Field: "title", Message: "is required"}
	case len([]rune(title)) > model.MaxPostTitleLength:
		return &model.ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", model.MaxPostTitleLength)}
	case prompt == "":
		return &model.ValidationError{Field: "prompt", Message: "is required"}
	case len([]rune(prompt)) > model.MaxPostPromptLength:
		return &model.ValidationError{Field: "prompt", Message: fmt.Sprintf("must be at most %d characters", model.MaxPostPromptLength)}
	case form.Thumbnail == nil:
		return &model.ValidationError{Field: "thumbnail", Message: "is required"}
	case form.Video == nil:
		return &model.ValidationError{Field: "video", Message: "is required"}
	}
	return nil
}

// uploadBoth runs both uploads and returns whatever was stored, even when
// the other upload failed.
func (o *UploadOrchestrator) uploadBoth(ctx context.Context, form *model.VideoPostForm) (thumbnail, video *model.UploadResult, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := o.backend.Upload(gctx, form.Thumbnail, model.FileKindImage)
		if err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
		thumbnail = r
		return nil
	})
	g.Go(func() error {
		r, err := o.backend.Upload(gctx, form.Video, model.FileKindVideo)
		if err != nil {
			return fmt.Errorf("video: %w", err)
		}
		video = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return thumbnail, video, err
	}
	if thumbnail == nil || video == nil {
		return thumbnail, video, errors.New("upload returned no file")
	}
	return thumbnail, video, nil
}

// creator resolves the post owner through the request's session cache.
// When no user is signed in the form's user id is used instead.
func (o *UploadOrchestrator) creator(ctx context.Context, token string, form *model.VideoPostForm) (*model.User, string, error) {
	cache, ok := session.FromContext(ctx)
	if !ok {
		cache = session.NewCache(o.backend)
	}

	outcome := cache.Resolve(ctx, token)
	switch outcome.Status {
	case session.StatusAuthenticated:
		return outcome.User, outcome.User.ID, nil
	case session.StatusUnreachable:
		return nil, "", outcome.Err
	}

	if form.UserID != "" {
		return nil, form.UserID, nil
	}
	if outcome.Err != nil {
		return nil, "", outcome.Err
	}
	return nil, "", model.ErrUnauthenticated
}

// orphan asks the worker to delete stored files that no row refers to.
func (o *UploadOrchestrator) orphan(ctx context.Context, results ...*model.UploadResult) {
	var ids []string
	for _, r := range results {
		if r != nil && r.FileID != "" {
			ids = append(ids, r.FileID)
		}
	}
	if len(ids) == 0 {
		return
	}

	// The request may already be cancelled; the event must still go out.
	ctx = context.WithoutCancel(ctx)
	if _, err := o.publisher.Publish(ctx, queue.StreamMedia, queue.NewUploadOrphanedEvent(ids...)); err != nil {
		o.logger.Error("failed to publish upload_orphaned", zap.Strings("file_ids", ids), zap.Error(err))
	}
}
