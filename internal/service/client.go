package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vidshare/internal/cache"
	"vidshare/internal/config"
	"vidshare/internal/model"
	"vidshare/internal/repository"
	"vidshare/internal/storage"
)

// Identity is the account and session backend.
type Identity interface {
	CreateAccount(ctx context.Context, email, password, name string) (*model.Account, error)
	CreateEmailPasswordSession(ctx context.Context, email, password string) (*model.SessionToken, error)
	GetAccount(ctx context.Context, token string) (*model.Account, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, accountID string) error
}

// MediaLocalizer makes a picked file readable from the local filesystem.
type MediaLocalizer interface {
	Localize(ctx context.Context, file *model.MediaFile) (*model.MediaFile, error)
}

// Client is the single access point to identity, rows and stored files.
// Every backend failure comes back as *model.RemoteError.
type Client struct {
	backend   config.Backend
	identity  Identity
	users     repository.UserRepository
	posts     repository.PostRepository
	store     storage.ObjectStore
	localizer MediaLocalizer
	userCache cache.UserCache
	logger    *zap.Logger
}

// ClientOption configures optional Client dependencies.
type ClientOption func(*Client)

// WithUserCache lets creator resolution read users from cache first.
func WithUserCache(c cache.UserCache) ClientOption {
	return func(cl *Client) { cl.userCache = c }
}

func NewClient(
	backend config.Backend,
	identity Identity,
	users repository.UserRepository,
	posts repository.PostRepository,
	store storage.ObjectStore,
	localizer MediaLocalizer,
	logger *zap.Logger,
	opts ...ClientOption,
) *Client {
	c := &Client{
		backend:   backend,
		identity:  identity,
		users:     users,
		posts:     posts,
		store:     store,
		localizer: localizer,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateUser registers an account, signs it in and stores its user row with
// an initials avatar.
func (c *Client) CreateUser(ctx context.Context, email, password, username string) (*model.User, *model.SessionToken, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil, &model.ValidationError{Field: "username", Message: "is required"}
	}

	account, err := c.identity.CreateAccount(ctx, email, password, username)
	if err != nil {
		return nil, nil, remote("create account", err)
	}

	avatarURL := c.backend.AvatarURL(username)

	token, err := c.identity.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		c.discardAccount(ctx, account.ID)
		return nil, nil, remote("sign in", err)
	}

	user := &model.User{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		Email:     account.Email,
		Username:  username,
		Avatar:    avatarURL,
	}
	if err := c.users.Create(ctx, user); err != nil {
		c.discardAccount(ctx, account.ID)
		return nil, nil, remote("create user", err)
	}

	c.logger.Info("user created", zap.String("user_id", user.ID), zap.String("account_id", account.ID))
	return user, token, nil
}

// discardAccount undoes a half-finished registration so the email can be
// registered again. Deleting the account also ends its session.
func (c *Client) discardAccount(ctx context.Context, accountID string) {
	if err := c.identity.DeleteAccount(context.WithoutCancel(ctx), accountID); err != nil {
		c.logger.Error("failed to remove account after registration failure",
			zap.String("account_id", accountID), zap.Error(err))
	}
}

// SignIn opens an email/password session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.SessionToken, error) {
	token, err := c.identity.CreateEmailPasswordSession(ctx, email, password)
	if err != nil {
		return nil, remote("sign in", err)
	}
	return token, nil
}

// SignOut deletes the current session.
func (c *Client) SignOut(ctx context.Context, token string) error {
	if err := c.identity.DeleteSession(ctx, token); err != nil {
		return remote("sign out", err)
	}
	return nil
}

// GetAccount returns the identity behind token.
func (c *Client) GetAccount(ctx context.Context, token string) (*model.Account, error) {
	account, err := c.identity.GetAccount(ctx, token)
	if err != nil {
		return nil, remote("get account", err)
	}
	return account, nil
}

// GetCurrentUser returns the user row of the signed-in account.
// It returns (nil, nil) when nobody is signed in or the account has no user
// row, and a RemoteError only when the backend could not answer.
func (c *Client) GetCurrentUser(ctx context.Context, token string) (*model.User, error) {
	account, err := c.identity.GetAccount(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrUnauthenticated) {
			return nil, nil
		}
		return nil, remote("get current user", err)
	}

	users, err := c.users.List(ctx, repository.Equal("account_id", account.ID))
	if err != nil {
		return nil, remote("get current user", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// ListAllPosts returns every post with its creator resolved.
func (c *Client) ListAllPosts(ctx context.Context) ([]model.Post, error) {
	return c.listPosts(ctx, "list posts", repository.OrderAsc("created_at"))
}

// ListRecentPosts returns the newest posts, newest first.
func (c *Client) ListRecentPosts(ctx context.Context) ([]model.Post, error) {
	return c.listPosts(ctx, "list recent posts",
		repository.OrderDesc("created_at"),
		repository.Limit(model.RecentPostsLimit),
	)
}

// ListPostsByCreator returns the posts whose creator is userID.
func (c *Client) ListPostsByCreator(ctx context.Context, userID string) ([]model.Post, error) {
	return c.listPosts(ctx, "list user posts", repository.Equal("creator", userID))
}

// SearchPosts matches text against post titles. Blank text matches nothing.
func (c *Client) SearchPosts(ctx context.Context, text string) ([]model.Post, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []model.Post{}, nil
	}
	return c.listPosts(ctx, "search posts", repository.Search("title", text))
}

func (c *Client) listPosts(ctx context.Context, op string, queries ...repository.Query) ([]model.Post, error) {
	posts, err := c.posts.List(ctx, queries...)
	if err != nil {
		return nil, remote(op, err)
	}
	c.resolveCreators(ctx, posts)
	return posts, nil
}

// resolveCreators replaces creator references with user rows using one
// batched lookup. Creators that cannot be found stay nil, and a failed
// lookup leaves them nil instead of failing the listing.
func (c *Client) resolveCreators(ctx context.Context, posts []model.Post) {
	seen := make(map[string]struct{})
	var ids []string
	for _, p := range posts {
		if p.CreatorID == nil || *p.CreatorID == "" {
			continue
		}
		if _, ok := seen[*p.CreatorID]; ok {
			continue
		}
		seen[*p.CreatorID] = struct{}{}
		ids = append(ids, *p.CreatorID)
	}
	if len(ids) == 0 {
		return
	}

	resolved := make(map[string]*model.User, len(ids))
	missing := ids
	if c.userCache != nil {
		cached, err := c.userCache.GetMany(ctx, ids)
		if err != nil {
			c.logger.Warn("user cache unavailable", zap.Error(err))
		} else {
			resolved = cached
			missing = missing[:0:0]
			for _, id := range ids {
				if _, ok := cached[id]; !ok {
					missing = append(missing, id)
				}
			}
		}
	}

	if len(missing) > 0 {
		users, err := c.users.List(ctx, repository.Contains("id", missing...))
		if err != nil {
			c.logger.Warn("creator lookup failed", zap.Strings("user_ids", missing), zap.Error(err))
			users = nil
		}
		for i := range users {
			resolved[users[i].ID] = &users[i]
		}
		if c.userCache != nil && len(users) > 0 {
			if err := c.userCache.SetMany(ctx, users); err != nil {
				c.logger.Warn("user cache write failed", zap.Error(err))
			}
		}
	}

	for i := range posts {
		if posts[i].CreatorID != nil {
			posts[i].Creator = resolved[*posts[i].CreatorID]
		}
	}
}

// UploadFile stores a picked file and returns its public view URL.
// A nil file yields an empty URL and no error.
func (c *Client) UploadFile(ctx context.Context, file *model.MediaFile, kind model.FileKind) (string, error) {
	result, err := c.Upload(ctx, file, kind)
	if err != nil || result == nil {
		return "", err
	}
	return result.URL, nil
}

// Upload is UploadFile that also reports the stored file id.
func (c *Client) Upload(ctx context.Context, file *model.MediaFile, kind model.FileKind) (*model.UploadResult, error) {
	if file == nil {
		return nil, nil
	}
	if !kind.Valid() {
		return nil, &model.ValidationError{Field: "type", Message: fmt.Sprintf("unknown file kind %q", kind)}
	}

	local, err := c.localizer.Localize(ctx, file)
	if err != nil {
		if errors.Is(err, model.ErrFileTooLarge) {
			return nil, err
		}
		return nil, remote("upload file", err)
	}
	if local != file {
		defer c.discardCopy(local)
	}

	body, size, contentType, err := openForUpload(local, kind)
	if err != nil {
		if errors.Is(err, model.ErrFileTooLarge) {
			return nil, err
		}
		return nil, remote("upload file", err)
	}
	defer body.Close()

	fileID := uuid.NewString()
	if err := c.store.Put(ctx, fileID, body, size, contentType); err != nil {
		return nil, remote("upload file", err)
	}

	c.logger.Info("file stored",
		zap.String("file_id", fileID),
		zap.String("kind", string(kind)),
		zap.String("content_type", contentType),
		zap.Int64("size", size),
	)
	return &model.UploadResult{FileID: fileID, URL: c.backend.ViewURL(fileID)}, nil
}

// CreatePost stores a post row.
func (c *Client) CreatePost(ctx context.Context, post *model.Post) error {
	if err := c.posts.Create(ctx, post); err != nil {
		return remote("create post", err)
	}
	return nil
}

// DeleteFile removes a stored object.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := c.store.Delete(ctx, fileID); err != nil {
		return remote("delete file", err)
	}
	return nil
}

// ReadFile opens a stored object for the public view endpoint.
func (c *Client) ReadFile(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	body, contentType, err := c.store.Get(ctx, fileID)
	if err != nil {
		if errors.Is(err, model.ErrObjectNotFound) {
			return nil, "", err
		}
		return nil, "", remote("read file", err)
	}
	return body, contentType, nil
}

// discardCopy removes a cache copy made by the localizer.
func (c *Client) discardCopy(file *model.MediaFile) {
	if err := os.Remove(localPath(file.URI)); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("failed to remove local copy", zap.String("uri", file.URI), zap.Error(err))
	}
}

// openForUpload opens a localized file. Decodable images are re-encoded as
// JPEG; anything else is streamed as-is.
func openForUpload(file *model.MediaFile, kind model.FileKind) (io.ReadCloser, int64, string, error) {
	maxSize := int64(model.MaxVideoSizeBytes)
	if kind == model.FileKindImage {
		maxSize = model.MaxThumbnailSizeBytes
	}

	f, err := os.Open(localPath(file.URI))
	if err != nil {
		return nil, 0, "", fmt.Errorf("open %s: %w", file.Name, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, "", fmt.Errorf("stat %s: %w", file.Name, err)
	}
	if info.Size() > maxSize {
		f.Close()
		return nil, 0, "", fmt.Errorf("%w: %s is %d bytes", model.ErrFileTooLarge, file.Name, info.Size())
	}

	contentType := file.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if kind == model.FileKindImage && model.IsDecodableImageType(contentType) {
		defer f.Close()
		data, err := normalizeImage(f, model.ThumbnailMaxEdge)
		if err != nil {
			return nil, 0, "", err
		}
		return io.NopCloser(bytes.NewReader(data)), int64(len(data)), model.ContentTypeJPEG, nil
	}

	return f, info.Size(), contentType, nil
}

func remote(op string, err error) error {
	return model.NewRemoteError(op, err)
}
