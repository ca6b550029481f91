package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"vidshare/internal/fetch"
	"vidshare/internal/httputil"
	"vidshare/internal/model"
	"vidshare/internal/transport/http/middleware"
)

// PostReader lists posts with creators resolved.
type PostReader interface {
	ListAllPosts(ctx context.Context) ([]model.Post, error)
	ListPostsByCreator(ctx context.Context, userID string) ([]model.Post, error)
	SearchPosts(ctx context.Context, text string) ([]model.Post, error)
}

// PostCreator runs the upload flow.
type PostCreator interface {
	CreateVideoPost(ctx context.Context, token string, form *model.VideoPostForm) (*model.Post, error)
}

// PostLoader is a long-lived loader such as the trending list.
type PostLoader interface {
	Data() ([]model.Post, bool)
	Refetch(ctx context.Context) <-chan struct{}
	Wait(ctx context.Context) error
}

// trendingUnavailable is shown when the trending list never loaded.
const trendingUnavailable = "Trending videos are not available right now"

type PostHandler struct {
	posts    PostReader
	creator  PostCreator
	trending PostLoader
	logger   *zap.Logger
}

func NewPostHandler(posts PostReader, creator PostCreator, trending PostLoader, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		posts:    posts,
		creator:  creator,
		trending: trending,
		logger:   logger,
	}
}

// List handles GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	h.load(w, r, h.posts.ListAllPosts)
}

// Search handles GET /posts/search?query=
func (h *PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	h.load(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.SearchPosts(ctx, query)
	})
}

// ByCreator handles GET /users/{id}/posts
func (h *PostHandler) ByCreator(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	h.load(w, r, func(ctx context.Context) ([]model.Post, error) {
		return h.posts.ListPostsByCreator(ctx, userID)
	})
}

// Latest handles GET /posts/latest from the shared trending loader.
// ?refresh=true refetches before answering.
func (h *PostHandler) Latest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		// The refetch outlives a disconnecting client; other readers share it.
		done := h.trending.Refetch(context.WithoutCancel(ctx))
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}

	posts, ok := h.trending.Data()
	if !ok {
		if err := h.trending.Wait(ctx); err != nil {
			return
		}
		posts, ok = h.trending.Data()
	}

	resp := model.PostListResponse{Posts: posts}
	if !ok {
		notice := trendingUnavailable
		resp.Notice = &notice
	}
	if resp.Posts == nil {
		resp.Posts = []model.Post{}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// load runs fn through a loader bound to this request. A failed read is
// answered with an empty list and a notice, not an error status.
func (h *PostHandler) load(w http.ResponseWriter, r *http.Request, fn fetch.Func[[]model.Post]) {
	var notice *string
	notifier := fetch.NotifierFunc(func(title, message string) {
		h.logger.Warn("post read failed", zap.String("path", r.URL.Path), zap.String("message", message))
		notice = &message
	})

	loader := fetch.New(r.Context(), fn, notifier)
	if err := loader.Wait(r.Context()); err != nil {
		return
	}

	posts, _ := loader.Data()
	if posts == nil {
		posts = []model.Post{}
	}
	httputil.WriteJSON(w, http.StatusOK, model.PostListResponse{Posts: posts, Notice: notice})
}

// Create handles POST /posts as multipart (thumbnail and video parts) or as
// a form carrying thumbnail_uri/video_uri.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	maxBody := int64(model.MaxVideoSizeBytes+model.MaxThumbnailSizeBytes) + 1024*1024 // form overhead
	if err := parseUploadForm(w, r, maxBody); err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	var picked pickedFiles
	defer picked.cleanup()

	thumbnail, err := picked.mediaFromForm(r, "thumbnail")
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}
	video, err := picked.mediaFromForm(r, "video")
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	form := &model.VideoPostForm{
		Title:     r.FormValue("title"),
		Prompt:    r.FormValue("prompt"),
		Thumbnail: thumbnail,
		Video:     video,
	}

	post, err := h.creator.CreateVideoPost(r.Context(), middleware.TokenFromContext(r.Context()), form)
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}
