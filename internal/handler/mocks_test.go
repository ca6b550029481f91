package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"

	"vidshare/internal/model"
)

type mockAccounts struct {
	CreateUserFn func(ctx context.Context, email, password, username string) (*model.User, *model.SessionToken, error)
	SignInFn     func(ctx context.Context, email, password string) (*model.SessionToken, error)
	SignOutFn    func(ctx context.Context, token string) error
	GetAccountFn func(ctx context.Context, token string) (*model.Account, error)
}

func (m *mockAccounts) CreateUser(ctx context.Context, email, password, username string) (*model.User, *model.SessionToken, error) {
	return m.CreateUserFn(ctx, email, password, username)
}

func (m *mockAccounts) SignIn(ctx context.Context, email, password string) (*model.SessionToken, error) {
	return m.SignInFn(ctx, email, password)
}

func (m *mockAccounts) SignOut(ctx context.Context, token string) error {
	return m.SignOutFn(ctx, token)
}

func (m *mockAccounts) GetAccount(ctx context.Context, token string) (*model.Account, error) {
	return m.GetAccountFn(ctx, token)
}

// stubResolver signs in the token "good" as user u1.
type stubResolver struct {
	err error
}

func (s stubResolver) GetCurrentUser(ctx context.Context, token string) (*model.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token == "good" {
		return &model.User{ID: "u1", Username: "alice"}, nil
	}
	return nil, nil
}

type mockPosts struct {
	ListAllFn     func(ctx context.Context) ([]model.Post, error)
	ByCreatorFn   func(ctx context.Context, userID string) ([]model.Post, error)
	SearchPostsFn func(ctx context.Context, text string) ([]model.Post, error)
}

func (m *mockPosts) ListAllPosts(ctx context.Context) ([]model.Post, error) {
	return m.ListAllFn(ctx)
}

func (m *mockPosts) ListPostsByCreator(ctx context.Context, userID string) ([]model.Post, error) {
	return m.ByCreatorFn(ctx, userID)
}

func (m *mockPosts) SearchPosts(ctx context.Context, text string) ([]model.Post, error) {
	return m.SearchPostsFn(ctx, text)
}

type mockCreator struct {
	mu       sync.Mutex
	token    string
	form     *model.VideoPostForm
	payloads map[string]string
	err      error
}

// CreateVideoPost records the form and reads the picked files while they
// still exist.
func (m *mockCreator) CreateVideoPost(ctx context.Context, token string, form *model.VideoPostForm) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.form = form
	m.payloads = map[string]string{}
	for name, f := range map[string]*model.MediaFile{"thumbnail": form.Thumbnail, "video": form.Video} {
		if f == nil || f.URI == "" {
			continue
		}
		if b, err := os.ReadFile(f.URI); err == nil {
			m.payloads[name] = string(b)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &model.Post{ID: "p1", Title: form.Title}, nil
}

type mockFiles struct {
	uploaded *model.MediaFile
	kind     model.FileKind
	content  string
	readErr  error
}

func (m *mockFiles) Upload(ctx context.Context, file *model.MediaFile, kind model.FileKind) (*model.UploadResult, error) {
	if !kind.Valid() {
		return nil, &model.ValidationError{Field: "type", Message: "unknown file kind"}
	}
	m.uploaded = file
	m.kind = kind
	return &model.UploadResult{FileID: "f1", URL: "https://backend.test/view/f1"}, nil
}

func (m *mockFiles) ReadFile(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	if m.readErr != nil {
		return nil, "", m.readErr
	}
	return io.NopCloser(strings.NewReader(m.content)), "video/mp4", nil
}

type mockDevices struct {
	upserts []string
	deleted []string
	err     error
}

func (m *mockDevices) Upsert(ctx context.Context, userID, token, platform string) error {
	if m.err != nil {
		return m.err
	}
	m.upserts = append(m.upserts, userID+"|"+token+"|"+platform)
	return nil
}

func (m *mockDevices) Delete(ctx context.Context, userID, token string) error {
	m.deleted = append(m.deleted, userID+"|"+token)
	return m.err
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
