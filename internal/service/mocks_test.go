package service

import (
	"context"
	"io"
	"sync"
	"time"

	"vidshare/internal/model"
	"vidshare/internal/queue"
	"vidshare/internal/repository"
)

// Hand-written mocks. Each test sets only the functions it cares about.

type mockIdentity struct {
	createAccountFn func(ctx context.Context, email, password, name string) (*model.Account, error)
	createSessionFn func(ctx context.Context, email, password string) (*model.SessionToken, error)
	getAccountFn    func(ctx context.Context, token string) (*model.Account, error)
	deleteSessionFn func(ctx context.Context, token string) error
	deleteAccountFn func(ctx context.Context, accountID string) error
	deletedAccounts []string
}

func (m *mockIdentity) CreateAccount(ctx context.Context, email, password, name string) (*model.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(ctx, email, password, name)
	}
	return &model.Account{ID: "acc-1", Email: email, Name: name}, nil
}

func (m *mockIdentity) CreateEmailPasswordSession(ctx context.Context, email, password string) (*model.SessionToken, error) {
	if m.createSessionFn != nil {
		return m.createSessionFn(ctx, email, password)
	}
	return &model.SessionToken{Token: "tok", SessionID: "sess-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *mockIdentity) GetAccount(ctx context.Context, token string) (*model.Account, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(ctx, token)
	}
	return nil, model.ErrUnauthenticated
}

func (m *mockIdentity) DeleteSession(ctx context.Context, token string) error {
	if m.deleteSessionFn != nil {
		return m.deleteSessionFn(ctx, token)
	}
	return nil
}

func (m *mockIdentity) DeleteAccount(ctx context.Context, accountID string) error {
	m.deletedAccounts = append(m.deletedAccounts, accountID)
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, accountID)
	}
	return nil
}

type mockUserRepository struct {
	mu          sync.Mutex
	createFn    func(ctx context.Context, user *model.User) error
	listFn      func(ctx context.Context, queries ...repository.Query) ([]model.User, error)
	created     []*model.User
	listQueries [][]repository.Query
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	m.created = append(m.created, user)
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) List(ctx context.Context, queries ...repository.Query) ([]model.User, error) {
	m.mu.Lock()
	m.listQueries = append(m.listQueries, queries)
	m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn(ctx, queries...)
	}
	return []model.User{}, nil
}

type mockPostRepository struct {
	mu          sync.Mutex
	createFn    func(ctx context.Context, post *model.Post) error
	listFn      func(ctx context.Context, queries ...repository.Query) ([]model.Post, error)
	created     []*model.Post
	listQueries [][]repository.Query
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	m.mu.Lock()
	m.created = append(m.created, post)
	m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(ctx, post)
	}
	return nil
}

func (m *mockPostRepository) List(ctx context.Context, queries ...repository.Query) ([]model.Post, error) {
	m.mu.Lock()
	m.listQueries = append(m.listQueries, queries)
	m.mu.Unlock()
	if m.listFn != nil {
		return m.listFn(ctx, queries...)
	}
	return []model.Post{}, nil
}

type putCall struct {
	Key         string
	Data        []byte
	Size        int64
	ContentType string
}

type mockObjectStore struct {
	mu      sync.Mutex
	putFn   func(ctx context.Context, key string) error
	puts    []putCall
	deleted []string
}

func (m *mockObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.putFn != nil {
		if err := m.putFn(ctx, key); err != nil {
			return err
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, putCall{Key: key, Data: data, Size: size, ContentType: contentType})
	return nil
}

func (m *mockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return nil, "", model.ErrObjectNotFound
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

type mockLocalizer struct {
	localizeFn func(ctx context.Context, file *model.MediaFile) (*model.MediaFile, error)
}

func (m *mockLocalizer) Localize(ctx context.Context, file *model.MediaFile) (*model.MediaFile, error) {
	if m.localizeFn != nil {
		return m.localizeFn(ctx, file)
	}
	return file, nil
}

type mockUserCache struct {
	mu     sync.Mutex
	users  map[string]*model.User
	getErr error
	sets   [][]model.User
}

func (m *mockUserCache) GetMany(ctx context.Context, ids []string) (map[string]*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]*model.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *mockUserCache) SetMany(ctx context.Context, users []model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, users)
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []queue.MediaEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.MediaEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.events = append(m.events, event)
	return "1-0", nil
}

func (m *mockPublisher) ofType(eventType string) []queue.MediaEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []queue.MediaEvent
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
