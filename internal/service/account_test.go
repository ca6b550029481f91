package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vidshare/internal/model"
)

// In-memory account and session stores.

type memAccounts struct {
	mu     sync.Mutex
	byID   map[string]*model.Account
	getErr error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[string]*model.Account)}
}

func (m *memAccounts) Create(ctx context.Context, a *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.CreatedAt = time.Now()
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) GetByID(ctx context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, model.ErrAccountNotFound
}

func (m *memAccounts) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memAccounts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type memSessions struct {
	mu     sync.Mutex
	byID   map[string]*model.Session
	purged time.Duration
}

func newMemSessions() *memSessions {
	return &memSessions{byID: make(map[string]*model.Session)}
}

func (m *memSessions) Create(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Revoke(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byID[id]; ok && s.RevokedAt == nil {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

func (m *memSessions) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purged = olderThan
	return 0, nil
}

const testSecret = "test-secret"

func newTestIdentity() (*IdentityService, *memAccounts, *memSessions) {
	accounts := newMemAccounts()
	sessions := newMemSessions()
	return NewIdentityService(accounts, sessions, testSecret, time.Hour, zap.NewNop()), accounts, sessions
}

func TestIdentity_CreateAccount(t *testing.T) {
	svc, accounts, _ := newTestIdentity()

	account, err := svc.CreateAccount(context.Background(), " Jane@X.io ", "password123", "Jane")
	require.NoError(t, err)

	assert.Equal(t, "jane@x.io", account.Email)
	assert.NotEqual(t, "password123", account.PasswordHash)
	assert.Len(t, accounts.byID, 1)
}

func TestIdentity_DeleteAccount(t *testing.T) {
	svc, accounts, _ := newTestIdentity()
	account, err := svc.CreateAccount(context.Background(), "jane@x.io", "password123", "Jane")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(context.Background(), account.ID))
	assert.Empty(t, accounts.byID)

	_, err = svc.CreateAccount(context.Background(), "jane@x.io", "password123", "Jane")
	assert.NoError(t, err)
}

func TestIdentity_CreateAccount_Rejects(t *testing.T) {
	svc, _, _ := newTestIdentity()
	_, err := svc.CreateAccount(context.Background(), "jane@x.io", "password123", "Jane")
	require.NoError(t, err)

	_, err = svc.CreateAccount(context.Background(), "jane@x.io", "password456", "Jane 2")
	assert.ErrorIs(t, err, model.ErrEmailExists)

	var ve *model.ValidationError
	_, err = svc.CreateAccount(context.Background(), "not-an-email", "password123", "x")
	assert.ErrorAs(t, err, &ve)
	_, err = svc.CreateAccount(context.Background(), "b@x.io", "short", "x")
	assert.ErrorAs(t, err, &ve)
}

func TestIdentity_SessionRoundTrip(t *testing.T) {
	svc, _, sessions := newTestIdentity()
	created, err := svc.CreateAccount(context.Background(), "jane@x.io", "password123", "Jane")
	require.NoError(t, err)

	token, err := svc.CreateEmailPasswordSession(context.Background(), "JANE@x.io", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Contains(t, sessions.byID, token.SessionID)

	account, err := svc.GetAccount(context.Background(), token.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, account.ID)

	require.NoError(t, svc.DeleteSession(context.Background(), token.Token))
	_, err = svc.GetAccount(context.Background(), token.Token)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestIdentity_WrongPassword(t *testing.T) {
	svc, _, _ := newTestIdentity()
	_, err := svc.CreateAccount(context.Background(), "jane@x.io", "password123", "Jane")
	require.NoError(t, err)

	_, err = svc.CreateEmailPasswordSession(context.Background(), "jane@x.io", "password124")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = svc.CreateEmailPasswordSession(context.Background(), "nobody@x.io", "password123")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestIdentity_GetAccount_BadTokens(t *testing.T) {
	svc, _, sessions := newTestIdentity()

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "s1", "exp": time.Now().Add(time.Hour).Unix()})
	foreignToken, err := foreign.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "s1", "exp": time.Now().Add(-time.Hour).Unix()})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	unknown := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "missing", "exp": time.Now().Add(time.Hour).Unix()})
	unknownToken, err := unknown.SignedString([]byte(testSecret))
	require.NoError(t, err)

	// Session row expired even though the JWT has not.
	sessions.byID["stale"] = &model.Session{ID: "stale", AccountID: "a", ExpiresAt: time.Now().Add(-time.Minute)}
	stale := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "stale", "exp": time.Now().Add(time.Hour).Unix()})
	staleToken, err := stale.SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":         "",
		"garbage":       "not.a.jwt",
		"wrong secret":  foreignToken,
		"expired":       expiredToken,
		"unknown sid":   unknownToken,
		"stale session": staleToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.GetAccount(context.Background(), token)
			assert.ErrorIs(t, err, model.ErrUnauthenticated)
		})
	}
}

func TestIdentity_GetAccount_StorageFailureIsNotUnauthenticated(t *testing.T) {
	svc, accounts, _ := newTestIdentity()
	_, err := svc.CreateAccount(context.Background(), "jane@x.io", "password123", "Jane")
	require.NoError(t, err)
	token, err := svc.CreateEmailPasswordSession(context.Background(), "jane@x.io", "password123")
	require.NoError(t, err)

	accounts.getErr = errors.New("connection refused")
	_, err = svc.GetAccount(context.Background(), token.Token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrUnauthenticated)
}

func TestIdentity_PurgeExpiredSessions(t *testing.T) {
	svc, _, sessions := newTestIdentity()

	require.NoError(t, svc.PurgeExpiredSessions(context.Background()))
	assert.Equal(t, 24*time.Hour, sessions.purged)
}
