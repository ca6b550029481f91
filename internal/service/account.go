package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vidshare/internal/model"
	"vidshare/internal/repository"
)

const minPasswordLength = 8

// IdentityService owns accounts and login sessions.
type IdentityService struct {
	accounts repository.AccountRepository
	sessions repository.SessionRepository
	secret   []byte
	maxAge   time.Duration
	logger   *zap.Logger
}

func NewIdentityService(
	accounts repository.AccountRepository,
	sessions repository.SessionRepository,
	jwtSecret string,
	maxAge time.Duration,
	logger *zap.Logger,
) *IdentityService {
	return &IdentityService{
		accounts: accounts,
		sessions: sessions,
		secret:   []byte(jwtSecret),
		maxAge:   maxAge,
		logger:   logger,
	}
}

// CreateAccount registers an email/password identity.
func (s *IdentityService) CreateAccount(ctx context.Context, email, password, name string) (*model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &model.ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if len(password) < minPasswordLength {
		return nil, &model.ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)}
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// CreateEmailPasswordSession verifies credentials and opens a session.
func (s *IdentityService) CreateEmailPasswordSession(ctx context.Context, email, password string) (*model.SessionToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	session := &model.Session{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(s.maxAge),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.sign(session)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return &model.SessionToken{Token: token, SessionID: session.ID, ExpiresAt: session.ExpiresAt}, nil
}

// GetAccount returns the account behind a session token.
// Any token or session problem is ErrUnauthenticated.
func (s *IdentityService) GetAccount(ctx context.Context, token string) (*model.Account, error) {
	session, err := s.session(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, model.ErrUnauthenticated
		}
		return nil, err
	}
	return account, nil
}

// DeleteSession revokes the session behind token.
func (s *IdentityService) DeleteSession(ctx context.Context, token string) error {
	session, err := s.session(ctx, token)
	if err != nil {
		return err
	}
	return s.sessions.Revoke(ctx, session.ID)
}

// DeleteAccount removes an account together with its sessions.
func (s *IdentityService) DeleteAccount(ctx context.Context, accountID string) error {
	return s.accounts.Delete(ctx, accountID)
}

// PurgeExpiredSessions removes sessions that expired over a day ago.
func (s *IdentityService) PurgeExpiredSessions(ctx context.Context) error {
	n, err := s.sessions.DeleteExpired(ctx, 24*time.Hour)
	if err != nil {
		return err
	}
	s.logger.Info("expired sessions purged", zap.Int64("count", n))
	return nil
}

func (s *IdentityService) session(ctx context.Context, token string) (*model.Session, error) {
	sid, err := s.parse(token)
	if err != nil {
		return nil, model.ErrUnauthenticated
	}

	session, err := s.sessions.GetByID(ctx, sid)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, model.ErrUnauthenticated
		}
		return nil, err
	}
	if !session.IsValid() {
		return nil, model.ErrUnauthenticated
	}
	return session, nil
}

func (s *IdentityService) sign(session *model.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid": session.ID,
		"sub": session.AccountID,
		"exp": session.ExpiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// parse validates the signature and expiry and returns the session id.
func (s *IdentityService) parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", model.ErrUnauthenticated
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", model.ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", model.ErrUnauthenticated
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", model.ErrUnauthenticated
	}
	return sid, nil
}
