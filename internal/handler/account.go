package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"vidshare/internal/httputil"
	"vidshare/internal/model"
	"vidshare/internal/session"
	"vidshare/internal/transport/http/middleware"
)

// AccountService is the part of the data client the account endpoints use.
type AccountService interface {
	CreateUser(ctx context.Context, email, password, username string) (*model.User, *model.SessionToken, error)
	SignIn(ctx context.Context, email, password string) (*model.SessionToken, error)
	SignOut(ctx context.Context, token string) error
	GetAccount(ctx context.Context, token string) (*model.Account, error)
}

// AccountHandler groups registration, sign in and identity endpoints.
type AccountHandler struct {
	accounts AccountService
	logger   *zap.Logger
}

func NewAccountHandler(accounts AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Register creates the account, its user row and a session in one call.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, token, err := h.accounts.CreateUser(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	if cache, ok := session.FromContext(r.Context()); ok {
		cache.SignedIn(user)
	}
	setSessionCookie(w, token)
	httputil.WriteJSON(w, http.StatusCreated, model.AuthResponse{
		User:      user,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

// Login opens an email/password session.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Email and password are required")
		return
	}

	token, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	setSessionCookie(w, token)
	httputil.WriteJSON(w, http.StatusOK, model.AuthResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

// Logout deletes the current session.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromContext(r.Context())
	if token == "" {
		httputil.WriteUnauthorized(w, "Missing authentication token")
		return
	}

	if err := h.accounts.SignOut(r.Context(), token); err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}

	if cache, ok := session.FromContext(r.Context()); ok {
		cache.SignedOut()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Account returns the identity record behind the token.
func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), middleware.TokenFromContext(r.Context()))
	if err != nil {
		httputil.WriteFromError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, account)
}

// Me returns the user resolved by the request's session cache.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	outcome, ok := middleware.Resolve(r.Context())
	if !ok {
		httputil.WriteInternalError(w, "Session is not configured")
		return
	}

	switch outcome.Status {
	case session.StatusAuthenticated:
		httputil.WriteJSON(w, http.StatusOK, outcome.User)
	case session.StatusUnreachable:
		h.logger.Warn("identity backend unreachable", zap.Error(outcome.Err))
		httputil.WriteError(w, http.StatusServiceUnavailable, model.CodeUnavailable, "Identity backend is unreachable")
	default:
		httputil.WriteUnauthorized(w, "Not signed in")
	}
}

func setSessionCookie(w http.ResponseWriter, token *model.SessionToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token.Token,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
