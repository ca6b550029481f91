// Package session caches who the current user is for the lifetime of one
// client session (one HTTP request on the server).
package session

import (
	"context"
	"errors"
	"sync"

	"vidshare/internal/model"
)

// State is the lifecycle of a Cache.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateResolved
)

// Status is the observable identity outcome.
type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusUnauthenticated
	// StatusUnreachable means the identity backend could not be asked.
	StatusUnreachable
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "loading"
	}
}

// Outcome is a snapshot of the cache.
type Outcome struct {
	Status Status
	User   *model.User
	Err    error
}

// IsLoggedIn is true only for an authenticated outcome.
func (o Outcome) IsLoggedIn() bool {
	return o.Status == StatusAuthenticated && o.User != nil
}

// Resolver looks up the user behind a session token. It returns (nil, nil)
// when there is no usable session.
type Resolver interface {
	GetCurrentUser(ctx context.Context, token string) (*model.User, error)
}

// Cache resolves the current user at most once and then serves the settled
// outcome until SignedIn or SignedOut replaces it.
type Cache struct {
	resolver Resolver

	mu      sync.Mutex
	state   State
	outcome Outcome
	done    chan struct{}
}

func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		outcome:  Outcome{Status: StatusLoading},
	}
}

// Resolve asks the resolver on the first call. Concurrent callers wait for
// that call; later callers get the settled outcome without a lookup.
func (c *Cache) Resolve(ctx context.Context, token string) Outcome {
	c.mu.Lock()
	switch c.state {
	case StateResolved:
		o := c.outcome
		c.mu.Unlock()
		return o
	case StateResolving:
		done := c.done
		c.mu.Unlock()
		select {
		case <-done:
			return c.Outcome()
		case <-ctx.Done():
			return Outcome{Status: StatusLoading, Err: ctx.Err()}
		}
	}
	c.state = StateResolving
	c.done = make(chan struct{})
	c.mu.Unlock()

	o := c.lookup(ctx, token)

	c.mu.Lock()
	// SignedIn/SignedOut during the lookup take precedence.
	if c.state == StateResolving {
		c.outcome = o
		c.state = StateResolved
	}
	o = c.outcome
	close(c.done)
	c.mu.Unlock()
	return o
}

func (c *Cache) lookup(ctx context.Context, token string) Outcome {
	if token == "" {
		return Outcome{Status: StatusUnauthenticated}
	}
	user, err := c.resolver.GetCurrentUser(ctx, token)
	switch {
	case err == nil && user != nil:
		return Outcome{Status: StatusAuthenticated, User: user}
	case err == nil, errors.Is(err, model.ErrUnauthenticated):
		return Outcome{Status: StatusUnauthenticated}
	default:
		return Outcome{Status: StatusUnreachable, Err: err}
	}
}

// Outcome returns the current snapshot without resolving.
func (c *Cache) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SignedIn records a successful sign in or registration.
func (c *Cache) SignedIn(user *model.User) {
	c.settle(Outcome{Status: StatusAuthenticated, User: user})
}

// SignedOut records a sign out.
func (c *Cache) SignedOut() {
	c.settle(Outcome{Status: StatusUnauthenticated})
}

func (c *Cache) settle(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcome = o
	c.state = StateResolved
}

type ctxKey struct{}

// NewContext returns ctx carrying c.
func NewContext(ctx context.Context, c *Cache) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the cache installed by NewContext.
func FromContext(ctx context.Context) (*Cache, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Cache)
	return c, ok
}
