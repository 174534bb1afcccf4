// Package session keeps the process-local view of the one live
// session: who is signed in, resolved lazily from the identity store
// and cached until invalidated.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"expensetracker/internal/core"
	"expensetracker/internal/retry"
	"expensetracker/internal/store"
)

const currentUserKey = "current-user"

// Cache memoizes the current user. Concurrent lookups while the cache
// is cold coalesce into a single identity store call.
type Cache struct {
	identity store.IdentityStore
	verify   retry.Policy
	logger   *slog.Logger

	group singleflight.Group

	mu   sync.Mutex
	user *core.SessionUser
}

// New builds a cache over the given identity store. verify controls
// how long Login waits for a fresh session to become visible.
func New(identity store.IdentityStore, verify retry.Policy, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		identity: identity,
		verify:   verify,
		logger:   logger,
	}
}

func (c *Cache) cached() *core.SessionUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Cache) setCached(user *core.SessionUser) {
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
}

// Current returns the signed-in user, or nil when nobody is. A lookup
// the store cannot answer counts as signed out: the failure is logged
// and nothing is cached, so a later call asks the store again.
func (c *Cache) Current(ctx context.Context) *core.SessionUser {
	if user := c.cached(); user != nil {
		return user
	}

	v, _, _ := c.group.Do(currentUserKey, func() (any, error) {
		user, err := c.identity.CurrentUser(ctx)
		if err != nil {
			if !store.IsKind(err, store.KindUnauthorized) {
				c.logger.WarnContext(ctx, "identity lookup failed, treating as signed out", "error", err)
			}
			return (*core.SessionUser)(nil), nil
		}
		u := user
		c.setCached(&u)
		return &u, nil
	})
	return v.(*core.SessionUser)
}

// IsAuthenticated reports whether a user is currently signed in.
func (c *Cache) IsAuthenticated(ctx context.Context) bool {
	return c.Current(ctx) != nil
}

// Invalidate drops the cached user so the next lookup hits the store.
func (c *Cache) Invalidate() {
	c.setCached(nil)
	c.group.Forget(currentUserKey)
}

// Login establishes a session and waits until the identity store
// confirms it. Remote session creation can lag behind the create call,
// so confirmation retries under the verify policy.
func (c *Cache) Login(ctx context.Context, creds store.Credentials) (*core.SessionUser, error) {
	c.Invalidate()

	if err := c.identity.CreateSession(ctx, creds); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	var user *core.SessionUser
	err := c.verify.Do(ctx, func(ctx context.Context) error {
		c.Invalidate()
		u := c.Current(ctx)
		if u == nil {
			return fmt.Errorf("session not yet visible")
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, store.NewError(store.KindUnauthorized, "session.verify", err)
	}
	return user, nil
}

// Logout ends the session. Local state is cleared even when the
// remote delete fails, so the process never stays signed in to a
// session it tried to abandon.
func (c *Cache) Logout(ctx context.Context) {
	if err := c.identity.DeleteSession(ctx); err != nil {
		c.logger.Warn("remote session delete failed, clearing local state anyway", "error", err)
	}
	c.Invalidate()
}

// Register creates an account and signs it in.
func (c *Cache) Register(ctx context.Context, reg store.Registration) (*core.SessionUser, error) {
	if _, err := c.identity.CreateAccount(ctx, reg); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return c.Login(ctx, store.Credentials{Email: reg.Email, Password: reg.Password})
}

// Refresh forces a fresh lookup of the current user.
func (c *Cache) Refresh(ctx context.Context) *core.SessionUser {
	c.Invalidate()
	return c.Current(ctx)
}
