package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/retry"
	"expensetracker/internal/store"
)

// fakeIdentity scripts the identity store. currentCalls counts
// CurrentUser invocations; block, when set, holds CurrentUser until
// the channel closes.
type fakeIdentity struct {
	mu           sync.Mutex
	user         core.SessionUser
	live         bool
	failCurrent  int   // first N CurrentUser calls report unauthorized
	currentErr   error // returned by every CurrentUser call while set
	deleteErr    error
	sessionErr   error
	currentCalls atomic.Int64
	block        chan struct{}
}

func (f *fakeIdentity) CreateAccount(_ context.Context, reg store.Registration) (core.SessionUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = core.SessionUser{ID: "u1", Name: reg.Name, Email: reg.Email}
	return f.user, nil
}

func (f *fakeIdentity) CreateSession(_ context.Context, _ store.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return f.sessionErr
	}
	f.live = true
	return nil
}

func (f *fakeIdentity) CurrentUser(_ context.Context) (core.SessionUser, error) {
	f.currentCalls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return core.SessionUser{}, f.currentErr
	}
	if f.failCurrent > 0 {
		f.failCurrent--
		return core.SessionUser{}, store.Errorf(store.KindUnauthorized, "session.get", "not yet visible")
	}
	if !f.live {
		return core.SessionUser{}, store.Errorf(store.KindUnauthorized, "session.get", "no live session")
	}
	return f.user, nil
}

func (f *fakeIdentity) DeleteSession(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.live = false
	return nil
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}
}

func TestCurrentWithoutSession(t *testing.T) {
	c := New(&fakeIdentity{}, fastPolicy(), nil)
	if user := c.Current(context.Background()); user != nil {
		t.Fatalf("expected nil user, got %+v", user)
	}
}

func TestCurrentTreatsLookupFailureAsSignedOut(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{
		user:       core.SessionUser{ID: "u1"},
		live:       true,
		currentErr: store.Errorf(store.KindUnavailable, "session.get", "remote down"),
	}
	c := New(id, fastPolicy(), nil)

	if user := c.Current(ctx); user != nil {
		t.Fatalf("expected nil user while store is down, got %+v", user)
	}

	// The failure is not cached: once the store answers again, the
	// session shows up.
	id.mu.Lock()
	id.currentErr = nil
	id.mu.Unlock()
	user := c.Current(ctx)
	if user == nil || user.ID != "u1" {
		t.Fatalf("expected user after store recovery, got %+v", user)
	}
}

func TestCurrentIsCached(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{user: core.SessionUser{ID: "u1"}, live: true}
	c := New(id, fastPolicy(), nil)

	for range 5 {
		if user := c.Current(ctx); user == nil {
			t.Fatalf("expected signed-in user")
		}
	}
	if got := id.currentCalls.Load(); got != 1 {
		t.Fatalf("store hit %d times, want 1", got)
	}
}

func TestConcurrentLookupsCoalesce(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	id := &fakeIdentity{user: core.SessionUser{ID: "u1"}, live: true, block: release}
	c := New(id, fastPolicy(), nil)

	const workers = 20
	var wg sync.WaitGroup
	results := make([]*core.SessionUser, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Current(ctx)
		}()
	}

	// Let every goroutine reach the cache before the store answers.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := id.currentCalls.Load(); got != 1 {
		t.Fatalf("store hit %d times, want 1", got)
	}
	for i, user := range results {
		if user == nil || user.ID != "u1" {
			t.Fatalf("worker %d got %+v", i, user)
		}
	}
}

func TestLoginRetriesUntilSessionVisible(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{user: core.SessionUser{ID: "u1"}, failCurrent: 2}
	c := New(id, fastPolicy(), nil)

	user, err := c.Login(ctx, store.Credentials{Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Fatalf("unexpected user %+v", user)
	}
	if !c.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated after login")
	}
}

func TestLoginFailsWhenSessionNeverVisible(t *testing.T) {
	id := &fakeIdentity{user: core.SessionUser{ID: "u1"}, failCurrent: 100}
	c := New(id, fastPolicy(), nil)

	_, err := c.Login(context.Background(), store.Credentials{Email: "ada@example.com", Password: "pw"})
	if !store.IsKind(err, store.KindUnauthorized) {
		t.Fatalf("got %v, want unauthorized", err)
	}
}

func TestLoginFailsOnBadCredentials(t *testing.T) {
	id := &fakeIdentity{sessionErr: store.Errorf(store.KindUnauthorized, "session.create", "invalid credentials")}
	c := New(id, fastPolicy(), nil)

	_, err := c.Login(context.Background(), store.Credentials{Email: "ada@example.com", Password: "wrong"})
	if !store.IsKind(err, store.KindUnauthorized) {
		t.Fatalf("got %v, want unauthorized", err)
	}
	if c.IsAuthenticated(context.Background()) {
		t.Fatalf("must not be authenticated after failed login")
	}
}

func TestLogoutClearsStateEvenWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{user: core.SessionUser{ID: "u1"}, live: true}
	c := New(id, fastPolicy(), nil)

	if !c.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated")
	}

	id.mu.Lock()
	id.deleteErr = store.Errorf(store.KindUnavailable, "session.delete", "remote down")
	id.mu.Unlock()

	c.Logout(ctx)

	// The remote session survived the failed delete, so a fresh lookup
	// still finds it. What matters is that the local cache was dropped
	// and the next lookup went back to the store.
	before := id.currentCalls.Load()
	c.Current(ctx)
	if id.currentCalls.Load() == before {
		t.Fatalf("expected a fresh store lookup after logout")
	}
}

func TestLogoutSignsOut(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{user: core.SessionUser{ID: "u1"}, live: true}
	c := New(id, fastPolicy(), nil)

	c.Current(ctx)
	c.Logout(ctx)
	if c.IsAuthenticated(ctx) {
		t.Fatalf("expected signed out")
	}
}

func TestRegisterSignsIn(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{}
	c := New(id, fastPolicy(), nil)

	user, err := c.Register(ctx, store.Registration{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user == nil || user.Email != "ada@example.com" {
		t.Fatalf("unexpected user %+v", user)
	}
	if !c.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated after registration")
	}
}

func TestRefreshHitsStore(t *testing.T) {
	ctx := context.Background()
	id := &fakeIdentity{user: core.SessionUser{ID: "u1"}, live: true}
	c := New(id, fastPolicy(), nil)

	c.Current(ctx)
	before := id.currentCalls.Load()
	if user := c.Refresh(ctx); user == nil {
		t.Fatalf("refresh lost the session")
	}
	if id.currentCalls.Load() != before+1 {
		t.Fatalf("refresh did not hit the store")
	}
}
