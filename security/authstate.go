package security

import (
	"context"
	"sync"
	"time"

	"crm-service/model"
)

// BootstrapTimeout caps how long auth initialization may keep readers in
// the loading state. A backend that never answers must not spin callers
// forever.
const BootstrapTimeout = 5 * time.Second

// AuthSnapshot is the current auth view handed to observers.
type AuthSnapshot struct {
	User    *model.User
	Session string
	Loading bool
}

// AuthState tracks the resolved user/session pair and notifies subscribers
// on change. It starts in the loading state and force-resolves after
// BootstrapTimeout even if the resolver never returns.
type AuthState struct {
	mu       sync.Mutex
	snapshot AuthSnapshot
	subs     map[int]func(AuthSnapshot)
	nextSub  int
	disposed bool
}

func NewAuthState() *AuthState {
	return &AuthState{
		snapshot: AuthSnapshot{Loading: true},
		subs:     make(map[int]func(AuthSnapshot)),
	}
}

// Current returns the latest snapshot.
func (a *AuthState) Current() AuthSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshot
}

// Subscribe registers a change callback and returns its unsubscribe func.
func (a *AuthState) Subscribe(fn func(AuthSnapshot)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs, id)
	}
}

func (a *AuthState) set(snapshot AuthSnapshot) {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	a.snapshot = snapshot
	subs := make([]func(AuthSnapshot), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Set publishes a resolved user/session pair.
func (a *AuthState) Set(user *model.User, session string) {
	a.set(AuthSnapshot{User: user, Session: session, Loading: false})
}

// Clear publishes the signed-out state.
func (a *AuthState) Clear() {
	a.set(AuthSnapshot{Loading: false})
}

// Resolve runs the auth check with a hard BootstrapTimeout floor: if the
// resolver has not answered by then, loading resolves to false with no
// user rather than spinning.
func (a *AuthState) Resolve(ctx context.Context, resolver func(context.Context) (*model.User, string, error)) {
	ctx, cancel := context.WithTimeout(ctx, BootstrapTimeout)
	defer cancel()

	type result struct {
		user    *model.User
		session string
		err     error
	}
	done := make(chan result, 1)
	go func() {
		user, session, err := resolver(ctx)
		done <- result{user, session, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			a.Clear()
			return
		}
		a.Set(r.user, r.session)
	case <-ctx.Done():
		a.Clear()
	}
}

// Dispose drops all subscribers; later sets are ignored.
func (a *AuthState) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disposed = true
	a.subs = make(map[int]func(AuthSnapshot))
}
