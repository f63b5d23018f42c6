package security

import (
	"context"
	"testing"
	"time"

	"crm-service/model"
)

func attempt(age time.Duration, success bool, now time.Time) model.LoginAttempt {
	a := model.LoginAttempt{Identifier: "user@example.com", Success: success}
	a.CreatedAt = now.Add(-age)
	return a
}

func TestLockoutDecision(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		attempts []model.LoginAttempt
		locked   bool
		count    int
	}{
		{
			name:   "no attempts",
			locked: false,
			count:  0,
		},
		{
			name: "four recent failures stay unlocked",
			attempts: []model.LoginAttempt{
				attempt(4*time.Minute, false, now),
				attempt(3*time.Minute, false, now),
				attempt(2*time.Minute, false, now),
				attempt(time.Minute, false, now),
			},
			locked: false,
			count:  4,
		},
		{
			name: "five recent failures lock",
			attempts: []model.LoginAttempt{
				attempt(5*time.Minute, false, now),
				attempt(4*time.Minute, false, now),
				attempt(3*time.Minute, false, now),
				attempt(2*time.Minute, false, now),
				attempt(time.Minute, false, now),
			},
			locked: true,
			count:  5,
		},
		{
			name: "success resets the streak",
			attempts: []model.LoginAttempt{
				attempt(6*time.Minute, false, now),
				attempt(5*time.Minute, false, now),
				attempt(4*time.Minute, false, now),
				attempt(3*time.Minute, true, now),
				attempt(2*time.Minute, false, now),
				attempt(time.Minute, false, now),
			},
			locked: false,
			count:  2,
		},
		{
			name: "old failures age out of the window",
			attempts: []model.LoginAttempt{
				attempt(20*time.Minute, false, now),
				attempt(19*time.Minute, false, now),
				attempt(18*time.Minute, false, now),
				attempt(2*time.Minute, false, now),
				attempt(time.Minute, false, now),
			},
			locked: false,
			count:  2,
		},
		{
			name: "stale streak still inside the hold stays locked",
			attempts: []model.LoginAttempt{
				// Newest failure is 14 minutes old, hold runs one more minute.
				attempt(14*time.Minute, false, now),
				attempt(14*time.Minute, false, now),
				attempt(14*time.Minute, false, now),
				attempt(14*time.Minute, false, now),
				attempt(14*time.Minute, false, now),
			},
			locked: true,
			count:  5,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lockoutDecision(tc.attempts, now)
			if got.Locked != tc.locked {
				t.Fatalf("locked = %v, want %v", got.Locked, tc.locked)
			}
			if got.Attempts != tc.count {
				t.Fatalf("attempts = %d, want %d", got.Attempts, tc.count)
			}
			if tc.locked && got.LockoutUntil == nil {
				t.Fatal("locked status missing lockout_until")
			}
		})
	}
}

func TestAuthResolveTimeoutFloor(t *testing.T) {
	state := NewAuthState()
	if !state.Current().Loading {
		t.Fatal("auth state should start loading")
	}

	start := time.Now()
	state.Resolve(context.Background(), func(ctx context.Context) (*model.User, string, error) {
		<-ctx.Done() // never answers on its own
		return nil, "", ctx.Err()
	})
	elapsed := time.Since(start)

	if state.Current().Loading {
		t.Fatal("loading flag must resolve to false")
	}
	if state.Current().User != nil {
		t.Fatal("unresolved auth must not produce a user")
	}
	if elapsed > BootstrapTimeout+time.Second {
		t.Fatalf("resolve took %v, exceeds the %v floor", elapsed, BootstrapTimeout)
	}
}

func TestAuthResolveSuccess(t *testing.T) {
	state := NewAuthState()

	var notified []AuthSnapshot
	unsubscribe := state.Subscribe(func(s AuthSnapshot) {
		notified = append(notified, s)
	})
	defer unsubscribe()

	user := &model.User{Username: "admin"}
	user.ID = "u1"
	state.Resolve(context.Background(), func(ctx context.Context) (*model.User, string, error) {
		return user, "session-1", nil
	})

	got := state.Current()
	if got.Loading {
		t.Fatal("still loading after resolve")
	}
	if got.User == nil || got.User.ID != "u1" || got.Session != "session-1" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if len(notified) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notified))
	}
}

func TestAuthStateDispose(t *testing.T) {
	state := NewAuthState()
	calls := 0
	state.Subscribe(func(AuthSnapshot) { calls++ })

	state.Dispose()
	state.Set(&model.User{}, "s")

	if calls != 0 {
		t.Fatalf("disposed state notified %d times", calls)
	}
	if state.Current().User != nil {
		t.Fatal("set after dispose must be ignored")
	}
}
