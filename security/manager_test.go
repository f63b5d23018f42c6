package security

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

// dryRunManager backs the manager with a dialector that only builds SQL,
// so activity-clock behavior is observable without a database.
func dryRunManager(t *testing.T) *Manager {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return NewManager(db)
}

func TestKeepAliveDoesNotFeedInactivityClock(t *testing.T) {
	m := dryRunManager(t)
	m.TrackSession("session-1", time.Now().Add(-20*time.Minute))

	m.keepAlive(context.Background())

	if idle := m.IdleFor(); idle <= InactivityTimeout {
		t.Fatalf("idle = %v after keep-alive, want accumulated idle above %v", idle, InactivityTimeout)
	}
}

func TestTouchSessionFeedsClockForTrackedSessionOnly(t *testing.T) {
	m := dryRunManager(t)
	stale := time.Now().Add(-20 * time.Minute)
	m.TrackSession("session-1", stale)

	m.TouchSession(context.Background(), "another-session")
	if idle := m.IdleFor(); idle <= InactivityTimeout {
		t.Fatalf("idle = %v, a foreign session must not move the clock", idle)
	}

	m.TouchSession(context.Background(), "session-1")
	if idle := m.IdleFor(); idle > InactivityTimeout {
		t.Fatalf("idle = %v, a request on the tracked session must reset the clock", idle)
	}
}

func TestTouchResetsIdleClock(t *testing.T) {
	m := dryRunManager(t)
	m.TrackSession("session-1", time.Now().Add(-20*time.Minute))

	m.Touch(context.Background())

	if idle := m.IdleFor(); idle > InactivityTimeout {
		t.Fatalf("idle = %v after Touch, want the clock reset", idle)
	}
}
