package security

import (
	"time"

	"crm-service/model"
)

// Lockout policy: five failures inside the window lock the identifier out
// for LockoutDuration, counted from the latest failure.
const (
	MaxFailedAttempts = 5
	AttemptWindow     = 15 * time.Minute
	LockoutDuration   = 15 * time.Minute
)

// LockoutStatus is the result of a lockout check.
type LockoutStatus struct {
	Locked       bool       `json:"locked"`
	Attempts     int        `json:"attempts"`
	LockoutUntil *time.Time `json:"lockout_until,omitempty"`
}

// lockoutDecision evaluates recent attempts for one identifier. Attempts
// must be ordered oldest first; a success resets the failure streak.
func lockoutDecision(attempts []model.LoginAttempt, now time.Time) LockoutStatus {
	failures := 0
	var lastFailure time.Time
	for _, a := range attempts {
		if now.Sub(a.CreatedAt) > AttemptWindow {
			continue
		}
		if a.Success {
			failures = 0
			continue
		}
		failures++
		lastFailure = a.CreatedAt
	}

	status := LockoutStatus{Attempts: failures}
	if failures >= MaxFailedAttempts {
		until := lastFailure.Add(LockoutDuration)
		if now.Before(until) {
			status.Locked = true
			status.LockoutUntil = &until
		}
	}
	return status
}
