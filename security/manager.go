package security

import (
	"context"
	"log"
	"sync"
	"time"

	"crm-service/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SessionTTL        = 24 * time.Hour
	InactivityTimeout = 15 * time.Minute
	heartbeatInterval = 5 * time.Minute
	inactivityCheck   = time.Minute
)

// Manager wraps the lockout, login-audit and session tables. It keeps the
// current session id and last-activity timestamp for the inactivity timer;
// everything else lives in Postgres.
type Manager struct {
	db *gorm.DB

	mu           sync.Mutex
	sessionID    string
	lastActivity time.Time
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db, lastActivity: time.Now()}
}

// SessionID returns the current session id, or "" when signed out.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// IdleFor reports how long the tracked session has been without activity.
func (m *Manager) IdleFor() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// CheckAccountLockout reports whether the identifier is locked out. A
// failing lookup reports unlocked: lockout is a brake, not a gate that can
// take sign-in down with it.
func (m *Manager) CheckAccountLockout(ctx context.Context, identifier string) LockoutStatus {
	var attempts []model.LoginAttempt
	err := m.db.WithContext(ctx).
		Where("identifier = ? AND created_at > ?", identifier, time.Now().Add(-AttemptWindow)).
		Order("created_at asc").
		Find(&attempts).Error
	if err != nil {
		log.Printf("lockout check for %s: %v", identifier, err)
		return LockoutStatus{}
	}
	return lockoutDecision(attempts, time.Now())
}

// LogLoginAttempt records one sign-in attempt. Failures to write the audit
// row are logged, never surfaced to the caller.
func (m *Manager) LogLoginAttempt(ctx context.Context, identifier string, userID *string, attemptType string, success bool, userAgent, remoteIP string) {
	if attemptType == "" {
		attemptType = "password"
	}
	attempt := model.LoginAttempt{
		Identifier:  identifier,
		UserID:      userID,
		AttemptType: attemptType,
		Success:     success,
		UserAgent:   userAgent,
		RemoteIP:    remoteIP,
	}
	if err := m.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		log.Printf("log login attempt: %v", err)
	}
}

// CreateSession opens a session row for the user and tracks it locally.
func (m *Manager) CreateSession(ctx context.Context, userID, userAgent string) (string, error) {
	sessionID := uuid.NewString()
	session := model.UserSession{
		UserID:       userID,
		SessionID:    sessionID,
		UserAgent:    userAgent,
		IsActive:     true,
		LastActivity: time.Now(),
		ExpiresAt:    time.Now().Add(SessionTTL),
	}
	if err := m.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessionID = sessionID
	m.lastActivity = time.Now()
	m.mu.Unlock()
	return sessionID, nil
}

// TrackSession adopts an existing session for inactivity tracking, as
// after a token renew or a process restart. lastActivity seeds the clock;
// pass the session row's value to keep accumulated idle time.
func (m *Manager) TrackSession(sessionID string, lastActivity time.Time) {
	m.mu.Lock()
	m.sessionID = sessionID
	m.lastActivity = lastActivity
	m.mu.Unlock()
}

// Touch refreshes the local last-activity timestamp and the session row.
// Only real user activity may call it: the inactivity timer reads the
// timestamp it resets.
func (m *Manager) Touch(ctx context.Context) {
	m.mu.Lock()
	sessionID := m.sessionID
	m.lastActivity = time.Now()
	m.mu.Unlock()
	if sessionID == "" {
		return
	}

	err := m.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("session_id = ?", sessionID).
		Update("last_activity", time.Now()).Error
	if err != nil {
		log.Printf("update session activity: %v", err)
	}
}

// TouchSession refreshes one session row from an authenticated request.
// The inactivity clock moves only when the request belongs to the
// tracked session.
func (m *Manager) TouchSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	err := m.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("session_id = ? AND is_active = ?", sessionID, true).
		Update("last_activity", time.Now()).Error
	if err != nil {
		log.Printf("update session activity: %v", err)
	}

	m.mu.Lock()
	if sessionID == m.sessionID {
		m.lastActivity = time.Now()
	}
	m.mu.Unlock()
}

// keepAlive refreshes the tracked session row so it is not swept as
// abandoned. It must not move the inactivity clock.
func (m *Manager) keepAlive(ctx context.Context) {
	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	if sessionID == "" {
		return
	}

	err := m.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("session_id = ?", sessionID).
		Update("last_activity", time.Now()).Error
	if err != nil {
		log.Printf("session keep-alive: %v", err)
	}
}

// TerminateSession deactivates a session row. An empty id terminates the
// current session.
func (m *Manager) TerminateSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	if sessionID == "" {
		sessionID = m.sessionID
	}
	if sessionID == m.sessionID {
		m.sessionID = ""
	}
	m.mu.Unlock()
	if sessionID == "" {
		return nil
	}

	return m.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("session_id = ?", sessionID).
		Update("is_active", false).Error
}

// ActiveSessions lists a user's live sessions, most recent activity first.
func (m *Manager) ActiveSessions(ctx context.Context, userID string) ([]model.UserSession, error) {
	var sessions []model.UserSession
	err := m.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, time.Now()).
		Order("last_activity desc").
		Find(&sessions).Error
	return sessions, err
}

// Anomaly is one finding from the anomaly sweep.
type Anomaly struct {
	Kind       string `json:"kind"`
	Identifier string `json:"identifier"`
	Severity   string `json:"severity"`
	Count      int    `json:"count"`
}

// DetectAnomalies flags identifiers with failure bursts and sessions still
// marked active past their expiry.
func (m *Manager) DetectAnomalies(ctx context.Context) ([]Anomaly, error) {
	var anomalies []Anomaly

	type bucket struct {
		Identifier string
		Count      int
	}
	var bursts []bucket
	err := m.db.WithContext(ctx).Model(&model.LoginAttempt{}).
		Select("identifier, count(*) as count").
		Where("success = ? AND created_at > ?", false, time.Now().Add(-time.Hour)).
		Group("identifier").
		Having("count(*) >= ?", 10).
		Scan(&bursts).Error
	if err != nil {
		return nil, err
	}
	for _, b := range bursts {
		anomalies = append(anomalies, Anomaly{
			Kind:       "failed_login_burst",
			Identifier: b.Identifier,
			Severity:   "high",
			Count:      b.Count,
		})
	}

	var expired int64
	err = m.db.WithContext(ctx).Model(&model.UserSession{}).
		Where("is_active = ? AND expires_at < ?", true, time.Now()).
		Count(&expired).Error
	if err != nil {
		return nil, err
	}
	if expired > 0 {
		anomalies = append(anomalies, Anomaly{
			Kind:     "expired_active_sessions",
			Severity: "medium",
			Count:    int(expired),
		})
	}

	return anomalies, nil
}

// RunHeartbeat keeps the session row fresh every five minutes and
// terminates the session after fifteen minutes without a Touch. Blocks
// until ctx ends.
func (m *Manager) RunHeartbeat(ctx context.Context, onTimeout func()) {
	heartbeat := time.NewTicker(heartbeatInterval)
	check := time.NewTicker(inactivityCheck)
	defer heartbeat.Stop()
	defer check.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			m.keepAlive(ctx)
		case <-check.C:
			m.mu.Lock()
			idle := time.Since(m.lastActivity)
			sessionID := m.sessionID
			m.mu.Unlock()
			if sessionID != "" && idle > InactivityTimeout {
				if err := m.TerminateSession(ctx, sessionID); err != nil {
					log.Printf("terminate idle session: %v", err)
				}
				if onTimeout != nil {
					onTimeout()
				}
			}
		}
	}
}
