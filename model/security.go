package model

import "time"

// LoginAttempt is the audit row behind lockout checks and anomaly reports.
type LoginAttempt struct {
	Base
	Identifier  string  `gorm:"index;not null" json:"identifier"`
	UserID      *string `gorm:"type:uuid;index" json:"user_id"`
	AttemptType string  `gorm:"not null;default:password" json:"attempt_type"`
	Success     bool    `gorm:"not null" json:"success"`
	UserAgent   string  `json:"user_agent"`
	RemoteIP    string  `json:"remote_ip"`
}

type UserSession struct {
	Base
	UserID       string    `gorm:"type:uuid;index;not null" json:"user_id"`
	SessionID    string    `gorm:"type:uuid;uniqueIndex;not null" json:"session_id"`
	UserAgent    string    `json:"user_agent"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	LastActivity time.Time `gorm:"not null" json:"last_activity"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
}
