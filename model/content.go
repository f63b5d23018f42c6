package model

import "time"

type ContentItem struct {
	Base
	AuthorID  string     `gorm:"type:uuid;index;not null" json:"author_id"`
	Title     string     `gorm:"not null" json:"title"`
	Body      string     `json:"body"`
	Status    string     `gorm:"not null;default:draft" json:"status"`
	Published *time.Time `json:"published_at"`
}

type NewsArticle struct {
	Base
	Title       string    `gorm:"not null" json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `gorm:"uniqueIndex" json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Setting is a per-tenant key/value row edited from the admin screens.
type Setting struct {
	Base
	Key   string `gorm:"uniqueIndex;not null" json:"key"`
	Value string `json:"value"`
}

type Invitation struct {
	Base
	Email      string     `gorm:"index;not null" json:"email"`
	Role       string     `gorm:"not null;default:user" json:"role"`
	Token      string     `gorm:"uniqueIndex;not null" json:"-"`
	InvitedBy  string     `gorm:"type:uuid;not null" json:"invited_by"`
	AcceptedAt *time.Time `json:"accepted_at"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
}
