package model

import "time"

type Contact struct {
	Base
	OwnerID   string `gorm:"type:uuid;index;not null" json:"owner_id"`
	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `gorm:"index" json:"email"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Notes     string `json:"notes"`
}

// Lead stages
const (
	LeadStageNew       = "new"
	LeadStageContacted = "contacted"
	LeadStageQualified = "qualified"
	LeadStageLost      = "lost"
)

type Lead struct {
	Base
	OwnerID string  `gorm:"type:uuid;index;not null" json:"owner_id"`
	Name    string  `gorm:"not null" json:"name"`
	Email   string  `json:"email"`
	Company string  `json:"company"`
	Stage   string  `gorm:"not null;default:new" json:"stage"`
	Value   float64 `json:"value"`
	Source  string  `json:"source"`
	Notes   string  `json:"notes"`
}

// Deal stages
const (
	DealStageOpen = "open"
	DealStageWon  = "won"
	DealStageLost = "lost"
)

type Deal struct {
	Base
	OwnerID  string     `gorm:"type:uuid;index;not null" json:"owner_id"`
	LeadID   *string    `gorm:"type:uuid;index" json:"lead_id"`
	Title    string     `gorm:"not null" json:"title"`
	Stage    string     `gorm:"not null;default:open" json:"stage"`
	Amount   float64    `json:"amount"`
	ClosedAt *time.Time `json:"closed_at"`
}
