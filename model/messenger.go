package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MediaFile describes one message attachment.
type MediaFile struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Name     string `json:"name"`
}

// MediaList is stored as a jsonb column.
type MediaList []MediaFile

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *MediaList) Scan(value interface{}) error {
	if value == nil {
		*m = MediaList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported attachments type %T", value)
	}
}

// Message priorities
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Message struct {
	Base
	SenderID    string    `gorm:"type:uuid;index;not null" json:"sender_id"`
	RecipientID *string   `gorm:"type:uuid;index" json:"recipient_id"`
	Subject     string    `gorm:"not null" json:"subject"`
	Content     string    `gorm:"not null" json:"content"`
	MessageType string    `gorm:"not null;default:direct" json:"message_type"`
	Priority    string    `gorm:"not null;default:normal" json:"priority"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	IsArchived  bool      `gorm:"not null;default:false" json:"is_archived"`
	VideoRoomID *string   `json:"video_room_id"`
	Attachments MediaList `gorm:"type:jsonb" json:"attachments"`
}

// Reaction types
const (
	ReactionThumbsUp = "thumbs_up"
	ReactionHeart    = "heart"
	ReactionSmile    = "smile"
)

// MessageReaction rows are unique per (message, user, type); a duplicate
// insert fails at the database and is surfaced as a non-fatal toast.
type MessageReaction struct {
	Base
	MessageID    string `gorm:"type:uuid;index;uniqueIndex:idx_reaction_once,priority:1;not null" json:"message_id"`
	UserID       string `gorm:"type:uuid;uniqueIndex:idx_reaction_once,priority:2;not null" json:"user_id"`
	ReactionType string `gorm:"uniqueIndex:idx_reaction_once,priority:3;not null" json:"reaction_type"`
}

// TypingIndicator is an ephemeral per-(user, recipient) flag. One logical
// row per pair, continuously overwritten; stale rows are cleared by a
// server-side job, readers apply a staleness threshold on top. A null
// recipient means broadcast scope; the index treats nulls as equal so the
// pair upsert matches broadcast rows too (needs Postgres 15).
type TypingIndicator struct {
	Base
	UserID      string    `gorm:"type:uuid;uniqueIndex:idx_typing_pair,priority:1;not null" json:"user_id"`
	RecipientID *string   `gorm:"type:uuid;uniqueIndex:idx_typing_pair,priority:2,option:NULLS NOT DISTINCT" json:"recipient_id"`
	IsTyping    bool      `gorm:"not null;default:false" json:"is_typing"`
	LastUpdated time.Time `gorm:"not null" json:"last_updated"`
}

// Presence statuses
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

type UserPresence struct {
	Base
	UserID       string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Status       string    `gorm:"not null;default:offline" json:"status"`
	CustomStatus string    `json:"custom_status"`
	LastSeen     time.Time `gorm:"not null" json:"last_seen"`
}
