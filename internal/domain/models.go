// Package domain defines the persistence models for conversations, turns and
// reply feedback, plus the generic key/value row used by the SQL-backed
// store. These types are mapped with GORM.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Conversation groups the turns exchanged between one user and the assistant.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: owner; indexed for listing.
//   - Title: derived from the first user message unless set explicitly.
//   - DeletedAt: soft deletion marker.
type Conversation struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_conversations"`
	Title     string         `json:"title"      gorm:"type:varchar(255);not null;default:'新對話'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Turn is one utterance in a conversation. Assistant turns carry the
// screening outcome that produced them so operators can audit decisions.
type Turn struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string         `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conversation_turns,priority:1"`
	Role           string         `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string         `json:"content"         gorm:"type:text;not null"`
	DecisionType   string         `json:"decision_type,omitempty" gorm:"type:varchar(40)"`
	IsScam         bool           `json:"is_scam"`
	ScamType       string         `json:"scam_type,omitempty"     gorm:"type:varchar(40)"`
	Confidence     *float64       `json:"confidence,omitempty"`
	CreatedAt      time.Time      `json:"created_at"      gorm:"index:idx_conversation_turns,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`

	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Turn.
func (Turn) TableName() string { return "turns" }

// Feedback is a +1/-1 rating a user leaves on an assistant turn. One per
// (turn, user).
type Feedback struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	TurnID    string         `json:"turn_id"    gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_turn_user"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;index;uniqueIndex:ux_feedback_turn_user"`
	Value     int            `json:"value"      gorm:"not null;check:value IN (-1,1)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	Turn Turn `json:"-" gorm:"foreignKey:TurnID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }

// KVEntry backs the SQL implementation of the key/value store used for
// usage, abuse and global counter records.
type KVEntry struct {
	Key       string    `gorm:"type:varchar(191);primaryKey"`
	Value     []byte    `gorm:"type:blob;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the database table name for KVEntry.
func (KVEntry) TableName() string { return "kv_entries" }
