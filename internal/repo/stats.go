// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the small aggregate queries the HTTP
// layer uses to build weak ETags for list endpoints.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

// ConversationsStats returns the number of userID's conversations and the
// latest UpdatedAt among them (nil when there are none).
func ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return stats(db.WithContext(ctx).Model(&domain.Conversation{}).Where("user_id = ?", userID))
}

// TurnsStats returns the number of turns in a conversation and the latest
// UpdatedAt among them (nil when there are none).
func TurnsStats(ctx context.Context, db *gorm.DB, conversationID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return stats(db.WithContext(ctx).Model(&domain.Turn{}).Where("conversation_id = ?", conversationID))
}

func stats(q *gorm.DB) (int64, *time.Time, error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Select the newest row instead of MAX(): SQLite returns MAX() as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
