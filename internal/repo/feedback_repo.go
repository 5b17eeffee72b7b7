// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback
// model.
//
// Duplicate feedback for the same (turn_id, user_id) relies on the unique
// index and surfaces as the raw DB error; the services package translates
// it into ErrDuplicateFeedback.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

// CreateFeedback inserts a rating of -1 or 1 for turnID by userID.
func CreateFeedback(ctx context.Context, db *gorm.DB, turnID, userID string, value int) error {
	fb := &domain.Feedback{
		ID:        uuid.NewString(),
		TurnID:    turnID,
		UserID:    userID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(fb).Error
}
