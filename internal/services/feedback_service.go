// Package services – FeedbackService
//
// FeedbackService records a +1/-1 rating on an assistant turn. The turn must
// exist, belong to one of the user's conversations and be an assistant turn;
// each user may rate a turn once.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/repo"
)

// FeedbackService persists reply ratings.
type FeedbackService struct {
	DB *gorm.DB
}

// Leave stores value (-1 or 1) for turnID by userID.
func (s *FeedbackService) Leave(ctx context.Context, userID, turnID string, value int) error {
	if value != -1 && value != 1 {
		return ErrInvalidFeedback
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		turn, err := repo.GetTurn(ctx, tx, turnID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrTurnNotFound
			}
			return err
		}

		if _, err := repo.GetConversation(ctx, tx, turn.ConversationID, userID); err != nil {
			return ErrForbiddenFeedback
		}
		if turn.Role != domain.RoleAssistant {
			return ErrForbiddenFeedback
		}

		if err := repo.CreateFeedback(ctx, tx, turnID, userID, value); err != nil {
			if repo.IsDuplicate(err) {
				return ErrDuplicateFeedback
			}
			return err
		}
		return nil
	})
}
