package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

// TurnInput is the data persisted for one turn. The screening fields are
// only meaningful on assistant turns.
type TurnInput struct {
	ConversationID string
	Role           string
	Content        string
	DecisionType   string
	IsScam         bool
	ScamType       string
	Confidence     *float64
}

// CreateTurn inserts a turn row.
func CreateTurn(ctx context.Context, db *gorm.DB, in TurnInput) (*domain.Turn, error) {
	t := &domain.Turn{
		ID:             uuid.NewString(),
		ConversationID: in.ConversationID,
		Role:           in.Role,
		Content:        in.Content,
		DecisionType:   in.DecisionType,
		IsScam:         in.IsScam,
		ScamType:       in.ScamType,
		Confidence:     in.Confidence,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// ListTurns returns turns in conversation order (created_at, id). limit <= 0
// means no limit.
func ListTurns(ctx context.Context, db *gorm.DB, conversationID string, limit int) ([]domain.Turn, error) {
	var out []domain.Turn
	q := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// RecentTurns returns the last n turns of a conversation, oldest first.
func RecentTurns(ctx context.Context, db *gorm.DB, conversationID string, n int) ([]domain.Turn, error) {
	if n <= 0 {
		return nil, nil
	}
	var out []domain.Turn
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// CountTurns uses a raw COUNT so a missing table surfaces as an error.
func CountTurns(ctx context.Context, db *gorm.DB, conversationID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM turns WHERE conversation_id = ? AND deleted_at IS NULL", conversationID).
		Scan(&total).Error
	return total, err
}

// ListTurnsPage returns one page of turns in conversation order.
func ListTurnsPage(ctx context.Context, db *gorm.DB, conversationID string, offset, limit int) ([]domain.Turn, error) {
	var out []domain.Turn
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetTurn fetches a turn by id.
func GetTurn(ctx context.Context, db *gorm.DB, id string) (*domain.Turn, error) {
	var t domain.Turn
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
