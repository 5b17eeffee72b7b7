// Package services – ConversationService
//
// ConversationService manages the lifecycle of conversations: it normalizes
// titles, enforces ownership and paginates listings. Automatic titling from
// the first message happens in TurnService.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

const (
	defaultTitleNew      = "新對話"
	defaultTitleUntitled = "未命名"
)

// ConversationRepo is the persistence contract ConversationService needs.
type ConversationRepo interface {
	CreateConversation(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error)
	GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error)
	UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error
	CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error)
}

// ConversationService provides create, list and rename operations.
type ConversationService struct {
	DB   *gorm.DB
	Repo ConversationRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewConversationService constructs a ConversationService with default title
// handling.
func NewConversationService(db *gorm.DB, r ConversationRepo) *ConversationService {
	return &ConversationService{DB: db, Repo: r, TitleMaxLen: 60}
}

// Create starts a conversation for userID. A blank title becomes "新對話",
// which TurnService later replaces with one derived from the first message.
func (s *ConversationService) Create(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleNew
	}
	return s.Repo.CreateConversation(ctx, s.DB, userID, clipRunes(title, s.TitleMaxLen))
}

// List returns every conversation of userID (non-paginated).
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.Repo.ListConversations(ctx, s.DB, userID)
}

// ListPage returns one page of userID's conversations and the total count.
func (s *ConversationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	offset, limit := pageBounds(page, pageSize)

	total, err := s.Repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}

	items, err := s.Repo.ListConversationsPage(ctx, s.DB, userID, offset, limit)
	return items, total, err
}

// UpdateTitle renames a conversation owned by userID. A blank title becomes
// "未命名".
func (s *ConversationService) UpdateTitle(ctx context.Context, userID, conversationID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleUntitled
	}
	if _, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return s.Repo.UpdateConversationTitle(ctx, s.DB, conversationID, userID, clipRunes(title, s.TitleMaxLen))
}

func pageBounds(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return (page - 1) * pageSize, pageSize
}

func clipRunes(s string, max int) string {
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}

// normalizeTitle trims whitespace and collapses runs of it to one space.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var whitespaceRE = regexp.MustCompile(`\s+`)
