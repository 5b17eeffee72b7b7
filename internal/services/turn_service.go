package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Handler answers one message; *Assistant implements it.
type Handler interface {
	Handle(ctx context.Context, req HandleRequest) (HandleResult, error)
}

// ReplyRequest is a message posted into a stored conversation.
type ReplyRequest struct {
	UserID         string
	ConversationID string
	Message        string
	Language       string
	LLMOnly        bool
}

// TurnService runs messages of stored conversations through the Assistant
// and persists both sides of the exchange.
type TurnService struct {
	DB        *gorm.DB
	Assistant Handler

	// HistoryTurns is how many prior turns are handed to the pipeline.
	HistoryTurns int

	TitleLocale language.Tag
	TitleMaxLen int
}

// Reply screens and answers req.Message, then stores the user turn and the
// assistant turn (with its decision) atomically. A conversation still
// carrying a default title is renamed after the message.
func (s *TurnService) Reply(ctx context.Context, req ReplyRequest) (*domain.Turn, HandleResult, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "Reply",
		trace.WithAttributes(
			attribute.String("conversation.id", req.ConversationID),
			attribute.String("user.id", req.UserID),
		),
	)
	defer span.End()

	conv, err := repo.GetConversation(ctx, s.DB, req.ConversationID, req.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, HandleResult{}, ErrConversationNotFound
		}
		return nil, HandleResult{}, err
	}

	prior, err := repo.RecentTurns(ctx, s.DB, conv.ID, s.HistoryTurns)
	if err != nil {
		return nil, HandleResult{}, err
	}
	history := make([]domain.ChatTurn, 0, len(prior))
	for _, t := range prior {
		history = append(history, domain.ChatTurn{Role: t.Role, Content: t.Content})
	}

	res, err := s.Assistant.Handle(ctx, HandleRequest{
		Message:  req.Message,
		UserID:   req.UserID,
		History:  history,
		Language: req.Language,
		LLMOnly:  req.LLMOnly,
	})
	if err != nil {
		return nil, HandleResult{}, err
	}

	decision := string(res.Decision)
	if res.Blocked != "" {
		decision = res.Blocked
	}
	var confidence *float64
	if res.IsScam {
		c := res.Confidence
		confidence = &c
	}
	scamType := ""
	if res.ScamInfo != nil {
		scamType = res.ScamInfo.ID
	}

	var reply *domain.Turn
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateTurn(ctx, tx, repo.TurnInput{
			ConversationID: conv.ID,
			Role:           domain.RoleUser,
			Content:        strings.TrimSpace(req.Message),
		}); err != nil {
			return err
		}
		t, err := repo.CreateTurn(ctx, tx, repo.TurnInput{
			ConversationID: conv.ID,
			Role:           domain.RoleAssistant,
			Content:        res.Response,
			DecisionType:   decision,
			IsScam:         res.IsScam,
			ScamType:       scamType,
			Confidence:     confidence,
		})
		if err != nil {
			return err
		}
		reply = t

		if shouldAutoTitle(conv.Title) {
			if gen := s.titleFrom(req.Message); gen != "" {
				if uerr := tx.Model(&domain.Conversation{}).Where("id = ?", conv.ID).Update("title", gen).Error; uerr != nil {
					log.Ctx(ctx).Warn().Err(uerr).Str("conversation_id", conv.ID).Msg("turns: auto-title failed")
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, HandleResult{}, err
	}
	span.SetAttributes(attribute.String("decision.type", decision))
	return reply, res, nil
}

// ListPage returns one page of a conversation's turns and the total count.
func (s *TurnService) ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Turn, int64, error) {
	tr := otel.Tracer("services/TurnService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrConversationNotFound
		}
		return nil, 0, err
	}

	offset, limit := pageBounds(page, pageSize)
	total, err := repo.CountTurns(ctx, s.DB, conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Turn{}, 0, nil
	}
	items, err := repo.ListTurnsPage(ctx, s.DB, conversationID, offset, limit)
	return items, total, err
}

func shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(current)
	return t == "" || t == defaultTitleNew || t == defaultTitleUntitled
}

// titleFrom derives a short title from the first line of a message. Latin
// words are title-cased; CJK text passes through unchanged.
func (s *TurnService) titleFrom(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	line = normalizeTitle(line)
	if line == "" {
		return ""
	}
	tag := s.TitleLocale
	if tag == language.Und {
		tag = language.TraditionalChinese
	}
	max := s.TitleMaxLen
	if max <= 0 {
		max = 20
	}
	return clipRunes(cases.Title(tag).String(line), max)
}
