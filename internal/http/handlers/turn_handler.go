package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/http/middleware"
	"github.com/tbourn/antiscam-chat-backend/internal/repo"
	"github.com/tbourn/antiscam-chat-backend/internal/services"
)

// HeaderReplayed marks a response served from a stored idempotent result.
const HeaderReplayed = "Idempotency-Replayed"

// PostTurnRequest is a user message sent into a conversation.
type PostTurnRequest struct {
	Message  string `json:"message" binding:"required" example:"我收到簡訊說包裹地址錯誤，要點連結重新填寫"`
	Language string `json:"language,omitempty" example:"zh-TW"`
	LLMOnly  *bool  `json:"llm_only,omitempty"`
}

// PostTurnResponse is the stored assistant turn. Result carries the
// screening outcome and is absent on idempotent replays.
type PostTurnResponse struct {
	Turn   *domain.Turn           `json:"turn"`
	Result *services.HandleResult `json:"result,omitempty"`
}

// ListTurnsResponse is one page of a conversation, oldest first.
type ListTurnsResponse struct {
	Turns      []domain.Turn `json:"turns"`
	Pagination Pagination    `json:"pagination"`
}

// PostTurn godoc
// @ID          postTurn
// @Summary     Send a message and get the assistant reply
// @Description Screens the message, answers it and stores both turns.
// @Description Retries with the same Idempotency-Key return the stored reply.
// @Tags        Turns
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string                    false  "Caller id"
// @Param       Idempotency-Key  header  string                    false  "Key for safe retries"
// @Param       id               path    string                    true   "Conversation id"  format(uuid)
// @Param       body             body    handlers.PostTurnRequest  true   "Message"
// @Success     200  {object}  handlers.PostTurnResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /conversations/{id}/turns [post]
func (h *Handlers) PostTurn(c *gin.Context) {
	ctx := c.Request.Context()
	convID := c.Param("id")
	if _, err := uuid.Parse(convID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}

	var req PostTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return
	}
	msg, valid := h.checkMessage(c, req.Message)
	if !valid {
		return
	}
	uid := ownerID(c)

	key, _ := middleware.GetIdempotencyKey(c)
	if key != "" && h.d.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.d.DB, uid, convID, key, time.Now().UTC()); err == nil {
			if prev, err := repo.GetTurn(ctx, h.d.DB, rec.TurnID); err == nil {
				c.Header(HeaderReplayed, "true")
				ok(c, http.StatusOK, PostTurnResponse{Turn: prev})
				return
			}
		}
	}

	llmOnly := h.d.LLMOnly
	if req.LLMOnly != nil {
		llmOnly = *req.LLMOnly
	}
	turn, res, err := h.d.Turns.Reply(ctx, services.ReplyRequest{
		UserID:         uid,
		ConversationID: convID,
		Message:        msg,
		Language:       h.language(req.Language),
		LLMOnly:        llmOnly,
	})
	if err != nil {
		h.replyError(c, err)
		return
	}

	if key != "" && h.d.DB != nil {
		if _, err := repo.CreateIdempotency(ctx, h.d.DB, uid, convID, key, turn.ID, http.StatusOK, h.d.IdempotencyTTL); err != nil && !repo.IsDuplicate(err) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("turns: storing idempotency key failed")
		}
	}
	middleware.MarkBlocked(c, res.Blocked)
	ok(c, http.StatusOK, PostTurnResponse{Turn: turn, Result: &res})
}

// ListTurns godoc
// @ID          listTurns
// @Summary     List the turns of a conversation
// @Tags        Turns
// @Produce     json
// @Param       X-User-ID  header  string  false  "Caller id"
// @Param       id         path    string  true   "Conversation id"  format(uuid)
// @Param       page       query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListTurnsResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /conversations/{id}/turns [get]
func (h *Handlers) ListTurns(c *gin.Context) {
	ctx := c.Request.Context()
	convID := c.Param("id")
	if _, err := uuid.Parse(convID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	uid := ownerID(c)

	if h.d.DB != nil {
		if _, err := repo.GetConversation(ctx, h.d.DB, convID, uid); err == nil {
			if n, newest, err := repo.TurnsStats(ctx, h.d.DB, convID); err == nil && notModified(c, "turns:"+convID, n, newest) {
				return
			}
		}
	}

	page, pageSize := paginate(c)
	items, total, err := h.d.Turns.ListPage(ctx, uid, convID, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListTurnsResponse{Turns: items, Pagination: pagination(page, pageSize, total)})
}

// checkMessage sanitizes raw and rejects blank or oversized messages at the
// edge. It writes the error response itself.
func (h *Handlers) checkMessage(c *gin.Context, raw string) (string, bool) {
	msg := sanitizeMessage(raw)
	if msg == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
		return "", false
	}
	if utf8.RuneCountInString(msg) > h.d.MaxMessageRunes {
		fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, fmt.Sprintf("message too long: max %d characters", h.d.MaxMessageRunes))
		return "", false
	}
	return msg, true
}

func (h *Handlers) replyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	case errors.Is(err, services.ErrEmptyPrompt):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required")
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeMessageTooLong, "message too long")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeReplyFailed, err.Error())
	}
}
