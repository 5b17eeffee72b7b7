package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/repo"
	"github.com/tbourn/antiscam-chat-backend/internal/services"
)

// CreateConversationRequest optionally names the new conversation.
type CreateConversationRequest struct {
	Title string `json:"title" example:"可疑簡訊"`
}

// UpdateTitleRequest renames a conversation. A blank title resets it.
type UpdateTitleRequest struct {
	Title string `json:"title" example:"銀行客服來電"`
}

// ListConversationsResponse is one page of the caller's conversations.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// CreateConversation godoc
// @ID          createConversation
// @Summary     Create a conversation
// @Tags        Conversations
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                              false  "Caller id"  example(line-user-42)
// @Param       body       body    handlers.CreateConversationRequest  false  "Optional title"
// @Success     201  {object}  domain.Conversation
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	conv, err := h.d.Conversations.Create(c.Request.Context(), ownerID(c), req.Title)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations
// @Description Newest first. Supports If-None-Match against a weak ETag.
// @Tags        Conversations
// @Produce     json
// @Param       X-User-ID  header  string  false  "Caller id"
// @Param       page       query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListConversationsResponse
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := ownerID(c)

	if h.d.DB != nil {
		if n, newest, err := repo.ConversationsStats(ctx, h.d.DB, uid); err == nil && notModified(c, "conversations:"+uid, n, newest) {
			return
		}
	}

	page, pageSize := paginate(c)
	items, total, err := h.d.Conversations.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    pagination(page, pageSize, total),
	})
}

// UpdateConversationTitle godoc
// @ID          updateConversationTitle
// @Summary     Rename a conversation
// @Tags        Conversations
// @Accept      json
// @Param       X-User-ID  header  string                       false  "Caller id"
// @Param       id         path    string                       true   "Conversation id"  format(uuid)
// @Param       body       body    handlers.UpdateTitleRequest  true   "New title"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /conversations/{id}/title [put]
func (h *Handlers) UpdateConversationTitle(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return
	}
	var req UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.d.Conversations.UpdateTitle(c.Request.Context(), ownerID(c), id, req.Title)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrConversationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
