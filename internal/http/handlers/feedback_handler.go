package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/antiscam-chat-backend/internal/services"
)

// LeaveFeedbackRequest rates an assistant turn with -1 or 1.
type LeaveFeedbackRequest struct {
	Value int `json:"value" binding:"required,oneof=-1 1" example:"1"`
}

// LeaveFeedback godoc
// @ID          leaveFeedback
// @Summary     Rate an assistant reply
// @Description One rating per user and turn. Only assistant turns in the caller's conversations can be rated.
// @Tags        Feedback
// @Accept      json
// @Param       X-User-ID  header  string                         false  "Caller id"
// @Param       id         path    string                         true   "Turn id"  format(uuid)
// @Param       body       body    handlers.LeaveFeedbackRequest  true   "Rating"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /turns/{id}/feedback [post]
func (h *Handlers) LeaveFeedback(c *gin.Context) {
	turnID := c.Param("id")
	if _, err := uuid.Parse(turnID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "turn id must be a UUID")
		return
	}
	var req LeaveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}

	err := h.d.Feedback.Leave(c.Request.Context(), ownerID(c), turnID, req.Value)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrInvalidFeedback):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrTurnNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "turn not found")
	case errors.Is(err, services.ErrForbiddenFeedback):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrDuplicateFeedback):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
