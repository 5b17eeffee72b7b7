package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/http/middleware"
	"github.com/tbourn/antiscam-chat-backend/internal/services"
)

// maxInlineHistory is how many of the most recent history items are kept.
const maxInlineHistory = 20

// HistoryItem is one prior exchange supplied by a stateless client.
type HistoryItem struct {
	Role    string `json:"role" binding:"required,oneof=user assistant" example:"user"`
	Content string `json:"content" binding:"required" example:"你好"`
}

// ChatRequest is a single message answered without server-side storage.
// UserID falls back to X-User-ID; when both are absent an anonymous id is
// minted and returned in the response.
type ChatRequest struct {
	Message  string        `json:"message" binding:"required" example:"有人說我中了iPhone，要先付運費"`
	UserID   string        `json:"user_id,omitempty" example:"line-user-42"`
	History  []HistoryItem `json:"history,omitempty" binding:"omitempty,dive"`
	IsGroup  bool          `json:"is_group,omitempty"`
	Language string        `json:"language,omitempty" example:"zh-TW"`
	LLMOnly  *bool         `json:"llm_only,omitempty"`
}

// AnalyzeRequest is the text to classify.
type AnalyzeRequest struct {
	Text string `json:"text" binding:"required" example:"恭喜您中獎，請先匯款手續費"`
}

// AnalyzeImageRequest points at an image to screen.
type AnalyzeImageRequest struct {
	ImageURL string `json:"image_url" binding:"required,url" example:"https://example.com/screenshot.png"`
}

// AnalyzeResponse is the raw classifier output plus a readable summary.
type AnalyzeResponse struct {
	Result  detect.ScamResult `json:"result"`
	Summary string            `json:"summary"`
}

// Chat godoc
// @ID          chat
// @Summary     Answer one message statelessly
// @Description Runs the full screening pipeline (guards, usage limits, detectors, reply) on one message.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                false  "Caller id"
// @Param       body       body    handlers.ChatRequest  true   "Message and optional history"
// @Success     200  {object}  services.HandleResult
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message required; history items need role user|assistant and content")
		return
	}
	msg, valid := h.checkMessage(c, req.Message)
	if !valid {
		return
	}

	uid := strings.TrimSpace(req.UserID)
	if uid == "" {
		uid = middleware.UserID(c)
	}
	llmOnly := h.d.LLMOnly
	if req.LLMOnly != nil {
		llmOnly = *req.LLMOnly
	}

	history := make([]domain.ChatTurn, 0, min(len(req.History), maxInlineHistory))
	for _, item := range req.History[max(0, len(req.History)-maxInlineHistory):] {
		history = append(history, domain.ChatTurn{Role: item.Role, Content: item.Content})
	}

	res, err := h.d.Assistant.Handle(c.Request.Context(), services.HandleRequest{
		Message:  msg,
		UserID:   uid,
		History:  history,
		IsGroup:  req.IsGroup,
		Language: h.language(req.Language),
		LLMOnly:  llmOnly,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmptyPrompt) || errors.Is(err, services.ErrTooLong) {
			h.replyError(c, err)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeReplyFailed, err.Error())
		return
	}
	middleware.MarkBlocked(c, res.Blocked)
	ok(c, http.StatusOK, res)
}

// AnalyzeScam godoc
// @ID          analyzeScam
// @Summary     Classify a message
// @Description Returns the scam classifier result without generating a reply or touching usage counters.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.AnalyzeRequest  true  "Text to classify"
// @Success     200  {object}  handlers.AnalyzeResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /scam/analyze [post]
func (h *Handlers) AnalyzeScam(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}
	text, valid := h.checkMessage(c, req.Text)
	if !valid {
		return
	}
	var det detect.ScamDetector = detect.NullScamDetector{}
	if h.d.Scam != nil {
		det = h.d.Scam
	}
	res := det.Detect(text)
	ok(c, http.StatusOK, AnalyzeResponse{Result: res, Summary: detect.Summary(res)})
}

// AnalyzeImage godoc
// @ID          analyzeImage
// @Summary     Screen an image by URL
// @Description Image content is not inspected yet; the result is always "no scam detected".
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.AnalyzeImageRequest  true  "Image"
// @Success     200   {object}  handlers.AnalyzeResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /scam/analyze-image [post]
func (h *Handlers) AnalyzeImage(c *gin.Context) {
	var req AnalyzeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "image_url must be an absolute URL")
		return
	}
	res := detect.AnalyzeImage(req.ImageURL)
	ok(c, http.StatusOK, AnalyzeResponse{Result: res, Summary: detect.Summary(res)})
}
