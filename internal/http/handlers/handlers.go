package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/antiscam-chat-backend/internal/abuse"
	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/http/middleware"
	"github.com/tbourn/antiscam-chat-backend/internal/services"
	"github.com/tbourn/antiscam-chat-backend/internal/usage"
	"github.com/tbourn/antiscam-chat-backend/internal/utils"
)

// ConversationService is the slice of *services.ConversationService the
// handlers use.
type ConversationService interface {
	Create(ctx context.Context, userID, title string) (*domain.Conversation, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	UpdateTitle(ctx context.Context, userID, conversationID, title string) error
}

// TurnService posts and lists conversation turns.
type TurnService interface {
	Reply(ctx context.Context, req services.ReplyRequest) (*domain.Turn, services.HandleResult, error)
	ListPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Turn, int64, error)
}

// FeedbackService rates assistant turns.
type FeedbackService interface {
	Leave(ctx context.Context, userID, turnID string, value int) error
}

// Assistant answers stateless chat requests.
type Assistant interface {
	Handle(ctx context.Context, req services.HandleRequest) (services.HandleResult, error)
}

// UsageAdmin is the operator surface of the usage limiter.
type UsageAdmin interface {
	GlobalSnapshot(ctx context.Context) (usage.GlobalSnapshot, error)
	TopUsers(ctx context.Context, n int) (usage.TopUsersReport, error)
	UserStats(ctx context.Context, userID string) (usage.UserStats, error)
	Reset(ctx context.Context, userID string) (bool, error)
}

// AbuseAdmin is the operator surface of the abuse guard.
type AbuseAdmin interface {
	Status(ctx context.Context, userID, lang string) (abuse.Status, error)
	Reset(ctx context.Context, userID string) (bool, error)
}

// Deps are the collaborators of Handlers. DB is optional; without it ETags
// and idempotent replays are skipped.
type Deps struct {
	Conversations ConversationService
	Turns         TurnService
	Feedback      FeedbackService
	Assistant     Assistant
	Scam          detect.ScamDetector
	Usage         UsageAdmin
	Abuse         AbuseAdmin
	DB            *gorm.DB

	Language        string        // default reply language
	LLMOnly         bool          // default for the llm_only request flag
	MaxMessageRunes int           // edge cap; the Assistant enforces it again
	IdempotencyTTL  time.Duration // default 24h
}

// Handlers groups all HTTP handlers.
type Handlers struct {
	d Deps
}

// New returns Handlers over d.
func New(d Deps) *Handlers {
	if d.IdempotencyTTL <= 0 {
		d.IdempotencyTTL = 24 * time.Hour
	}
	if d.MaxMessageRunes <= 0 {
		d.MaxMessageRunes = 2000
	}
	return &Handlers{d: d}
}

// Pagination is the page envelope shared by list endpoints.
type Pagination struct {
	Page       int   `json:"page" example:"1"`
	PageSize   int   `json:"page_size" example:"20"`
	Total      int64 `json:"total" example:"42"`
	TotalPages int   `json:"total_pages" example:"3"`
	HasNext    bool  `json:"has_next" example:"true"`
}

func paginate(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(c.Query("page"), c.Query("page_size"), 20, 100)
}

func pagination(page, pageSize int, total int64) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages, HasNext: page < pages}
}

// ownerID is the owner of stored conversations: the X-User-ID caller, or
// the shared demo user.
func ownerID(c *gin.Context) string {
	if uid := middleware.UserID(c); uid != "" {
		return uid
	}
	return middleware.DemoUserID
}

func (h *Handlers) language(requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return h.d.Language
}

var blankLinesRE = regexp.MustCompile(`\n{3,}`)

// sanitizeMessage normalizes line endings, collapses runs of blank lines
// and trims the result.
func sanitizeMessage(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankLinesRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// notModified sets a weak ETag built from (scope, count, newest update) and
// reports whether the client's If-None-Match already matches it.
func notModified(c *gin.Context, scope string, count int64, newest *time.Time) bool {
	var ts int64
	if newest != nil {
		ts = newest.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, scope, count, ts)
	c.Header("ETag", etag)
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
