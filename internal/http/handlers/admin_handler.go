package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/antiscam-chat-backend/internal/usage"
	"github.com/tbourn/antiscam-chat-backend/internal/utils"
)

// GeneratedIDResponse carries a fresh temporary user id.
type GeneratedIDResponse struct {
	UserID string `json:"user_id" example:"temp-1a2b3c4d"`
}

func adminUID(c *gin.Context) (string, bool) {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id required")
		return "", false
	}
	return uid, true
}

// UsageSnapshot godoc
// @ID          usageSnapshot
// @Summary     Global usage windows and user counts
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Operator token"
// @Success     200  {object}  usage.GlobalSnapshot
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/usage [get]
func (h *Handlers) UsageSnapshot(c *gin.Context) {
	snap, err := h.d.Usage.GlobalSnapshot(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, snap)
}

// TopUsers godoc
// @ID          topUsers
// @Summary     Most active users
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Operator token"
// @Param       limit          query   int     false  "Rows"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  usage.TopUsersReport
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /admin/usage/top [get]
func (h *Handlers) TopUsers(c *gin.Context) {
	n := min(100, max(1, utils.AtoiDefault(c.Query("limit"), 10)))
	rep, err := h.d.Usage.TopUsers(c.Request.Context(), n)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, rep)
}

// UserUsage godoc
// @ID          userUsage
// @Summary     One user's usage window and cooldown
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Operator token"
// @Param       uid            path    string  true   "User id"
// @Success     200  {object}  usage.UserStats
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/usage/users/{uid} [get]
func (h *Handlers) UserUsage(c *gin.Context) {
	uid, valid := adminUID(c)
	if !valid {
		return
	}
	st, err := h.d.Usage.UserStats(c.Request.Context(), uid)
	switch {
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	case !st.Found:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no usage recorded for user")
	default:
		ok(c, http.StatusOK, st)
	}
}

// ResetUserUsage godoc
// @ID          resetUserUsage
// @Summary     Clear one user's usage record
// @Tags        Admin
// @Param       X-Admin-Token  header  string  false  "Operator token"
// @Param       uid            path    string  true   "User id"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/usage/users/{uid} [delete]
func (h *Handlers) ResetUserUsage(c *gin.Context) {
	uid, valid := adminUID(c)
	if !valid {
		return
	}
	h.reset(c, func() (bool, error) { return h.d.Usage.Reset(c.Request.Context(), uid) }, "no usage recorded for user")
}

// AbuseStatus godoc
// @ID          abuseStatus
// @Summary     One user's abuse violations and block
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Operator token"
// @Param       uid            path    string  true   "User id"
// @Param       lang           query   string  false  "Language of the block text"
// @Success     200  {object}  abuse.Status
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/abuse/users/{uid} [get]
func (h *Handlers) AbuseStatus(c *gin.Context) {
	uid, valid := adminUID(c)
	if !valid {
		return
	}
	st, err := h.d.Abuse.Status(c.Request.Context(), uid, h.language(c.Query("lang")))
	switch {
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	case !st.Found:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no abuse record for user")
	default:
		ok(c, http.StatusOK, st)
	}
}

// ResetAbuse godoc
// @ID          resetAbuse
// @Summary     Clear one user's abuse record
// @Tags        Admin
// @Param       X-Admin-Token  header  string  false  "Operator token"
// @Param       uid            path    string  true   "User id"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /admin/abuse/users/{uid} [delete]
func (h *Handlers) ResetAbuse(c *gin.Context) {
	uid, valid := adminUID(c)
	if !valid {
		return
	}
	h.reset(c, func() (bool, error) { return h.d.Abuse.Reset(c.Request.Context(), uid) }, "no abuse record for user")
}

// GenerateUserID godoc
// @ID          generateUserID
// @Summary     Mint a temporary user id
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Operator token"
// @Success     201  {object}  handlers.GeneratedIDResponse
// @Router      /admin/usage/generate-id [post]
func (h *Handlers) GenerateUserID(c *gin.Context) {
	ok(c, http.StatusCreated, GeneratedIDResponse{UserID: usage.GenerateUserID()})
}

func (h *Handlers) reset(c *gin.Context, do func() (bool, error), missing string) {
	found, err := do()
	switch {
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	case !found:
		fail(c, http.StatusNotFound, ErrCodeNotFound, missing)
	default:
		noContent(c)
	}
}
