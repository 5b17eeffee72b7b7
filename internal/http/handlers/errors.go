// Package handlers implements the JSON endpoints. Every failure is written
// as an ErrorResponse carrying one of the codes below, so clients can branch
// on code rather than on message text.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeReplyFailed      = "reply_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeMessageTooLong   = "message_too_long"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
