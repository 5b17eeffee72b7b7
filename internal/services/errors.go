// Package services defines the business logic for screening messages and
// for the conversations, turns and feedback built around them. This file
// centralizes the service-level error values so handlers can map them to
// HTTP results consistently.
package services

import "errors"

var (
	// ErrConversationNotFound indicates that the conversation does not exist
	// or is not owned by the current user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyPrompt is returned when the inbound message is blank.
	ErrEmptyPrompt = errors.New("message is empty")

	// ErrTooLong is returned when the inbound message exceeds the configured
	// rune limit.
	ErrTooLong = errors.New("message too long")

	// ErrInvalidFeedback is returned when a feedback value is not -1 or 1.
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrTurnNotFound indicates that the turn does not exist.
	ErrTurnNotFound = errors.New("turn not found")

	// ErrForbiddenFeedback is returned when the user may not rate the turn:
	// it belongs to someone else's conversation or is not an assistant turn.
	ErrForbiddenFeedback = errors.New("cannot leave feedback on this turn")

	// ErrDuplicateFeedback is returned when the user already rated the turn.
	ErrDuplicateFeedback = errors.New("feedback already exists")
)
