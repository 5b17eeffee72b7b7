package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/abuse"
	"github.com/tbourn/antiscam-chat-backend/internal/compose"
	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/i18n"
	"github.com/tbourn/antiscam-chat-backend/internal/orchestrator"
	"github.com/tbourn/antiscam-chat-backend/internal/usage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Reasons a message was answered without reaching the pipeline. They double
// as the matched category reported to clients.
const (
	BlockedMarkup = "html_tags"
	BlockedAbuse  = "abusive_content"
	BlockedUsage  = "usage_limit"
)

const defaultMaxMessageRunes = 2000

// Decider selects how a message is answered.
type Decider interface {
	Decide(ctx context.Context, in orchestrator.Input) orchestrator.Decision
}

// Composer renders the reply for a decision.
type Composer interface {
	Compose(ctx context.Context, in compose.Input) compose.Result
}

// UsageLimiter gates requests and accounts answered ones.
type UsageLimiter interface {
	Check(ctx context.Context, userID, message, lang string) usage.Verdict
	Record(ctx context.Context, userID string, tokens int) error
}

// AbuseChecker rejects abusive messages and blocked users.
type AbuseChecker interface {
	Check(ctx context.Context, userID, text, lang string) abuse.Verdict
}

// HandleRequest is one inbound message.
type HandleRequest struct {
	Message  string
	UserID   string
	History  []domain.ChatTurn
	IsGroup  bool
	Language string
	LLMOnly  bool
}

// HandleResult is the reply plus the screening outcome behind it.
type HandleResult struct {
	Response          string                    `json:"response"`
	UserID            string                    `json:"user_id"`
	IsScam            bool                      `json:"is_scam"`
	MatchedCategories []string                  `json:"matched_categories"`
	Confidence        float64                   `json:"confidence"`
	ScamInfo          *detect.ScamInfo          `json:"scam_info,omitempty"`
	Emotion           *domain.EmotionAnalysis   `json:"emotion_analysis,omitempty"`
	Decision          orchestrator.DecisionType `json:"decision_type,omitempty"`
	Priority          string                    `json:"priority,omitempty"`
	AlertLevel        string                    `json:"alert_level,omitempty"`
	ValuesFiltered    []string                  `json:"values_filtered,omitempty"`
	Blocked           string                    `json:"blocked,omitempty"`
	Cooldown          int64                     `json:"cooldown_remaining,omitempty"`
	Tokens            int                       `json:"tokens"`
	Fallback          bool                      `json:"fallback,omitempty"`
}

// Assistant is the channel-agnostic entry point: guards, limits, decision,
// composition and usage accounting for a single message.
type Assistant struct {
	Orchestrator Decider
	Composer     Composer
	Limiter      UsageLimiter
	// Abuse is optional; nil disables the abusive-language guard.
	Abuse AbuseChecker
	Msgs  *i18n.Localizer

	MaxMessageRunes int
}

// NewAssistant wires an Assistant with the default message cap.
func NewAssistant(o Decider, c Composer, l UsageLimiter, a AbuseChecker, msgs *i18n.Localizer) *Assistant {
	return &Assistant{
		Orchestrator:    o,
		Composer:        c,
		Limiter:         l,
		Abuse:           a,
		Msgs:            msgs,
		MaxMessageRunes: defaultMaxMessageRunes,
	}
}

// Handle answers one message. It only fails validation (ErrEmptyPrompt,
// ErrTooLong); every downstream failure degrades to a canned reply.
func (a *Assistant) Handle(ctx context.Context, req HandleRequest) (HandleResult, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return HandleResult{}, ErrEmptyPrompt
	}
	if a.MaxMessageRunes > 0 && utf8.RuneCountInString(msg) > a.MaxMessageRunes {
		return HandleResult{}, ErrTooLong
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = usage.AnonymousUserID()
	}
	lang := a.Msgs.Normalize(req.Language)

	tr := otel.Tracer("services/Assistant")
	ctx, span := tr.Start(ctx, "Handle",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Bool("llm_only", req.LLMOnly),
		),
	)
	defer span.End()

	if containsMarkup(msg) {
		return a.blocked(userID, BlockedMarkup, a.Msgs.Get(lang, i18n.MsgCodeDetected, nil), 0), nil
	}

	if a.Abuse != nil && !usage.EmergencyBypass(msg) {
		if v := a.Abuse.Check(ctx, userID, msg, lang); !v.Allowed {
			text := v.Message
			if text == "" {
				text = a.Msgs.Get(lang, i18n.MsgAbuseFallback, nil)
			}
			span.SetAttributes(attribute.String("blocked", BlockedAbuse))
			return a.blocked(userID, BlockedAbuse, text, v.BlockSeconds), nil
		}
	}

	if v := a.Limiter.Check(ctx, userID, msg, lang); !v.Allowed {
		text := v.Message
		if text == "" {
			text = a.Msgs.Get(lang, i18n.MsgUsageFallback, nil)
		}
		span.SetAttributes(attribute.String("blocked", BlockedUsage))
		return a.blocked(userID, BlockedUsage, text, v.CooldownRemaining), nil
	}

	d := a.Orchestrator.Decide(ctx, orchestrator.Input{
		Message:  msg,
		UserID:   userID,
		History:  req.History,
		IsGroup:  req.IsGroup,
		Language: lang,
		LLMOnly:  req.LLMOnly,
	})
	reply := a.Composer.Compose(ctx, compose.Input{
		Message:  msg,
		History:  req.History,
		Language: lang,
		Decision: d,
	})

	if err := a.Limiter.Record(ctx, userID, reply.Tokens); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("assistant: usage record failed")
	}

	res := HandleResult{
		Response:          reply.Text,
		UserID:            userID,
		IsScam:            d.Context.Scam.IsScam,
		MatchedCategories: d.Context.Scam.Categories(),
		Confidence:        d.Context.Scam.Confidence,
		Emotion:           d.Context.Emotion,
		Decision:          d.Type,
		Priority:          d.Priority.String(),
		ValuesFiltered:    reply.ToneRules,
		Tokens:            reply.Tokens,
		Fallback:          reply.Fallback,
	}
	if res.IsScam {
		res.ScamInfo = d.Context.Scam.Info
	}
	if d.Type == orchestrator.SafetyViolation {
		res.MatchedCategories = d.Context.Safety.FlaggedCategories
		res.Confidence = 1
		res.AlertLevel = d.Context.Safety.AlertLevel
	}

	span.SetAttributes(
		attribute.String("decision.type", string(d.Type)),
		attribute.Bool("scam", res.IsScam),
		attribute.Int("tokens", res.Tokens),
	)
	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("decision", string(d.Type)).
		Str("priority", res.Priority).
		Bool("is_scam", res.IsScam).
		Bool("fallback", res.Fallback).
		Int("tokens", res.Tokens).
		Msg("assistant: message handled")
	return res, nil
}

func (a *Assistant) blocked(userID, reason, text string, cooldown int64) HandleResult {
	return HandleResult{
		Response:          text,
		UserID:            userID,
		MatchedCategories: []string{reason},
		Confidence:        1,
		Blocked:           reason,
		Cooldown:          cooldown,
	}
}

// containsMarkup reports HTML or script-like input, which is refused
// outright.
func containsMarkup(s string) bool {
	low := strings.ToLower(s)
	if strings.Contains(low, "<html>") || strings.Contains(low, "</html>") || strings.Contains(low, "<script") {
		return true
	}
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}
