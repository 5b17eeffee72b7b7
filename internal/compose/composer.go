// Package compose turns an orchestrator decision into the reply text.
//
// Canned paths (keyword, safety, special situations) return their text
// verbatim. LLM paths build a system prompt from the persona and the
// decision context, call the model once under a timeout, and pass the reply
// through the tone filter. A failed or empty LLM call is never retried; it
// falls back to canned text for the decision type.
package compose

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/i18n"
	"github.com/tbourn/antiscam-chat-backend/internal/llm"
	"github.com/tbourn/antiscam-chat-backend/internal/observability"
	"github.com/tbourn/antiscam-chat-backend/internal/orchestrator"
	"github.com/tbourn/antiscam-chat-backend/internal/tonefilter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RuleEmergencyFallback is reported when the final text had no content and
// the generic fallback was used instead.
const RuleEmergencyFallback = "emergency_fallback"

// ErrEmptyReply is returned internally when the LLM answers with nothing.
var ErrEmptyReply = errors.New("compose: empty llm reply")

const (
	baseTemperature    = 0.7
	replyMaxTokens     = 800
	supportMaxTokens   = 600
	supportTemperature = 0.7
	defaultTimeout     = 25 * time.Second
)

// Input is what the composer needs besides the decision itself.
type Input struct {
	Message  string
	History  []domain.ChatTurn
	Language string
	Decision orchestrator.Decision
}

// Result is the reply plus accounting.
type Result struct {
	Text      string   `json:"text"`
	Tokens    int      `json:"tokens"`
	UsedLLM   bool     `json:"used_llm"`
	Fallback  bool     `json:"fallback"`
	ToneRules []string `json:"tone_rules"`
}

// Composer builds replies. It is safe for concurrent use.
type Composer struct {
	client  llm.Client
	tone    *tonefilter.Filter
	msgs    *i18n.Localizer
	persona Persona
	support *SupportLibrary
	timeout time.Duration
}

// Option configures a Composer.
type Option func(*Composer)

// WithTimeout bounds each LLM call.
func WithTimeout(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPersona replaces the default persona. Invalid personas are ignored.
func WithPersona(p Persona) Option {
	return func(c *Composer) {
		if err := p.Validate(); err != nil {
			log.Warn().Err(err).Msg("compose: keeping default persona")
			return
		}
		c.persona = p
	}
}

// WithSupportLibrary replaces the canned support library.
func WithSupportLibrary(l *SupportLibrary) Option {
	return func(c *Composer) {
		if l != nil {
			c.support = l
		}
	}
}

// New returns a Composer.
func New(client llm.Client, tone *tonefilter.Filter, msgs *i18n.Localizer, opts ...Option) *Composer {
	c := &Composer{
		client:  client,
		tone:    tone,
		msgs:    msgs,
		persona: DefaultPersona(),
		support: NewSupportLibrary(nil),
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compose produces the reply for in.Decision.
func (c *Composer) Compose(ctx context.Context, in Input) Result {
	d := in.Decision
	lang := c.msgs.Normalize(in.Language)

	tr := otel.Tracer("compose/Composer")
	ctx, span := tr.Start(ctx, "Compose",
		trace.WithAttributes(attribute.String("decision.type", string(d.Type))),
	)
	defer span.End()

	var res Result
	switch d.Type {
	case orchestrator.KeywordMatch:
		if d.Context.Keyword != nil {
			res.Text = d.Context.Keyword.Response
		}
	case orchestrator.SafetyViolation:
		res.Text = d.Context.Safety.RejectionText
	case orchestrator.SpecialSituation:
		if d.Context.Special != nil {
			res.Text = d.Context.Special.Response
		}
	case orchestrator.Crisis, orchestrator.EmotionalSupport:
		res = c.supportReply(ctx, in, lang)
	case orchestrator.ScamAlert:
		res = c.reply(ctx, in, lang, detect.AlertText(d.Context.Scam.Info))
	default:
		res = c.reply(ctx, in, lang, c.msgs.Get(lang, i18n.MsgReplyFallback, nil))
	}

	if tonefilter.Meaningless(res.Text) {
		res.Text = c.msgs.Get(lang, i18n.MsgReplyFallback, nil)
		res.Fallback = true
		res.ToneRules = append(res.ToneRules, RuleEmergencyFallback)
	}

	span.SetAttributes(
		attribute.Bool("compose.llm", res.UsedLLM),
		attribute.Bool("compose.fallback", res.Fallback),
		attribute.Int("compose.tokens", res.Tokens),
	)
	return res
}

// reply runs the general, balanced, hybrid and scam paths.
func (c *Composer) reply(ctx context.Context, in Input, lang, fallback string) Result {
	d := in.Decision
	hints := orchestrator.Integrate(d)

	msgs := make([]llm.Message, 0, len(in.History)+1)
	for _, t := range in.History {
		role := llm.RoleUser
		if t.Role == domain.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: in.Message})

	temp := min(0.9, max(0.3, baseTemperature+d.Context.Strategy.TemperatureModifier))
	resp, err := c.complete(ctx, llm.Request{
		Purpose:     "reply",
		System:      systemPrompt(c.persona, d, hints, lang),
		Messages:    msgs,
		Temperature: temp,
		MaxTokens:   replyMaxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("decision", string(d.Type)).Msg("compose: llm reply failed, using fallback")
		return Result{Text: fallback, Fallback: true, Tokens: resp.TotalTokens()}
	}
	return c.filtered(ctx, in.Message, resp, lang)
}

// supportReply runs the crisis and urgent emotional support path.
func (c *Composer) supportReply(ctx context.Context, in Input, lang string) Result {
	d := in.Decision
	resp, err := c.complete(ctx, llm.Request{
		Purpose:     "support",
		System:      supportPrompt(d, lang),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: in.Message}},
		Temperature: supportTemperature,
		MaxTokens:   supportMaxTokens,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("crisis", d.Context.Crisis.Type).Msg("compose: support reply failed, using canned support")
		text := c.support.Select(NeedFor(d)) + "\n\n" + hotlineSteps(d.Context.Crisis.Type)
		return Result{Text: text, Fallback: true, Tokens: resp.TotalTokens()}
	}

	res := c.filtered(ctx, in.Message, resp, lang)
	if d.Context.Crisis.Type == detect.CrisisSuicideRisk && !strings.Contains(res.Text, "1925") && !strings.Contains(res.Text, "1995") {
		res.Text += "\n\n" + hotlineSteps(detect.CrisisSuicideRisk)
	}
	return res
}

func (c *Composer) filtered(ctx context.Context, user string, resp llm.Response, lang string) Result {
	text, rules := c.tone.Apply(ctx, tonefilter.Request{
		UserMessage: user,
		Response:    resp.Text,
		Clarify:     c.msgs.Get(lang, i18n.MsgReplyClarify, nil),
	})
	return Result{Text: text, Tokens: resp.TotalTokens(), UsedLLM: true, ToneRules: rules}
}

// complete makes exactly one LLM call under the composer timeout.
func (c *Composer) complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	resp, err := c.client.Complete(ctx, req)
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = ErrEmptyReply
	}
	observability.ObserveLLM(req.Purpose, started, err)
	return resp, err
}

func hotlineSteps(crisisType string) string {
	switch crisisType {
	case detect.CrisisSuicideRisk:
		return "步驟1: 撥打自殺防治專線1925或生命線1995，有人會陪你聊聊\n步驟2: 找一位信任的人陪在你身邊"
	case detect.CrisisImmediateDanger:
		return "步驟1: 立即撥打110報警\n步驟2: 先到安全、有人的地方"
	case detect.CrisisFinancialDistress:
		return "步驟1: 撥打165反詐騙專線\n步驟2: 聯絡銀行申請止付"
	default:
		return "如果心裡很難受，也可以撥打1995生命線，有人會陪你聊聊。"
	}
}
