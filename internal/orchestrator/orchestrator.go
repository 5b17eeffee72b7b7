// Package orchestrator decides how a message is answered.
//
// Detector stages run in a fixed order. Keyword and safety stages can end the
// evaluation outright; the remaining stages register candidate decisions and
// the candidate with the highest priority wins. Ties go to the stage that
// registered first, so stage order is part of the contract:
//
//	keyword → safety → crisis → emotion → special → scam → general (floor)
//
// Decide never fails. A panic inside a stage is recovered into a
// general_conversation decision carrying the error.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DecisionType names the response path chosen for a message.
type DecisionType string

const (
	KeywordMatch        DecisionType = "keyword_match"
	SafetyViolation     DecisionType = "safety_violation"
	Crisis              DecisionType = "crisis"
	EmotionalSupport    DecisionType = "emotional_support"
	EmotionalBalanced   DecisionType = "emotional_balanced"
	SpecialSituation    DecisionType = "special_situation"
	ScamAlert           DecisionType = "scam_alert"
	EmotionalScamHybrid DecisionType = "emotional_scam_hybrid"
	GeneralConversation DecisionType = "general_conversation"
)

// highSeverityScamTypes are scam types treated as severe regardless of how
// many categories matched.
var highSeverityScamTypes = map[string]bool{
	"investment_scam":          true,
	"government_impersonation": true,
	"extortion":                true,
	"emergency_scam":           true,
}

// Input is one message to decide on. LLMOnly skips every detector.
type Input struct {
	Message  string
	UserID   string
	History  []domain.ChatTurn
	IsGroup  bool
	Language string
	LLMOnly  bool
}

// Candidate is a decision proposed by one stage.
type Candidate struct {
	Stage    string          `json:"stage"`
	Type     DecisionType    `json:"type"`
	Priority detect.Priority `json:"priority"`
	Reason   string          `json:"reason"`
}

// Context carries every analysis produced while deciding. Fields for stages
// that did not run keep their zero values.
type Context struct {
	LLMOnly bool `json:"llm_only,omitempty"`

	Keyword  *detect.KeywordMatch    `json:"keyword,omitempty"`
	Safety   detect.SafetyResult     `json:"safety"`
	Crisis   detect.CrisisResult     `json:"crisis"`
	Special  *detect.SpecialMatch    `json:"special,omitempty"`
	Scam     detect.ScamResult       `json:"scam"`
	Emotion  *domain.EmotionAnalysis `json:"emotion,omitempty"`
	Strategy detect.ResponseStrategy `json:"strategy"`

	EmotionPriority detect.Priority `json:"emotion_priority"`
	ScamSeverity    float64         `json:"scam_severity"`
	ScamPriority    detect.Priority `json:"scam_priority"`
	EmotionFirst    bool            `json:"emotion_first"`

	Candidates []Candidate   `json:"candidates"`
	Elapsed    time.Duration `json:"elapsed"`
	Error      string        `json:"error,omitempty"`
}

// Decision is the selected candidate plus the full analysis context.
type Decision struct {
	Type     DecisionType    `json:"type"`
	Priority detect.Priority `json:"priority"`
	Reason   string          `json:"reason"`
	Context  Context         `json:"context"`
}

// evaluation is the mutable state threaded through the stages.
type evaluation struct {
	in       Input
	ctx      Context
	terminal *Decision
}

func (e *evaluation) register(stage string, t DecisionType, p detect.Priority, reason string) {
	e.ctx.Candidates = append(e.ctx.Candidates, Candidate{Stage: stage, Type: t, Priority: p, Reason: reason})
}

func (e *evaluation) finish(t DecisionType, p detect.Priority, reason string) {
	e.terminal = &Decision{Type: t, Priority: p, Reason: reason}
}

// stage is one step of the evaluation; it either registers candidates or
// calls finish to stop the pipeline.
type stage struct {
	name string
	run  func(ctx context.Context, o *Orchestrator, e *evaluation)
}

// stages is the evaluation order and therefore the tie-break order.
var stages = []stage{
	{"keyword", runKeyword},
	{"safety", runSafety},
	{"crisis", runCrisis},
	{"emotion", runEmotion},
	{"special", runSpecial},
	{"scam", runScam},
}

// Orchestrator runs the detector stages. It is safe for concurrent use if
// the detectors are.
type Orchestrator struct {
	det detect.Set
	now func() time.Time
}

// New builds an Orchestrator over det.
func New(det detect.Set) *Orchestrator {
	return &Orchestrator{det: det, now: time.Now}
}

// StageNames returns the evaluation order.
func StageNames() []string {
	out := make([]string, 0, len(stages)+1)
	for _, s := range stages {
		out = append(out, s.name)
	}
	return append(out, "general")
}

// Decide picks the response path for in.
func (o *Orchestrator) Decide(ctx context.Context, in Input) (d Decision) {
	tr := otel.Tracer("orchestrator/Orchestrator")
	ctx, span := tr.Start(ctx, "Decide",
		trace.WithAttributes(
			attribute.String("user.id", in.UserID),
			attribute.Bool("llm_only", in.LLMOnly),
			attribute.Bool("group", in.IsGroup),
		),
	)
	started := o.now()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("orchestrator: %v", r)
			log.Ctx(ctx).Error().Err(err).Str("user_id", in.UserID).Msg("decision failed, using general conversation")
			span.RecordError(err)
			span.SetStatus(codes.Error, "recovered panic")
			d = Decision{
				Type:     GeneralConversation,
				Priority: detect.PriorityNormal,
				Reason:   "fallback after internal error",
				Context:  Context{Error: err.Error(), Safety: detect.NullSafety{}.Evaluate("")},
			}
		}
		d.Context.Elapsed = o.now().Sub(started)
		span.SetAttributes(
			attribute.String("decision.type", string(d.Type)),
			attribute.Int("decision.priority", int(d.Priority)),
		)
		span.End()
		observability.ObserveDecision(string(d.Type))
	}()

	if in.LLMOnly {
		return Decision{
			Type:     GeneralConversation,
			Priority: detect.PriorityNormal,
			Reason:   "llm-only mode",
			Context: Context{
				LLMOnly:         true,
				Safety:          detect.NullSafety{}.Evaluate(""),
				Crisis:          detect.NullCrisisDetector{}.Detect("", nil),
				Strategy:        detect.StrategyFor(domain.NeutralEmotion()),
				EmotionPriority: detect.PriorityNormal,
			},
		}
	}

	e := &evaluation{in: in}
	for _, s := range stages {
		s.run(ctx, o, e)
		if e.terminal != nil {
			d = *e.terminal
			d.Context = e.ctx
			log.Ctx(ctx).Debug().Str("stage", s.name).Str("decision", string(d.Type)).Msg("stage ended evaluation")
			return d
		}
	}

	e.register("general", GeneralConversation, detect.PriorityNormal, "default conversation handling")
	best := e.ctx.Candidates[0]
	for _, c := range e.ctx.Candidates[1:] {
		if c.Priority > best.Priority {
			best = c
		}
	}

	log.Ctx(ctx).Debug().
		Str("user_id", in.UserID).
		Str("decision", string(best.Type)).
		Int("priority", int(best.Priority)).
		Int("candidates", len(e.ctx.Candidates)).
		Msg("decision selected")
	return Decision{Type: best.Type, Priority: best.Priority, Reason: best.Reason, Context: e.ctx}
}

func runKeyword(_ context.Context, o *Orchestrator, e *evaluation) {
	if m, ok := o.det.Keyword.Match(e.in.Message); ok {
		e.ctx.Keyword = &m
		e.finish(KeywordMatch, detect.PriorityNormal, "keyword "+m.Category)
	}
}

func runSafety(_ context.Context, o *Orchestrator, e *evaluation) {
	res := o.det.Safety.Evaluate(e.in.Message)
	e.ctx.Safety = res
	if !res.IsSafe && res.RejectionText != "" {
		e.finish(SafetyViolation, detect.PriorityHigh, fmt.Sprintf("unsafe content: %v", res.FlaggedCategories))
	}
}

func runCrisis(_ context.Context, o *Orchestrator, e *evaluation) {
	res := o.det.Crisis.Detect(e.in.Message, e.in.History)
	e.ctx.Crisis = res
	if res.IsCrisis {
		e.register("crisis", Crisis, res.Priority, fmt.Sprintf("crisis %s (confidence %.2f)", res.Type, res.Confidence))
	}
}

func runEmotion(ctx context.Context, o *Orchestrator, e *evaluation) {
	a := o.det.Emotion.Analyze(ctx, e.in.Message, e.in.History)
	e.ctx.Emotion = &a
	e.ctx.Strategy = detect.StrategyFor(a)
	p := detect.EmotionPriority(a)
	e.ctx.EmotionPriority = p

	reason := fmt.Sprintf("%s (intensity %.1f)", a.Primary, a.Intensity)
	switch {
	case p >= detect.PriorityUrgent:
		e.register("emotion", EmotionalSupport, p, "urgent emotional need: "+reason)
	case p >= detect.PriorityHigh:
		e.register("emotion", EmotionalBalanced, p, "strong emotional component: "+reason)
	}
}

func runSpecial(_ context.Context, o *Orchestrator, e *evaluation) {
	m, ok := o.det.Special.Detect(e.in.Message, e.in.IsGroup, e.in.Language)
	if !ok {
		return
	}
	e.ctx.Special = &m
	p := detect.PriorityHigh
	if m.EmergencyLevel == detect.EmergencyHigh {
		p = detect.PriorityUrgent
	}
	e.register("special", SpecialSituation, p, fmt.Sprintf("special situation %s (emergency %s)", m.RuleID, m.EmergencyLevel))
}

func runScam(_ context.Context, o *Orchestrator, e *evaluation) {
	res := o.det.Scam.Detect(e.in.Message)
	e.ctx.Scam = res
	if !res.IsScam {
		return
	}

	sev := ScamSeverity(res)
	p := detect.PriorityMedium
	if sev > 0.8 {
		p = detect.PriorityHigh
	}
	e.ctx.ScamSeverity, e.ctx.ScamPriority = sev, p

	ep := e.ctx.EmotionPriority
	if ep >= p && ep >= detect.PriorityHigh {
		e.ctx.EmotionFirst = ep > p
		e.register("scam", EmotionalScamHybrid, max(ep, p)-5, fmt.Sprintf("hybrid: emotion %d + scam %d", ep, p))
		return
	}
	name := "unknown"
	if res.Info != nil {
		name = res.Info.ID
	}
	e.register("scam", ScamAlert, p, fmt.Sprintf("scam %s (severity %.2f)", name, sev))
}

// ScamSeverity is 0.2 per matched category, capped at 1, raised to 0.8 for
// high-severity scam types.
func ScamSeverity(res detect.ScamResult) float64 {
	sev := min(1, 0.2*float64(len(res.Indicators)))
	if res.Info != nil && highSeverityScamTypes[res.Info.ID] {
		sev = max(sev, 0.8)
	}
	return sev
}
