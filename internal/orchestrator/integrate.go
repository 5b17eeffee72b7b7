package orchestrator

// ResponseStyle limits how the composed reply is shaped.
type ResponseStyle struct {
	Concise              bool    `json:"concise"`
	AvoidRepetition      bool    `json:"avoid_repetition"`
	MaxEmpathyStatements int     `json:"max_empathy_statements"`
	PrioritizeActions    bool    `json:"prioritize_actionable_advice"`
	MaxParagraphs        int     `json:"max_paragraphs"`
	EmpathyStyle         string  `json:"empathy_style,omitempty"`
	EmpathyToAdvice      float64 `json:"empathy_to_advice_ratio,omitempty"`
}

// Hints are the composer-facing summary of a decision.
type Hints struct {
	Type            DecisionType  `json:"response_type"`
	Style           ResponseStyle `json:"response_style"`
	SpecialHandling bool          `json:"require_special_handling"`
	FocusOnEmotion  bool          `json:"focus_on_emotion"`
	Hybrid          bool          `json:"hybrid_response"`
	EmotionFirst    bool          `json:"emotion_first"`
}

// Integrate derives the response-shaping hints for d.
func Integrate(d Decision) Hints {
	h := Hints{
		Type: d.Type,
		Style: ResponseStyle{
			Concise:              true,
			AvoidRepetition:      true,
			MaxEmpathyStatements: 1,
			PrioritizeActions:    true,
			MaxParagraphs:        3,
		},
		FocusOnEmotion: d.Context.Strategy.FocusOnEmotion,
	}

	switch d.Type {
	case Crisis:
		h.SpecialHandling = true
	case EmotionalSupport:
		h.SpecialHandling = true
		h.FocusOnEmotion = true
		h.Style.EmpathyStyle = "brief_acknowledgment"
		h.Style.MaxParagraphs = 2
	case EmotionalScamHybrid:
		h.Hybrid = true
		h.EmotionFirst = d.Context.EmotionFirst
		h.Style.EmpathyToAdvice = 0.2
	}
	return h
}
