package detect

import (
	"strings"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

// Priority is the ordinal urgency scale shared by detectors and the
// orchestrator.
type Priority int

const (
	PriorityLow    Priority = 10
	PriorityNormal Priority = 20
	PriorityMedium Priority = 40
	PriorityHigh   Priority = 60
	PriorityUrgent Priority = 80
	PriorityCrisis Priority = 100
)

// String returns the upper-case level name.
func (p Priority) String() string {
	switch {
	case p >= PriorityCrisis:
		return "CRISIS"
	case p >= PriorityUrgent:
		return "URGENT"
	case p >= PriorityHigh:
		return "HIGH"
	case p >= PriorityMedium:
		return "MEDIUM"
	case p >= PriorityNormal:
		return "NORMAL"
	default:
		return "LOW"
	}
}

// Crisis types.
const (
	CrisisNone               = "none"
	CrisisSuicideRisk        = "suicide_risk"
	CrisisImmediateDanger    = "immediate_danger"
	CrisisFinancialDistress  = "severe_financial_distress"
	CrisisEscalatingDistress = "escalating_distress"
)

// CrisisResult reports the first crisis rule that fired.
type CrisisResult struct {
	IsCrisis          bool     `json:"is_crisis"`
	Type              string   `json:"crisis_type"`
	Confidence        float64  `json:"confidence"`
	Priority          Priority `json:"priority"`
	RecommendedAction string   `json:"recommended_action"`
}

// CrisisDetector inspects the message and recent history for crisis signals.
type CrisisDetector interface {
	Detect(text string, history []domain.ChatTurn) CrisisResult
}

type crisisRule struct {
	kind       string
	confidence float64
	priority   Priority
	action     string
	keywords   []string
}

var crisisRules = []crisisRule{
	{
		kind: CrisisSuicideRisk, confidence: 0.9, priority: PriorityCrisis,
		action: "immediate_emotional_support_with_resources",
		keywords: []string{
			"想死", "自殺", "輕生", "了結", "活不下去", "沒意思了", "不想活", "結束生命",
			"沒有活下去的意義", "沒理由再活著", "想一死百了", "不如死了算了", "活著沒意思",
		},
	},
	{
		kind: CrisisImmediateDanger, confidence: 0.85, priority: PriorityCrisis,
		action: "safety_first_with_emergency_contact_info",
		keywords: []string{
			"有人威脅我", "被追殺", "被跟蹤", "被人找上門", "被恐嚇", "被綁架", "被監禁",
			"他們逼我交錢", "他們說要傷害我", "恐怕他們要來找我",
		},
	},
	{
		kind: CrisisFinancialDistress, confidence: 0.8, priority: PriorityUrgent,
		action: "supportive_guidance_with_resources",
		keywords: []string{
			"我已經被騙了", "我失去了所有積蓄", "我借了很多錢", "把退休金都給了", "跳樓",
			"負債累累", "無力償還", "透支了全部信用卡", "被騙了很大一筆錢",
		},
	},
}

var distressWords = []string{"害怕", "擔心", "焦慮", "絕望", "痛苦", "無助", "受不了", "無力"}

// KeywordCrisisDetector checks fixed keyword lists in priority order.
type KeywordCrisisDetector struct{}

// Detect returns the first matching crisis. Escalating distress needs at
// least two prior user turns and three distinct distress words across the
// last two of them.
func (KeywordCrisisDetector) Detect(text string, history []domain.ChatTurn) CrisisResult {
	for _, r := range crisisRules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return CrisisResult{
					IsCrisis: true, Type: r.kind, Confidence: r.confidence,
					Priority: r.priority, RecommendedAction: r.action,
				}
			}
		}
	}

	if len(history) > 1 {
		var users []string
		for _, t := range history {
			if t.Role == domain.RoleUser {
				users = append(users, t.Content)
			}
		}
		if len(users) >= 2 {
			recent := users[len(users)-2:]
			n := 0
			for _, w := range distressWords {
				if strings.Contains(recent[0], w) || strings.Contains(recent[1], w) {
					n++
				}
			}
			if n >= 3 {
				return CrisisResult{
					IsCrisis: true, Type: CrisisEscalatingDistress, Confidence: 0.7,
					Priority: PriorityUrgent, RecommendedAction: "validation_and_grounding_support",
				}
			}
		}
	}
	return noCrisis()
}

// NullCrisisDetector never reports a crisis.
type NullCrisisDetector struct{}

func (NullCrisisDetector) Detect(string, []domain.ChatTurn) CrisisResult { return noCrisis() }

func noCrisis() CrisisResult {
	return CrisisResult{Type: CrisisNone, Confidence: 1, Priority: PriorityNormal, RecommendedAction: "standard_processing"}
}
