package detect

import (
	"regexp"
)

// Safety categories.
const (
	SafetyCodeInjection = "code_injection"
	SafetyPromptHijack  = "prompt_hijack"
)

// SafetyResult is the content check verdict.
type SafetyResult struct {
	IsSafe            bool     `json:"is_safe"`
	FlaggedCategories []string `json:"flagged_categories"`
	RejectionText     string   `json:"rejection_text,omitempty"`
	AlertLevel        string   `json:"alert_level"`
}

// SafetyChecker evaluates inbound text before any deeper analysis.
type SafetyChecker interface {
	Evaluate(text string) SafetyResult
}

var safetyPatterns = []struct {
	category string
	re       *regexp.Regexp
}{
	{SafetyCodeInjection, regexp.MustCompile(`(?i)<\s*script\b|javascript:|\bdrop\s+table\b|\bunion\s+select\b|;\s*rm\s+-rf\b|\beval\s*\(|\bexec\s*\(|__import__\s*\(`)},
	{SafetyPromptHijack, regexp.MustCompile(`(?i)ignore\s+(?:all\s+)?(?:the\s+)?(?:previous|prior|above)\s+instructions|system\s+prompt|jailbreak|developer\s+mode|忽略(?:之前|先前|以上|上面)的?(?:指示|指令|設定)|你現在不是小安|扮演(?:一個)?沒有限制|顯示你的(?:系統)?提示詞`)},
}

// RuleSafety flags code injection and attempts to override the assistant's
// instructions.
type RuleSafety struct {
	Rejection string
}

// NewRuleSafety returns a RuleSafety replying with rejection when unsafe.
func NewRuleSafety(rejection string) RuleSafety { return RuleSafety{Rejection: rejection} }

func (s RuleSafety) Evaluate(text string) SafetyResult {
	var flagged []string
	for _, p := range safetyPatterns {
		if p.re.MatchString(text) {
			flagged = append(flagged, p.category)
		}
	}
	if len(flagged) == 0 {
		return safeResult()
	}
	level := EmergencyMedium
	if len(flagged) > 1 {
		level = EmergencyHigh
	}
	return SafetyResult{FlaggedCategories: flagged, RejectionText: s.Rejection, AlertLevel: level}
}

// NullSafety accepts everything.
type NullSafety struct{}

func (NullSafety) Evaluate(string) SafetyResult { return safeResult() }

func safeResult() SafetyResult {
	return SafetyResult{IsSafe: true, FlaggedCategories: []string{}, AlertLevel: EmergencyNone}
}
