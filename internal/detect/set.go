package detect

import (
	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/config"
	"github.com/tbourn/antiscam-chat-backend/internal/i18n"
	"github.com/tbourn/antiscam-chat-backend/internal/llm"
)

// Set is the detector line-up the orchestrator runs. Every field is always
// non-nil; disabled stages hold their Null implementation.
type Set struct {
	Keyword KeywordMatcher
	Safety  SafetyChecker
	Crisis  CrisisDetector
	Emotion EmotionAnalyzer
	Special SpecialSituationMatcher
	Scam    ScamDetector
}

// NullSet detects nothing.
func NullSet() Set {
	return Set{
		Keyword: NullKeywordMatcher{},
		Safety:  NullSafety{},
		Crisis:  NullCrisisDetector{},
		Emotion: NullEmotionAnalyzer{},
		Special: NullSpecialMatcher{},
		Scam:    NullScamDetector{},
	}
}

// NewSet picks real or null implementations from cfg once at startup.
func NewSet(cfg config.DetectorConfig, client llm.Client, msgs *i18n.Localizer) Set {
	s := NullSet()
	if cfg.Mode != "null" {
		s.Crisis = KeywordCrisisDetector{}
		s.Scam = NewScamClassifier()
		if cfg.KeywordEnabled {
			s.Keyword = NewKeywordTable(WithThreshold(cfg.KeywordThreshold), WithLongThreshold(cfg.LongThreshold))
		}
		if cfg.SpecialEnabled {
			s.Special = NewSpecialRules(msgs.Default(), func(lang string) string {
				return msgs.Get(lang, i18n.MsgSpecialDefault, nil)
			})
		}
	}

	switch cfg.Emotion {
	case "llm":
		s.Emotion = LLMEmotionAnalyzer{Client: client}
	case "lexicon":
		s.Emotion = LexiconEmotionAnalyzer{}
	}
	if cfg.Safety == "rules" {
		s.Safety = NewRuleSafety(msgs.Get(msgs.Default(), i18n.MsgSafetyRejected, nil))
	}

	log.Info().
		Str("mode", cfg.Mode).
		Str("emotion", cfg.Emotion).
		Str("safety", cfg.Safety).
		Bool("keyword", cfg.KeywordEnabled).
		Bool("special", cfg.SpecialEnabled).
		Msg("detectors configured")
	return s
}
