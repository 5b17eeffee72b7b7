package domain

// Neutral is the primary emotion reported when nothing was detected.
const Neutral = "中性"

// EmotionAnalysis is the emotion reading of one message. JSON keys match the
// analyzer prompt contract.
type EmotionAnalysis struct {
	Primary         string   `json:"primary_emotion"`
	Intensity       float64  `json:"emotion_intensity"`
	Secondary       []string `json:"secondary_emotions"`
	RequiresSupport bool     `json:"requires_immediate_support"`
	ContextFactors  []string `json:"context_factors"`
	Confidence      float64  `json:"confidence"`
}

// NeutralEmotion is the default analysis used on any analyzer failure.
func NeutralEmotion() EmotionAnalysis {
	return EmotionAnalysis{
		Primary:        Neutral,
		Intensity:      0.1,
		Secondary:      []string{},
		ContextFactors: []string{},
		Confidence:     0.5,
	}
}
