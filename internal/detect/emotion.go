package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/llm"
	"github.com/tbourn/antiscam-chat-backend/internal/observability"
)

// Emotions is the fixed vocabulary, in prompt order.
var Emotions = []string{
	"恐懼", "焦慮", "憤怒", "沮喪", "困惑", "無助", "信任", "懷疑",
	"急迫", "安心", "羞愧", "孤獨", "警覺", "擔憂", "如釋重負",
}

// EmotionDescriptions explains each vocabulary term.
var EmotionDescriptions = map[string]string{
	"恐懼":   "對威脅或危險的反應，擔心被詐騙或遭受損失",
	"焦慮":   "對不確定性的擔憂，不知道該如何處理可能的詐騙情況",
	"憤怒":   "對被詐騙或被欺騙的憤怒反應",
	"沮喪":   "對失去金錢或被詐騙後的低落情緒",
	"困惑":   "對詐騙手法或如何應對的不確定和迷惑",
	"無助":   "感到對詐騙情況無法控制或無法解決",
	"信任":   "願意相信他人或信息的程度",
	"懷疑":   "對信息或聯絡真實性的質疑",
	"急迫":   "感到需要立即做出決定或採取行動",
	"安心":   "在確認信息非詐騙或解決問題後的放鬆感",
	"羞愧":   "因被騙或感到自己應該更謹慎而產生的羞恥感",
	"孤獨":   "感到沒有人可以傾訴或幫助解決詐騙問題",
	"警覺":   "對可能的詐騙提高警惕",
	"擔憂":   "對可能的後果或影響的關注",
	"如釋重負": "避開詐騙或確認訊息為安全後的輕鬆感",
}

// EmotionAnalyzer reads the emotional state of a message. Implementations
// never fail; they fall back to domain.NeutralEmotion.
type EmotionAnalyzer interface {
	Analyze(ctx context.Context, text string, history []domain.ChatTurn) domain.EmotionAnalysis
}

// Sanitize coerces a raw reading onto the vocabulary: unknown primaries
// become 困惑, numbers are clamped, secondaries are filtered and deduplicated
// and lists are capped at three.
func Sanitize(a domain.EmotionAnalysis) domain.EmotionAnalysis {
	if !slices.Contains(Emotions, a.Primary) {
		a.Primary = "困惑"
	}
	a.Intensity = clamp01(a.Intensity)
	a.Confidence = clamp01(a.Confidence)

	sec := make([]string, 0, 3)
	for _, e := range a.Secondary {
		if len(sec) == 3 {
			break
		}
		if e != a.Primary && slices.Contains(Emotions, e) && !slices.Contains(sec, e) {
			sec = append(sec, e)
		}
	}
	a.Secondary = sec

	if len(a.ContextFactors) > 3 {
		a.ContextFactors = a.ContextFactors[:3]
	}
	if a.ContextFactors == nil {
		a.ContextFactors = []string{}
	}
	return a
}

// LLMEmotionAnalyzer asks the LLM for a strict JSON reading.
type LLMEmotionAnalyzer struct {
	Client llm.Client
}

type rawEmotion struct {
	Primary         string   `json:"primary_emotion"`
	Intensity       *float64 `json:"emotion_intensity"`
	Secondary       []string `json:"secondary_emotions"`
	RequiresSupport bool     `json:"requires_immediate_support"`
	ContextFactors  []string `json:"context_factors"`
	Confidence      *float64 `json:"confidence"`
}

func (a LLMEmotionAnalyzer) Analyze(ctx context.Context, text string, history []domain.ChatTurn) domain.EmotionAnalysis {
	started := time.Now()
	resp, err := a.Client.Complete(ctx, llm.Request{
		Purpose:     "emotion",
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: emotionPrompt(text, history)}},
		Temperature: 0.3,
		JSON:        true,
	})
	observability.ObserveLLM("emotion", started, err)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("emotion: llm call failed, using neutral")
		return domain.NeutralEmotion()
	}

	raw, err := parseEmotionJSON(resp.Text)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("emotion: unparseable reply, using neutral")
		return domain.NeutralEmotion()
	}
	out := domain.EmotionAnalysis{
		Primary:         raw.Primary,
		Intensity:       0.5,
		Secondary:       raw.Secondary,
		RequiresSupport: raw.RequiresSupport,
		ContextFactors:  raw.ContextFactors,
		Confidence:      0.5,
	}
	if raw.Intensity != nil {
		out.Intensity = *raw.Intensity
	}
	if raw.Confidence != nil {
		out.Confidence = *raw.Confidence
	}
	return Sanitize(out)
}

// parseEmotionJSON tolerates prose or code fences around the object.
func parseEmotionJSON(s string) (rawEmotion, error) {
	var raw rawEmotion
	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return raw, fmt.Errorf("detect: no JSON object in %q", s)
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), &raw); err != nil {
		return raw, err
	}
	return raw, nil
}

func emotionPrompt(text string, history []domain.ChatTurn) string {
	var ctxLines strings.Builder
	if len(history) > 0 {
		ctxLines.WriteString("以下是對話歷史：\n")
		for _, t := range history[max(0, len(history)-3):] {
			if t.Role != "" && t.Content != "" {
				fmt.Fprintf(&ctxLines, "%s: %s\n", t.Role, t.Content)
			}
		}
	}
	return fmt.Sprintf(`請分析以下訊息中表達的情緒狀態。考慮以下各方面：

1. 主要情緒（必須從以下選擇一項）：%s
2. 情緒強度（0.0-1.0，其中1.0為最強烈）
3. 次要情緒（列出最多3種）
4. 是否需要立即情緒支持（true/false）
5. 影響情緒的情境因素（列出最多3項）
6. 分析可信度（0.0-1.0）

%s
用戶訊息：%s

請依此格式回覆，僅填入JSON格式的分析結果：
{
  "primary_emotion": "主要情緒",
  "emotion_intensity": 0.0,
  "secondary_emotions": ["次要情緒1", "次要情緒2"],
  "requires_immediate_support": false,
  "context_factors": ["情境因素1", "情境因素2"],
  "confidence": 0.0
}
僅回應JSON格式，不要包含其他解釋文字。`, strings.Join(Emotions, "、"), ctxLines.String(), text)
}

// LexiconEmotionAnalyzer scores emotions by keyword hits. It runs without an
// LLM and is deterministic.
type LexiconEmotionAnalyzer struct{}

var emotionLexicon = map[string][]string{
	"恐懼":   {"害怕", "好怕", "恐懼", "嚇死", "可怕", "scared", "afraid"},
	"焦慮":   {"焦慮", "緊張", "不安", "睡不著", "anxious", "nervous"},
	"憤怒":   {"生氣", "氣死", "憤怒", "火大", "可惡", "angry"},
	"沮喪":   {"難過", "沮喪", "傷心", "失望", "低落", "sad", "depressed"},
	"困惑":   {"不懂", "不知道", "怎麼辦", "搞不清楚", "看不懂", "confused"},
	"無助":   {"無助", "沒辦法", "無能為力", "沒人幫", "helpless"},
	"信任":   {"相信", "信任", "可信"},
	"懷疑":   {"是真的嗎", "可疑", "懷疑", "騙人", "真的假的", "suspicious"},
	"急迫":   {"快點", "趕快", "來不及", "很急", "緊急"},
	"安心":   {"安心", "放心", "還好"},
	"羞愧":   {"丟臉", "羞愧", "好笨", "不好意思說", "ashamed"},
	"孤獨":   {"孤單", "寂寞", "沒人理", "一個人", "lonely"},
	"警覺":   {"提防", "警覺", "小心"},
	"擔憂":   {"擔心", "擔憂", "怕會", "worried"},
	"如釋重負": {"鬆了一口氣", "終於", "太好了", "relieved"},
}

func (LexiconEmotionAnalyzer) Analyze(_ context.Context, text string, _ []domain.ChatTurn) domain.EmotionAnalysis {
	low := strings.ToLower(text)
	hits := make(map[string]int, len(Emotions))
	primary, best := "", 0
	for _, e := range Emotions {
		for _, kw := range emotionLexicon[e] {
			if strings.Contains(low, kw) {
				hits[e]++
			}
		}
		if hits[e] > best {
			primary, best = e, hits[e]
		}
	}
	if best == 0 {
		return domain.NeutralEmotion()
	}

	intensity := 0.4 + 0.15*float64(best-1)
	if strings.ContainsAny(text, "!！") {
		intensity += 0.1
	}
	var sec []string
	for _, e := range Emotions {
		if e != primary && hits[e] > 0 {
			sec = append(sec, e)
		}
	}

	support := false
	for _, r := range crisisRules[:2] {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				support = true
			}
		}
	}
	return Sanitize(domain.EmotionAnalysis{
		Primary:         primary,
		Intensity:       min(0.9, intensity),
		Secondary:       sec,
		RequiresSupport: support,
		Confidence:      0.6,
	})
}

// NullEmotionAnalyzer always reports the neutral default.
type NullEmotionAnalyzer struct{}

func (NullEmotionAnalyzer) Analyze(context.Context, string, []domain.ChatTurn) domain.EmotionAnalysis {
	return domain.NeutralEmotion()
}

// ResponseStrategy shapes the reply to the user's emotional state.
type ResponseStrategy struct {
	FocusOnEmotion      bool     `json:"focus_on_emotion"`
	Tone                string   `json:"response_tone"`
	Directness          string   `json:"directness"`
	Detail              string   `json:"detail_level"`
	PrioritizeActions   bool     `json:"prioritize_actions"`
	TemperatureModifier float64  `json:"temperature_modifier"`
	Instructions        []string `json:"special_instructions"`
}

var (
	highIntensityEmotions = []string{"恐懼", "焦慮", "憤怒", "沮喪", "無助", "急迫", "羞愧"}
	crisisEmotions        = []string{"恐懼", "急迫", "無助"}
	highEmotions          = []string{"焦慮", "憤怒", "沮喪", "羞愧"}
	mediumEmotions        = []string{"困惑", "擔憂", "懷疑"}
)

// StrategyFor maps an analysis onto a response strategy. Needing immediate
// support always forces a direct, emotion-first reply.
func StrategyFor(a domain.EmotionAnalysis) ResponseStrategy {
	s := ResponseStrategy{Tone: "balanced", Directness: "moderate", Detail: "moderate", Instructions: []string{}}
	p := a.Primary

	switch {
	case slices.Contains(highIntensityEmotions, p) && a.Intensity > 0.6:
		s.FocusOnEmotion = true
		s.Tone = "empathetic"
		switch p {
		case "恐懼", "焦慮":
			s.Tone = "reassuring"
			s.Instructions = append(s.Instructions, "先確認用戶的擔憂是合理的", "提供明確資訊以減輕恐懼", "以鼓勵性的語氣結尾")
		case "憤怒":
			s.Directness, s.Detail = "direct", "brief"
			s.Instructions = append(s.Instructions, "確認用戶的憤怒感受是合理的", "不要使用'冷靜下來'等語句", "提供具體的下一步建議")
		case "沮喪", "無助", "羞愧":
			s.Tone, s.Directness = "warm", "indirect"
			s.Instructions = append(s.Instructions, "強調這不是用戶的錯", "分享其他人也有類似經歷", "提供可行的小步驟以恢復信心")
		case "急迫":
			s.Tone, s.Directness, s.Detail = "calm", "direct", "brief"
			s.PrioritizeActions = true
			s.Instructions = append(s.Instructions, "提供明確且簡短的指示", "使用列表格式增加可讀性", "結尾提醒用戶可以進一步提問")
		}
	case p == "困惑" || p == "懷疑" || a.Intensity <= 0.6:
		switch p {
		case "困惑":
			s.Tone, s.Detail = "informative", "detailed"
			s.TemperatureModifier = -0.1
			s.Instructions = append(s.Instructions, "使用簡單易懂的語言", "分步驟解釋複雜概念", "提供例子增進理解")
		case "懷疑":
			s.Tone, s.Directness, s.Detail = "neutral", "direct", "detailed"
			s.Instructions = append(s.Instructions, "提供可驗證的資訊和來源", "解釋判斷詐騙的具體線索", "避免權威口吻，鼓勵用戶自行判斷")
		}
	case p == "安心" || p == "信任" || p == "如釋重負":
		s.Tone = "warm"
		s.TemperatureModifier = 0.1
		s.Instructions = append(s.Instructions, "肯定用戶的判斷或行動", "提供額外的安全建議作為參考", "鼓勵用戶在未來遇到疑問時繼續尋求幫助")
	}

	if a.RequiresSupport {
		s.FocusOnEmotion = true
		if s.Tone != "reassuring" {
			s.Tone = "empathetic"
		}
		s.Directness = "direct"
		s.Instructions = append(s.Instructions, "優先處理用戶的情緒需求，後續再提供資訊")
	}

	for _, e := range a.Secondary {
		if e == p {
			continue
		}
		switch e {
		case "恐懼":
			s.Instructions = append(s.Instructions, "加入安撫恐懼的簡短語句")
		case "憤怒":
			s.Instructions = append(s.Instructions, "肯定用戶情緒的合理性")
		case "困惑":
			s.Instructions = append(s.Instructions, "提供清晰的解釋以減少困惑")
		}
	}
	return s
}

// EmotionPriority buckets an analysis onto the priority scale.
func EmotionPriority(a domain.EmotionAnalysis) Priority {
	switch {
	case a.RequiresSupport:
		return PriorityUrgent
	case slices.Contains(crisisEmotions, a.Primary):
		if a.Intensity > 0.7 {
			return PriorityUrgent
		}
		if a.Intensity > 0.5 {
			return PriorityHigh
		}
	case slices.Contains(highEmotions, a.Primary):
		if a.Intensity > 0.7 {
			return PriorityHigh
		}
		if a.Intensity > 0.5 {
			return PriorityMedium
		}
	case slices.Contains(mediumEmotions, a.Primary):
		if a.Intensity > 0.7 {
			return PriorityMedium
		}
	}
	return PriorityNormal
}
