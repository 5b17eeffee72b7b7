package compose

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/orchestrator"
)

// SupportMessage is one canned emotional-support line.
type SupportMessage struct {
	ID      string
	Context string
	Text    string
}

// SupportNeed describes who the canned support is for.
type SupportNeed struct {
	Emotion            string
	Victim             bool
	ScamType           string
	NeedsEncouragement bool
}

// SupportLibrary picks canned support when no LLM reply is available.
type SupportLibrary struct {
	comfort       []SupportMessage
	encouragement []SupportMessage
	empathy       []SupportMessage
	byScamType    map[string][]string
	pick          func(n int) int
}

// NewSupportLibrary returns the built-in library. pick chooses among
// scam-type messages; nil means uniform random.
func NewSupportLibrary(pick func(n int) int) *SupportLibrary {
	if pick == nil {
		pick = rand.IntN
	}
	return &SupportLibrary{
		comfort: []SupportMessage{
			{"comfort_1", "general", "我能理解你的擔憂。\n這是很自然的反應。\n讓我們一起面對，好嗎？"},
			{"comfort_2", "general", "這確實讓人不安。\n但你並不孤單。\n我在這裡陪你。"},
			{"comfort_3", "panic", "先深呼吸一下。\n這些感受都很正常。\n我們慢慢來解決。"},
			{"comfort_4", "victim", "別對自己太苛刻。\n每個人都可能遇到。\n你已經意識到問題了。"},
			{"comfort_5", "fear", "害怕是正常的。\n這是你的防禦機制。\n讓它幫助你前進。"},
		},
		encouragement: []SupportMessage{
			{"encourage_1", "general", "你已經邁出了最重要的第一步：尋求幫助。這顯示了你的勇氣和智慧。"},
			{"encourage_2", "general", "我相信你有能力克服這個挑戰。每一個小步驟都是朝著安全前進。"},
			{"encourage_3", "problem_solving", "雖然現在看起來困難，但每個問題都有解決的方法。我們一起來找出最適合你的方案。"},
			{"encourage_4", "prevention", "保持警覺是明智的選擇！你的謹慎態度正在保護你遠離潛在的威脅。"},
			{"encourage_5", "recovery", "即使遇到挫折，也請記住這是暫時的。你有能力從這次經驗中恢復並更加堅強。"},
		},
		empathy: []SupportMessage{
			{"empathy_1", "general", "我能感受到你的擔憂和困惑，這種感覺確實不好受。"},
			{"empathy_2", "victim", "這種情況讓人感到受傷和背叛，你的感受完全有道理。"},
			{"empathy_3", "emotional", "面對這些複雜的情緒並不容易，但承認並表達它們是勇敢的第一步。"},
			{"empathy_4", "trust_issues", "信任是很寶貴的，當它被破壞時，感到憤怒和失望都是正常的。"},
			{"empathy_5", "overwhelmed", "我理解你現在可能感到不知所措。慢慢來，我們會一起找到方向。"},
		},
		byScamType: map[string][]string{
			"fake_customer_service": {
				"許多人都曾收到類似的假冒客服訊息，這不是你的錯。詐騙者非常擅長製造緊迫感。",
				"銀行和客服人員不會用這種方式聯繫你，你的警覺性幫助你避開了陷阱。",
			},
			"investment_scam": {
				"投資詐騙設計得極具吸引力，讓人難以抗拒。許多專業人士也曾上當，不要太責備自己。",
				"尋求穩定財務的願望是正常的，但請記住：真正的好機會不會讓你倉促決定。",
			},
			"romance_scam": {
				"情感詐騙特別傷人，因為它們利用了人類最自然的渴望－愛與連結。這完全不是你的過錯。",
				"你值得真誠的感情和關係。這次經歷雖然痛苦，但也幫助你認識到真正的愛是建立在信任和時間上的。",
			},
			"prize_or_lottery_scam": {
				"誰不希望突然中大獎呢？詐騙者正是利用這種普遍的心理。重要的是你現在已經警覺起來。",
				"真正的獎項不需要你先付款。你的懷疑態度是正確的，這保護了你的財產安全。",
			},
			detect.GeneralSuspicious: {
				"對可疑訊息保持警覺是明智之舉。你的直覺是很好的保護機制。",
				"在數位時代，我們每天都面臨各種訊息轟炸，保持健康的懷疑態度很重要。",
			},
		},
		pick: pick,
	}
}

var (
	fearEmotions      = map[string]string{"恐懼": "fear", "焦慮": "panic", "擔憂": "general"}
	overwhelmEmotions = map[string]string{"無助": "overwhelmed", "困惑": "general", "憤怒": "trust_issues", "沮喪": "emotional"}
)

// Select returns the support text for need: a primary message, optionally
// followed by an encouragement line.
func (l *SupportLibrary) Select(need SupportNeed) string {
	var primary SupportMessage
	switch {
	case need.Victim && len(l.byScamType[need.ScamType]) > 0:
		msgs := l.byScamType[need.ScamType]
		primary = SupportMessage{ID: "scam_" + need.ScamType, Context: need.ScamType, Text: msgs[l.pick(len(msgs))]}
	case fearEmotions[need.Emotion] != "":
		primary = find(l.comfort, fearEmotions[need.Emotion])
	case overwhelmEmotions[need.Emotion] != "":
		primary = find(l.empathy, overwhelmEmotions[need.Emotion])
	case need.Victim:
		primary = find(l.comfort, "victim")
	default:
		primary = find(l.empathy, "general")
	}

	parts := []string{formatSteps(primary.Text)}
	if need.NeedsEncouragement {
		ctx := "prevention"
		if need.Victim {
			ctx = "recovery"
		}
		sec := find(l.encouragement, ctx)
		if prefix(sec.ID) != prefix(primary.ID) {
			parts = append(parts, formatSteps(sec.Text))
		}
	}
	return strings.Join(parts, "\n\n")
}

// NeedFor derives the support need from a decision.
func NeedFor(d orchestrator.Decision) SupportNeed {
	need := SupportNeed{Victim: d.Context.Scam.IsScam}
	if e := d.Context.Emotion; e != nil {
		need.Emotion = e.Primary
		need.NeedsEncouragement = e.Intensity > 0.6 || e.RequiresSupport
	}
	if d.Context.Special != nil && d.Context.Special.RuleID == "scam_victim" {
		need.Victim = true
	}
	if d.Context.Crisis.Type == detect.CrisisFinancialDistress {
		need.Victim = true
	}
	if info := d.Context.Scam.Info; info != nil {
		need.ScamType = info.ID
	}
	return need
}

// find returns the first message with context ctx, else the first general
// one.
func find(msgs []SupportMessage, ctx string) SupportMessage {
	for _, m := range msgs {
		if m.Context == ctx {
			return m
		}
	}
	for _, m := range msgs {
		if m.Context == "general" {
			return m
		}
	}
	return msgs[0]
}

func prefix(id string) string {
	if i := strings.IndexByte(id, '_'); i >= 0 {
		return id[:i]
	}
	return id
}

// formatSteps splits long comma-separated advice into numbered lines.
func formatSteps(s string) string {
	if utf8.RuneCountInString(s) <= 50 || !strings.Contains(s, "，") || strings.Contains(s, "步驟") {
		return s
	}
	var b strings.Builder
	n := 0
	for _, part := range strings.Split(s, "，") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		n++
		if n > 1 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "步驟%d: %s", n, part)
	}
	return b.String()
}
