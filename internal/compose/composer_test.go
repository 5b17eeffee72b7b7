package compose

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/antiscam-chat-backend/internal/detect"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/i18n"
	"github.com/tbourn/antiscam-chat-backend/internal/llm"
	"github.com/tbourn/antiscam-chat-backend/internal/orchestrator"
	"github.com/tbourn/antiscam-chat-backend/internal/tonefilter"
)

// ---- fakes ----

type fakeLLM struct {
	resp  llm.Response
	err   error
	block bool
	reqs  []llm.Request
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.reqs = append(f.reqs, req)
	if f.block {
		<-ctx.Done()
		return llm.Response{}, ctx.Err()
	}
	return f.resp, f.err
}

func firstPick(int) int { return 0 }

func newComposer(client llm.Client, opts ...Option) *Composer {
	opts = append([]Option{WithSupportLibrary(NewSupportLibrary(firstPick))}, opts...)
	return New(client, tonefilter.New(tonefilter.WithPicker(firstPick)), i18n.MustNew(i18n.LangZH), opts...)
}

func investment() detect.ScamResult {
	return detect.ScamResult{
		IsScam:     true,
		Confidence: 0.55,
		Indicators: []detect.Indicator{{CategoryID: "investment_schemes", Name: "投資計畫"}},
		Info: &detect.ScamInfo{ScamType: detect.ScamType{
			ID: "investment_scam", Name: "投資詐騙", Description: "高報酬誘餌", Advice: []string{"沒有穩賺的投資"},
		}},
	}
}

// ---- tests ----

func TestCompose_CannedPathsSkipLLM(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Text: "不該用到"}}
	c := newComposer(f)

	cases := []orchestrator.Decision{
		{Type: orchestrator.KeywordMatch, Context: orchestrator.Context{Keyword: &detect.KeywordMatch{Response: "你好呀！"}}},
		{Type: orchestrator.SafetyViolation, Context: orchestrator.Context{Safety: detect.SafetyResult{RejectionText: "不行喔"}}},
		{Type: orchestrator.SpecialSituation, Context: orchestrator.Context{Special: &detect.SpecialMatch{Response: "我在這裡"}}},
	}
	want := []string{"你好呀！", "不行喔", "我在這裡"}
	for i, d := range cases {
		res := c.Compose(context.Background(), Input{Message: "x", Decision: d})
		if res.Text != want[i] || res.UsedLLM || res.Tokens != 0 {
			t.Fatalf("%s: %+v", d.Type, res)
		}
	}
	if len(f.reqs) != 0 {
		t.Fatalf("llm called %d times", len(f.reqs))
	}
}

func TestCompose_GeneralUsesHistoryAndFilter(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Text: "根據研究，這種訊息很常見。你覺得呢？", InputTokens: 120, OutputTokens: 30}}
	c := newComposer(f)

	d := orchestrator.Decision{Type: orchestrator.GeneralConversation}
	d.Context.Strategy.TemperatureModifier = -0.1
	res := c.Compose(context.Background(), Input{
		Message:  "這常見嗎",
		Language: "zh-TW",
		History: []domain.ChatTurn{
			{Role: domain.RoleUser, Content: "嗨"},
			{Role: domain.RoleAssistant, Content: "你好呀"},
		},
		Decision: d,
	})

	if res.Text != "我聽說，這種訊息很常見。你覺得呢？" || !res.UsedLLM || res.Tokens != 150 {
		t.Fatalf("result = %+v", res)
	}
	if len(res.ToneRules) != 1 || res.ToneRules[0] != tonefilter.RulePersona {
		t.Fatalf("tone rules = %v", res.ToneRules)
	}

	req := f.reqs[0]
	if req.MaxTokens != 800 || req.Temperature < 0.59 || req.Temperature > 0.61 {
		t.Fatalf("request params = %+v", req)
	}
	if len(req.Messages) != 3 || req.Messages[1].Role != llm.RoleAssistant || req.Messages[2].Content != "這常見嗎" {
		t.Fatalf("messages = %+v", req.Messages)
	}
	if !strings.Contains(req.System, "防詐小安") || !strings.Contains(req.System, "【一般對話指南】") {
		t.Fatalf("system prompt missing sections")
	}
}

func TestCompose_TemperatureIsClamped(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Text: "好的，我們一起看看。你覺得呢？"}}
	c := newComposer(f)
	d := orchestrator.Decision{Type: orchestrator.EmotionalBalanced}
	d.Context.Strategy.TemperatureModifier = 0.5
	c.Compose(context.Background(), Input{Message: "x", Decision: d})
	if f.reqs[0].Temperature != 0.9 {
		t.Fatalf("temperature = %v", f.reqs[0].Temperature)
	}
}

func TestCompose_LLMFailureFallsBack(t *testing.T) {
	c := newComposer(&fakeLLM{err: errors.New("boom")})
	res := c.Compose(context.Background(), Input{Message: "x", Decision: orchestrator.Decision{Type: orchestrator.GeneralConversation}})
	if !res.Fallback || res.UsedLLM || !strings.Contains(res.Text, "你能告訴我更多相關情況嗎") {
		t.Fatalf("result = %+v", res)
	}

	// An empty reply counts as a failure.
	c = newComposer(&fakeLLM{resp: llm.Response{Text: "  "}})
	if res := c.Compose(context.Background(), Input{Message: "x", Decision: orchestrator.Decision{Type: orchestrator.GeneralConversation}}); !res.Fallback {
		t.Fatalf("empty reply not treated as failure: %+v", res)
	}
}

func TestCompose_TimeoutFallsBack(t *testing.T) {
	c := newComposer(&fakeLLM{block: true}, WithTimeout(20*time.Millisecond))
	start := time.Now()
	res := c.Compose(context.Background(), Input{Message: "x", Decision: orchestrator.Decision{Type: orchestrator.GeneralConversation}})
	if !res.Fallback || time.Since(start) > 2*time.Second {
		t.Fatalf("result = %+v after %v", res, time.Since(start))
	}
}

func TestCompose_ScamAlert(t *testing.T) {
	f := &fakeLLM{err: llm.ErrNotConfigured}
	c := newComposer(f)
	d := orchestrator.Decision{Type: orchestrator.ScamAlert, Context: orchestrator.Context{Scam: investment()}}

	res := c.Compose(context.Background(), Input{Message: "保證獲利", Decision: d})
	if !res.Fallback || !strings.Contains(res.Text, "投資詐騙") || !strings.Contains(res.Text, "165") {
		t.Fatalf("canned alert = %+v", res)
	}
	if !strings.Contains(f.reqs[0].System, "【詐騙訊息回應指南】") || !strings.Contains(f.reqs[0].System, "投資計畫") {
		t.Fatalf("scam guidance missing from prompt")
	}
}

func TestCompose_CrisisWithoutLLMIncludesHotline(t *testing.T) {
	c := newComposer(llm.Null{})
	d := orchestrator.Decision{
		Type:    orchestrator.Crisis,
		Context: orchestrator.Context{Crisis: detect.CrisisResult{IsCrisis: true, Type: detect.CrisisSuicideRisk}},
	}
	res := c.Compose(context.Background(), Input{Message: "我不想活了", Decision: d})
	if !res.Fallback || !strings.Contains(res.Text, "1925") {
		t.Fatalf("result = %+v", res)
	}
}

func TestCompose_CrisisReplyGetsHotlineAppended(t *testing.T) {
	f := &fakeLLM{resp: llm.Response{Text: "我在這裡陪你，我們一起慢慢來。你願意多說一點嗎？", InputTokens: 10, OutputTokens: 10}}
	c := newComposer(f)
	d := orchestrator.Decision{
		Type: orchestrator.Crisis,
		Context: orchestrator.Context{
			Crisis:  detect.CrisisResult{IsCrisis: true, Type: detect.CrisisSuicideRisk},
			Emotion: &domain.EmotionAnalysis{Primary: "無助", Intensity: 0.9},
		},
	}
	res := c.Compose(context.Background(), Input{Message: "我不想活了", Decision: d})
	if !strings.Contains(res.Text, "1925") || !res.UsedLLM || res.Tokens != 20 {
		t.Fatalf("result = %+v", res)
	}

	req := f.reqs[0]
	if req.MaxTokens != 600 || req.Temperature != 0.7 || len(req.Messages) != 1 {
		t.Fatalf("support request = %+v", req)
	}
	if !strings.Contains(req.System, "強烈的無助情緒") || !strings.Contains(req.System, "1925") {
		t.Fatalf("support prompt = %q", req.System)
	}
}

func TestSystemPrompt_HybridAndEmotion(t *testing.T) {
	d := orchestrator.Decision{
		Type: orchestrator.EmotionalScamHybrid,
		Context: orchestrator.Context{
			Emotion:      &domain.EmotionAnalysis{Primary: "恐懼", Intensity: 0.8},
			Strategy:     detect.ResponseStrategy{Tone: "reassuring", FocusOnEmotion: true, Instructions: []string{"先確認用戶的擔憂是合理的"}},
			Scam:         investment(),
			EmotionFirst: true,
		},
	}
	got := systemPrompt(DefaultPersona(), d, orchestrator.Integrate(d), i18n.LangEN)
	for _, want := range []string{
		"【用戶情緒處理指南】", "恐懼（強度 0.8/1.0）", "無明顯次要情緒", "優先處理情緒需求",
		"1. 先確認用戶的擔憂是合理的", "【詐騙訊息回應指南】", "需要優先處理用戶的情緒需求", "請用英文回覆",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestPersona(t *testing.T) {
	p := DefaultPersona()
	if err := p.Validate(); err != nil {
		t.Fatalf("default persona invalid: %v", err)
	}
	desc := p.Describe()
	for _, want := range []string{"- 你有80%的友善鄰家女孩特質", "- 使用70%的友善方式語氣", "- 正式程度：親切自然 (設定值：30%)"} {
		if !strings.Contains(desc, want) {
			t.Fatalf("Describe() missing %q:\n%s", want, desc)
		}
	}

	p.Tones = append(p.Tones, Trait{"過度", 1.5})
	if err := p.Validate(); !errors.Is(err, ErrInvalidPersona) {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestSupportLibrary_Select(t *testing.T) {
	l := NewSupportLibrary(firstPick)
	cases := []struct {
		name string
		need SupportNeed
		want string
	}{
		{"victim with type", SupportNeed{Victim: true, ScamType: "investment_scam"}, "投資詐騙設計得極具吸引力"},
		{"fear", SupportNeed{Emotion: "恐懼"}, "害怕是正常的"},
		{"anxiety", SupportNeed{Emotion: "焦慮"}, "先深呼吸一下"},
		{"helpless", SupportNeed{Emotion: "無助"}, "不知所措"},
		{"victim", SupportNeed{Victim: true}, "別對自己太苛刻"},
		{"default", SupportNeed{}, "我能感受到你的擔憂和困惑"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := l.Select(tc.need); !strings.Contains(got, tc.want) {
				t.Fatalf("Select() = %q, want %q", got, tc.want)
			}
		})
	}

	got := l.Select(SupportNeed{Emotion: "恐懼", NeedsEncouragement: true})
	if !strings.Contains(got, "保持警覺是明智的選擇") {
		t.Fatalf("missing prevention encouragement: %q", got)
	}
	got = l.Select(SupportNeed{Emotion: "恐懼", Victim: true, NeedsEncouragement: true})
	if !strings.Contains(got, "即使遇到挫折") {
		t.Fatalf("missing recovery encouragement: %q", got)
	}
}

func TestFormatSteps(t *testing.T) {
	long := "先不要再匯款給對方，保留所有的對話紀錄和轉帳證明，撥打165反詐騙專線報案，再聯絡銀行詢問能不能申請止付和後續處理"
	want := "步驟1: 先不要再匯款給對方\n步驟2: 保留所有的對話紀錄和轉帳證明\n步驟3: 撥打165反詐騙專線報案\n步驟4: 再聯絡銀行詢問能不能申請止付和後續處理"
	if got := formatSteps(long); got != want {
		t.Fatalf("formatSteps() = %q", got)
	}
	if got := formatSteps("短句，不用拆"); got != "短句，不用拆" {
		t.Fatalf("short text changed: %q", got)
	}
}

func TestNeedFor(t *testing.T) {
	d := orchestrator.Decision{Context: orchestrator.Context{
		Scam:    investment(),
		Emotion: &domain.EmotionAnalysis{Primary: "焦慮", Intensity: 0.8},
	}}
	need := NeedFor(d)
	if !need.Victim || need.ScamType != "investment_scam" || need.Emotion != "焦慮" || !need.NeedsEncouragement {
		t.Fatalf("need = %+v", need)
	}
}
