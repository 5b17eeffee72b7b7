package detect

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestScamClassifier_InvestmentScenario(t *testing.T) {
	c := NewScamClassifier()
	res := c.Detect("限量名額，保證每月20%回報，立即投資")

	if !res.IsScam {
		t.Fatalf("expected scam, got %+v", res)
	}
	want := []string{"urgent_action", "financial_incentives", "investment_schemes"}
	if got := res.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
	if res.Info == nil || res.Info.ID != "investment_scam" {
		t.Fatalf("scam type = %+v, want investment_scam", res.Info)
	}
	// 18 runes, so the short-text factor halves the overall score.
	if math.Abs(res.Confidence-0.275) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.275", res.Confidence)
	}
	if math.Abs(res.Info.Confidence-0.7825) > 1e-9 {
		t.Fatalf("type confidence = %v, want 0.7825", res.Info.Confidence)
	}
}

func TestScamClassifier_ShortTextFactorCountsRunes(t *testing.T) {
	res := NewScamClassifier().Detect("請你現在就立即處理這件事情好嗎")
	if got := res.Categories(); !reflect.DeepEqual(got, []string{"urgent_action"}) {
		t.Fatalf("categories = %v", got)
	}
	if res.IsScam || res.Info != nil {
		t.Fatalf("15-rune single-category text should not be a scam: %+v", res)
	}
	if res.Confidence >= 0.2 {
		t.Fatalf("confidence = %v, want halved below 0.2", res.Confidence)
	}
}

func TestScamClassifier_Deterministic(t *testing.T) {
	c := NewScamClassifier()
	msg := "您好，這裡是銀行客服，您的帳號異常，請立即點擊 https://bit.ly/abc 輸入密碼與驗證碼"
	first := c.Detect(msg)
	for i := 0; i < 20; i++ {
		if got := c.Detect(msg); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, got, first)
		}
	}
	if first.Info == nil || first.Info.ID != "fake_customer_service" {
		t.Fatalf("scam type = %+v, want fake_customer_service", first.Info)
	}
}

func TestScamClassifier_HighRiskMatchNeverLowersConfidence(t *testing.T) {
	c := NewScamClassifier()
	bases := []string{
		"限量名額，保證每月20%回報，立即投資",
		"親愛的，我好想你，可以先借5000元給我嗎",
		"恭喜您中獎了，請盡快領取您的獎金喔",
		"今天天氣很好，我們去公園散步吧，順便吃個飯",
	}
	for _, b := range bases {
		before := c.Detect(b).Confidence
		after := c.Detect(b + " https://bit.ly/x1").Confidence
		if after < before {
			t.Fatalf("%q: confidence dropped from %v to %v", b, before, after)
		}
	}
}

func TestScamClassifier_ShortTextIsNeverScam(t *testing.T) {
	c := NewScamClassifier()
	for _, s := range []string{"", "密碼", "立即投資", "win!"} {
		if res := c.Detect(s); res.IsScam || len(res.Indicators) != 0 {
			t.Fatalf("%q should not be classified, got %+v", s, res)
		}
	}
}

func TestScamClassifier_NoMatch(t *testing.T) {
	res := NewScamClassifier().Detect("我今天去學校上課，中午吃了便當")
	if res.IsScam || res.Info != nil || res.Confidence != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestScamClassifier_GeneralFallback(t *testing.T) {
	// threat_or_blackmail is not an indicator of any specific type.
	res := NewScamClassifier().Detect("你再不聽話的話我們會把你的照片曝光，後果自負")
	if !res.IsScam {
		t.Fatalf("expected scam, got %+v", res)
	}
	if res.Info == nil || res.Info.ID != GeneralSuspicious {
		t.Fatalf("scam type = %+v, want %s", res.Info, GeneralSuspicious)
	}
}

func TestNewScamClassifierFrom_Validation(t *testing.T) {
	if _, err := NewScamClassifierFrom([]Category{{ID: "x", Patterns: []string{"("}}}, defaultScamTypes); err == nil {
		t.Fatalf("expected regex compile error")
	}
	if _, err := NewScamClassifierFrom(defaultCategories, defaultScamTypes[:1]); err == nil {
		t.Fatalf("expected error without %s", GeneralSuspicious)
	}
}

func TestScamClassifier_ScamTypeLookup(t *testing.T) {
	c := NewScamClassifier()
	if got := c.ScamType("romance_scam"); got.ID != "romance_scam" || len(got.Advice) == 0 {
		t.Fatalf("romance lookup = %+v", got)
	}
	if got := c.ScamType("nope"); got.ID != GeneralSuspicious {
		t.Fatalf("unknown id should fall back, got %+v", got)
	}
}

func TestSummaryAndAlertText(t *testing.T) {
	c := NewScamClassifier()

	if s := Summary(ScamResult{}); !strings.Contains(s, "未顯示明顯的詐騙特徵") {
		t.Fatalf("clean summary = %q", s)
	}
	res := c.Detect("限量名額，保證每月20%回報，立即投資")
	s := Summary(res)
	for _, want := range []string{"投資詐騙", "低級風險", "檢測到的可疑元素", "165"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}

	alert := AlertText(res.Info)
	if !strings.HasPrefix(alert, "⚠️ 警告！") || !strings.Contains(alert, "步驟1: ") {
		t.Fatalf("alert = %q", alert)
	}
	if AlertText(nil) == "" {
		t.Fatalf("nil info still yields a reply")
	}
}

func TestNullScamDetector(t *testing.T) {
	if (NullScamDetector{}).Detect("限量名額，保證每月20%回報，立即投資").IsScam {
		t.Fatalf("null detector must not detect")
	}
}

func TestAnalyzeImage_NeverScam(t *testing.T) {
	res := AnalyzeImage("https://example.com/prize.png")
	if res.IsScam || res.Info != nil || res.Confidence != 0 || len(res.Indicators) != 0 {
		t.Fatalf("AnalyzeImage = %+v", res)
	}
}
