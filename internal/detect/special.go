package detect

import (
	"fmt"
	"regexp"
	"strings"
)

// Emergency levels carried by special-situation rules.
const (
	EmergencyHigh   = "high"
	EmergencyMedium = "medium"
	EmergencyLow    = "low"
	EmergencyNone   = "none"
)

// GroupTagRule is only evaluated for group chats.
const GroupTagRule = "group_tag"

// Hotline is a phone resource offered alongside a special-situation reply.
type Hotline struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// SpecialAction is the follow-up a rule recommends.
type SpecialAction struct {
	Type     string    `json:"type"`
	Hotlines []Hotline `json:"hotlines,omitempty"`
}

// SpecialRule is an ordered regex rule with per-language reply templates.
type SpecialRule struct {
	ID             string
	Name           string
	Description    string
	Patterns       []string
	Templates      map[string][]string // language -> templates
	EmergencyLevel string
	Action         *SpecialAction
	Enabled        bool

	res []*regexp.Regexp
}

// SpecialMatch is the rule that fired and its rendered reply.
type SpecialMatch struct {
	RuleID         string         `json:"rule_id"`
	RuleName       string         `json:"rule_name"`
	EmergencyLevel string         `json:"emergency_level"`
	Response       string         `json:"response"`
	Action         *SpecialAction `json:"action,omitempty"`
}

// SpecialSituationMatcher recognises situations that need a fixed reply.
type SpecialSituationMatcher interface {
	Detect(text string, isGroup bool, lang string) (SpecialMatch, bool)
}

// SpecialRules is the regex SpecialSituationMatcher.
type SpecialRules struct {
	rules       []SpecialRule
	defaultLang string
	fallback    func(lang string) string
}

// NewSpecialRules compiles the built-in rules. fallback renders the reply for
// a rule without templates in either language; nil yields an empty reply.
func NewSpecialRules(defaultLang string, fallback func(lang string) string) *SpecialRules {
	s, err := NewSpecialRulesFrom(defaultSpecialRules, defaultLang, fallback)
	if err != nil {
		panic(err)
	}
	return s
}

// NewSpecialRulesFrom compiles custom rules, checked in slice order.
func NewSpecialRulesFrom(rules []SpecialRule, defaultLang string, fallback func(lang string) string) (*SpecialRules, error) {
	out := make([]SpecialRule, len(rules))
	for i, r := range rules {
		r.res = make([]*regexp.Regexp, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("detect: special rule %s: %w", r.ID, err)
			}
			r.res = append(r.res, re)
		}
		out[i] = r
	}
	if fallback == nil {
		fallback = func(string) string { return "" }
	}
	return &SpecialRules{rules: out, defaultLang: defaultLang, fallback: fallback}, nil
}

// Detect returns the first enabled rule with a matching pattern. The reply is
// the rule's first template in lang, or in the default language when lang
// has none.
func (s *SpecialRules) Detect(text string, isGroup bool, lang string) (SpecialMatch, bool) {
	if strings.TrimSpace(text) == "" {
		return SpecialMatch{}, false
	}
	for _, r := range s.rules {
		if !r.Enabled || (r.ID == GroupTagRule && !isGroup) {
			continue
		}
		for _, re := range r.res {
			if re.MatchString(text) {
				return SpecialMatch{
					RuleID:         r.ID,
					RuleName:       r.Name,
					EmergencyLevel: r.EmergencyLevel,
					Response:       s.template(r, lang),
					Action:         r.Action,
				}, true
			}
		}
	}
	return SpecialMatch{}, false
}

func (s *SpecialRules) template(r SpecialRule, lang string) string {
	if ts := r.Templates[lang]; len(ts) > 0 {
		return ts[0]
	}
	if ts := r.Templates[s.defaultLang]; len(ts) > 0 {
		return ts[0]
	}
	return s.fallback(lang)
}

// NullSpecialMatcher never matches.
type NullSpecialMatcher struct{}

func (NullSpecialMatcher) Detect(string, bool, string) (SpecialMatch, bool) {
	return SpecialMatch{}, false
}

var defaultSpecialRules = []SpecialRule{
	{
		ID:          "suicide_crisis",
		Name:        "自殺危機",
		Description: "使用者表達自殺或結束生命的念頭",
		Patterns: []string{
			`(?:自殺|不想活了|想結束生命|不如死了|我就去死|想跳樓|我想死|不想活|活不下去|沒意思|沒價值|活著沒意義)`,
			`\b(?:suicide|kill myself|end my life|want to die|rather be dead|jump off|no point living)\b`,
		},
		Templates: map[string][]string{
			"zh-TW": {
				"聽你這麼說，我好擔心你。這種感受很難熬，但不用一個人面對。\n\n步驟1: 立即撥打1925或1995專線，有專業人員隨時願意聽你說話\n步驟2: 告訴他們你的感受，不需要隱藏或害怕\n\n最近發生什麼讓你這麼難過？我在這裡陪你。",
				"謝謝你願意跟我說這些，需要很大的勇氣。\n\n步驟1: 請立即聯繫1925或1995專線尋求專業協助\n步驟2: 如果你願意，可以告訴我更多，我會陪著你\n\n今天有什麼特別的事讓你感到痛苦嗎？",
			},
			"en": {
				"I'm worried about you. These feelings are really tough, but you don't have to face them alone.\n\nStep 1: Call the 1925 or 1995 hotlines right away for professional support\nStep 2: Share your feelings with them openly - it's okay to ask for help\n\nWhat's been going on that's making you feel this way? I'm here for you.",
				"Thank you for sharing this with me - that takes courage.\n\nStep 1: Please contact the 1925 or 1995 hotlines immediately\nStep 2: If you feel comfortable, tell me more about what's happening\n\nDid something specific happen today that's causing you pain?",
			},
		},
		EmergencyLevel: EmergencyHigh,
		Action: &SpecialAction{
			Type:     "hotline_referral",
			Hotlines: []Hotline{{Name: "自殺防治專線", Number: "1925"}, {Name: "關懷專線", Number: "1995"}},
		},
		Enabled: true,
	},
	{
		ID:          "scam_victim",
		Name:        "詐騙受害者",
		Description: "使用者表示已經被騙或損失財物",
		Patterns: []string{
			`(?:被騙了|上當了|騙走了|掛了|損失了|轉了|已經轉賬|不知道處理|怕家人知道|要我怎麼辦|沒有錢|搶救).{0,30}?(?:錢|元|塊|款|安全碎|測試金|備付金|身分證|密碼|資料)`,
			`\b(?:I was|I've been|got)\b.{0,30}?\b(?:scammed|tricked|duped|defrauded|swindled|cheated)\b`,
		},
		Templates: map[string][]string{
			"zh-TW": {
				"被騙真的很難過，你願意說出來很勇敢。\n\n步驟1: 立即撥打165反詐騙專線報案\n步驟2: 保存所有對話和交易紀錄作為證據\n步驟3: 如果已轉帳，立即聯繫銀行嘗試止付\n\n你已經採取什麼行動了嗎？",
				"被騙不是你的錯，詐騙手法真的很狡猾。\n\n步驟1: 撥打165反詐騙專線尋求專業協助\n步驟2: 向當地警察局報案\n\n方便分享一下詐騙過程嗎？或許能幫助其他人避免同樣情況。",
			},
			"en": {
				"Being scammed is really tough, and you're brave to talk about it.\n\nStep 1: Call the 165 anti-fraud hotline immediately\nStep 2: Save all conversations and transaction records as evidence\nStep 3: If you've transferred money, contact your bank to try to stop payment\n\nHave you taken any action so far?",
				"This isn't your fault - scammers are very clever.\n\nStep 1: Contact the 165 anti-fraud hotline for help\nStep 2: Report to your local police station\n\nWould you mind sharing what happened? It might help others avoid similar situations.",
			},
		},
		EmergencyLevel: EmergencyMedium,
		Action: &SpecialAction{
			Type:     "police_report",
			Hotlines: []Hotline{{Name: "反詐騙專線", Number: "165"}},
		},
		Enabled: true,
	},
	{
		ID:          GroupTagRule,
		Name:        "群組標記",
		Description: "在群組中被標記",
		Patterns:    []string{`@防詐小安`, `@小安`, `@安安`, `@?防詐大使`, `@Anti-?Scam`},
		Templates: map[string][]string{
			"zh-TW": {
				"嗨！我是防詐小安。\n\n有疑似詐騙訊息想分析？\n或是想了解如何保護自己免受詐騙？\n\n請直接告訴我，很高興能幫忙！",
				"你好！我是防詐小安。\n\n步驟1: 將可疑訊息或截圖分享給我\n步驟2: 告訴我您的問題或疑慮\n\n我會立即協助您分析並提供建議！",
			},
			"en": {
				"Hi! I'm Anti-Scam Xiao An.\n\nDo you have suspicious messages to analyze?\nOr want to learn how to protect yourself from scams?\n\nJust let me know, happy to help!",
				"Hello! I'm Anti-Scam Xiao An.\n\nStep 1: Share any suspicious messages or screenshots with me\nStep 2: Tell me your questions or concerns\n\nI'll analyze them right away and provide guidance!",
			},
		},
		EmergencyLevel: EmergencyNone,
		Enabled:        true,
	},
	{
		ID:          "emotional_support",
		Name:        "情緒支持",
		Description: "使用者表達負面情緒或孤立感",
		Patterns: []string{
			`(?:難過|傷心|沮喪|憂鬱|焦慮|壓力|緊張|害怕|恐懼|孤單|寂寞|無助|絕望|沒有人關心|沒人關心|沒人理|沒人懂|不被在意|沒有在意|私人問題|想不開|好累|累了|撐不住|太痛苦|好痛苦)`,
			`\b(?:sad|depressed|anxious|stressed|nervous|scared|afraid|lonely|helpless|hopeless|no one cares|nobody understands|nobody loves)\b`,
		},
		Templates: map[string][]string{
			"zh-TW": {
				"聽你說心情不好，謝謝願意分享。\n\n步驟1: 先深呼吸幾次，讓自己平靜一下\n步驟2: 分享讓你感到不好的事情，我會認真聆聽\n\n想聊聊發生什麼事嗎？或者只是想有人聽你說說也可以。",
				"心情不好的時候真的很難受，你的感受很重要。\n\n步驟1: 嘗試說出具體讓你難過的事\n步驟2: 想想有什麼小事可以讓你現在感覺好一點\n\n願意一起聊聊嗎？我在這裡支持你。",
			},
			"en": {
				"I hear you're not feeling great. Thanks for sharing that with me.\n\nStep 1: Take a few deep breaths to calm yourself\nStep 2: Share what's bothering you, I'm here to listen\n\nWant to talk about what happened? Or maybe you just need someone to listen?",
				"It's tough when you're feeling down. Your feelings are totally valid.\n\nStep 1: Try to identify what specifically is making you feel this way\nStep 2: Think of small things that might make you feel a little better right now\n\nWant to chat about it? I'm here to support you.",
			},
		},
		EmergencyLevel: EmergencyLow,
		Enabled:        true,
	},
}
