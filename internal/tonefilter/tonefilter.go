// Package tonefilter rewrites LLM replies so they keep the assistant's
// voice: short, curious, gentle and peer-level.
//
// Rules run in a fixed order. Each rule has a check and a fix; the fix runs
// when the check fails, and the rule id is reported only if the fix changed
// the text. Two guards run afterwards: a reply reduced to punctuation is
// replaced, and a reply cut below 30% of a long original is rebuilt from the
// original with only the gentle-persuasion rule applied.
package tonefilter

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/observability"
)

// Rule ids, in application order.
const (
	RuleBrevity        = "brevity"
	RuleInteractivity  = "interactivity"
	RuleGentle         = "gentle_persuasion"
	RuleHumility       = "humility"
	RuleEquality       = "equality"
	RulePersona        = "high_school_identity"
	RuleSafetyCheck    = "safety_check"
	DefaultClarifyText = "哎呀，這個問題讓我想了一下。可以再告訴我多一些細節嗎？這樣我能更好地幫助你。😊"
)

const (
	simpleMessageRunes = 50
	longReplyRunes     = 150
	cutAfterRune       = 80
	shortOriginalRunes = 30
	guardOriginalRunes = 100
	truncationRatio    = 0.3
)

// Request is one reply to filter.
type Request struct {
	UserMessage string
	Response    string
	// Clarify replaces a reply with no content. Empty means DefaultClarifyText.
	Clarify string
}

type rule struct {
	id  string
	ok  func(f *Filter, user, resp string) bool
	fix func(f *Filter, resp string) string
}

// Filter applies the tone rules. It is safe for concurrent use when its
// picker is.
type Filter struct {
	pick  func(n int) int
	rules []rule
}

// Option configures a Filter.
type Option func(*Filter)

// WithPicker replaces the uniform random choice used for follow-up
// questions and collaborative openers.
func WithPicker(pick func(n int) int) Option {
	return func(f *Filter) {
		if pick != nil {
			f.pick = pick
		}
	}
}

// New returns a Filter with the default rule order.
func New(opts ...Option) *Filter {
	f := &Filter{pick: rand.IntN}
	for _, o := range opts {
		o(f)
	}
	f.rules = []rule{
		{RuleBrevity, (*Filter).brief, (*Filter).shorten},
		{RuleInteractivity, (*Filter).interactive, (*Filter).askBack},
		{RuleGentle, func(*Filter, string, string) bool { return false }, func(_ *Filter, s string) string { return gentle(s) }},
		{RuleHumility, func(_ *Filter, _, s string) bool { return !containsAny(s, humilityOld()) }, func(_ *Filter, s string) string { return humilityReplacer.Replace(s) }},
		{RuleEquality, func(_ *Filter, _, s string) bool { return containsAny(s, equalityMarkers) }, (*Filter).collaborate},
		{RulePersona, func(_ *Filter, _, s string) bool { return !containsAny(s, personaOld()) }, func(_ *Filter, s string) string { return personaReplacer.Replace(s) }},
	}
	return f
}

// RuleIDs lists the rules in application order.
func (f *Filter) RuleIDs() []string {
	out := make([]string, len(f.rules))
	for i, r := range f.rules {
		out[i] = r.id
	}
	return out
}

// Apply filters req.Response and returns the final text and the ids of the
// rules that changed it.
func (f *Filter) Apply(ctx context.Context, req Request) (string, []string) {
	original := req.Response
	text := original
	applied := []string{}

	for _, r := range f.rules {
		if r.ok(f, req.UserMessage, text) {
			continue
		}
		if next := r.fix(f, text); next != text {
			text = next
			applied = append(applied, r.id)
		}
	}

	final := text
	if Meaningless(final) {
		final = original
		if Meaningless(original) || runeLen(strings.TrimSpace(original)) < shortOriginalRunes {
			final = req.Clarify
			if final == "" {
				final = DefaultClarifyText
			}
		}
	} else if n := runeLen(original); n > guardOriginalRunes && float64(runeLen(final)) < truncationRatio*float64(n) {
		final = gentle(original)
	}
	if final != text {
		applied = append(applied, RuleSafetyCheck)
	}

	if len(applied) > 0 {
		log.Ctx(ctx).Debug().Strs("rules", applied).Msg("tone filter applied")
		observability.ObserveToneRules(applied)
	}
	return final, applied
}

// ---- brevity ----

func (f *Filter) brief(user, resp string) bool {
	paras := paragraphs(resp)
	if runeLen(user) < simpleMessageRunes && (runeLen(resp) > longReplyRunes || len(paras) > 2) {
		return false
	}
	return len(paras) <= 3
}

func (f *Filter) shorten(resp string) string {
	paras := paragraphs(resp)
	switch {
	case len(paras) > 2:
		resp = strings.Join(paras[:2], "\n")
	case runeLen(resp) > longReplyRunes:
		rs := []rune(resp)
		for i := cutAfterRune + 1; i < len(rs)-1; i++ {
			if rs[i] == '。' || rs[i] == '？' || rs[i] == '！' {
				resp = string(rs[:i+1])
				break
			}
		}
	default:
		return resp
	}
	if !strings.ContainsAny(lastRunes(resp, 5), friendlyEmoji) {
		resp += "😊"
	}
	return resp
}

// ---- interactivity ----

var (
	questionWords     = []string{"如何", "什麼", "要不要", "想不想", "可以嗎"}
	followUpQuestions = []string{"你覺得這樣可以嗎？", "你有什麼想法呢？", "這對你有幫助嗎？", "你遇到類似的情況嗎？"}
)

func (f *Filter) interactive(_, resp string) bool {
	parts := strings.Split(resp, "。")
	tail := strings.Join(parts[max(0, len(parts)-2):], "。")
	return strings.Contains(tail, "？") || containsAny(tail, questionWords)
}

func (f *Filter) askBack(resp string) string {
	trimmed := strings.TrimSpace(resp)
	if strings.HasSuffix(trimmed, "？") {
		return resp
	}
	return trimTrailingEmoji(trimmed) + "\n\n" + followUpQuestions[f.pick(len(followUpQuestions))] + "😊"
}

// ---- gentle persuasion ----

var (
	verdictReplacer = strings.NewReplacer(
		"這是詐騙", "我有點擔心這可能是詐騙",
		"這看起來很像詐騙", "這樣的訊息有點讓我擔心",
	)
	confrontReplacer = strings.NewReplacer(
		"為什麼不", "也許可以再考慮",
		"怎麼可能", "我有點擔心",
		"你應該知道", "我們可以知道",
		"你不覺得嗎", "我覺得",
		"你怎麼會", "我有點好奇",
		"難道你不", "也許我們可以",
		"若真如此", "如果是這樣",
	)
)

func gentle(s string) string {
	s = verdictReplacer.Replace(s)
	s = confrontReplacer.Replace(s)
	if strings.Contains(s, "小心") && !strings.Contains(s, "擔心") {
		s = strings.ReplaceAll(s, "小心", "多注意")
	}
	if strings.Count(s, "擔心") > 1 {
		s = strings.Replace(s, "擔心", "在意", 1)
	}
	return s
}

// ---- humility ----

var humilityPairs = []string{
	"其實", "與你分享",
	"老實說", "我覺得",
	"說實話", "我有點擔心",
	"講真的", "我們一起想想",
	"啊", "",
	"要知道", "也許",
	"你應該", "也許可以考慮",
	"你必須", "我們可以一起",
	"應該引起警惕", "我有點擔心",
	"為什麼不是大家都在做", "如果有這麼好的機會，多和信任的人討論看看",
	"為什麼不是", "也許可以再了解看看",
	"應該意識到", "我們可以一起關注",
	"我必須誠實", "我有點擔心",
	"你要小心", "可能要多想想",
	"一定要", "可能比較好",
	"不能", "也許不太建議",
	"即使", "就算",
	"不應該", "我會考慮再",
	"想清楚", "可以再想想",
}

var humilityReplacer = sequence(humilityPairs)

func humilityOld() []string { return olds(humilityPairs) }

// ---- equality ----

var (
	equalityMarkers      = []string{"一起", "我們可以", "你覺得", "你想", "謝謝你"}
	collaborativeAlready = []string{"一起", "我們", "你覺得", "如果你想", "也許我們", "與你分享"}
	collaborativeOpeners = []string{"我們可以一起想想，", "跟你分享我的想法，", "也許我們可以這樣看，", "不知道你覺得如何，", "希望能跟你一起想想，"}
)

func (f *Filter) collaborate(resp string) string {
	if containsAny(resp, collaborativeAlready) {
		return resp
	}
	sents := sentences(resp)
	if len(sents) < 2 || Meaningless(sents[1]) {
		return resp
	}
	lead := len(sents[1]) - len(strings.TrimLeft(sents[1], " \t\n"))
	sents[1] = sents[1][:lead] + collaborativeOpeners[f.pick(len(collaborativeOpeners))] + sents[1][lead:]
	return strings.Join(sents, "")
}

// ---- persona ----

var personaPairs = []string{
	"根據研究", "我聽說",
	"科學證明", "好像是",
	"統計數據表明", "通常來說",
	"專業角度", "我的想法",
	"依據經驗", "從我了解的",
}

var personaReplacer = sequence(personaPairs)

func personaOld() []string { return olds(personaPairs) }

// ---- helpers ----

const friendlyEmoji = "😊🤗👍💪😉"

var punctuationOnly = regexp.MustCompile(`^[\s\p{P}\p{S}]*$`)

// Meaningless reports whether s has no letters, digits or ideographs.
func Meaningless(s string) bool { return punctuationOnly.MatchString(s) }

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func lastRunes(s string, n int) string {
	rs := []rune(s)
	return string(rs[max(0, len(rs)-n):])
}

func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentences splits s after each 。！？ keeping the terminators, so joining
// the parts gives s back.
func sentences(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '。' || r == '！' || r == '？' {
			end := i + utf8.RuneLen(r)
			out = append(out, s[start:end])
			start = end
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isEmoji(r rune) bool {
	return (r >= 0x1F000 && r <= 0x1FAFF) || r == 0xFE0F || r == 0x200D
}

func trimTrailingEmoji(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool { return isEmoji(r) || r == ' ' })
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// sequence is old/new pairs applied one after another, so an earlier
// replacement can feed a later one.
type sequence []string

func (q sequence) Replace(s string) string {
	for i := 0; i+1 < len(q); i += 2 {
		s = strings.ReplaceAll(s, q[i], q[i+1])
	}
	return s
}

func olds(pairs []string) []string {
	out := make([]string, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, pairs[i])
	}
	return out
}
