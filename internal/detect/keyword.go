package detect

import (
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"
)

// FunctionCategory is the only category tested against long messages.
const FunctionCategory = "function"

// longMessageRunes is the length above which only FunctionCategory is tried.
const longMessageRunes = 15

// KeywordCategory is a set of trigger phrases with canned replies.
type KeywordCategory struct {
	ID        string
	Name      string
	Keywords  []string
	Responses []string
	Threshold float64 // 0 uses the matcher default
}

// KeywordMatch is the winning category and the reply drawn from it.
type KeywordMatch struct {
	Category string  `json:"category"`
	Keyword  string  `json:"keyword"`
	Score    float64 `json:"score"`
	Response string  `json:"response"`
}

// KeywordMatcher answers small talk with canned replies.
type KeywordMatcher interface {
	Match(text string) (KeywordMatch, bool)
}

// KeywordTable is the table-driven KeywordMatcher.
type KeywordTable struct {
	categories    []KeywordCategory
	threshold     float64
	longThreshold float64
	pick          func(n int) int
}

// KeywordOption customises a KeywordTable.
type KeywordOption func(*KeywordTable)

// WithThreshold sets the default similarity threshold. Values outside
// (0,1] are ignored.
func WithThreshold(f float64) KeywordOption {
	return func(t *KeywordTable) {
		if f > 0 && f <= 1 {
			t.threshold = f
		}
	}
}

// WithLongThreshold overrides the threshold for long messages against the
// function category, which otherwise uses that category's own threshold.
// Values outside (0,1] are ignored.
func WithLongThreshold(f float64) KeywordOption {
	return func(t *KeywordTable) {
		if f > 0 && f <= 1 {
			t.longThreshold = f
		}
	}
}

// WithPicker replaces the uniform random reply picker.
func WithPicker(pick func(n int) int) KeywordOption {
	return func(t *KeywordTable) {
		if pick != nil {
			t.pick = pick
		}
	}
}

// WithCategories replaces the built-in categories.
func WithCategories(cats []KeywordCategory) KeywordOption {
	return func(t *KeywordTable) {
		if len(cats) > 0 {
			t.categories = cats
		}
	}
}

// NewKeywordTable builds a matcher over the built-in categories. Keywords
// are lower-cased once here.
func NewKeywordTable(opts ...KeywordOption) *KeywordTable {
	t := &KeywordTable{
		categories:    defaultKeywordCategories,
		threshold: 0.7,
		pick:      rand.IntN,
	}
	for _, o := range opts {
		o(t)
	}
	cats := make([]KeywordCategory, len(t.categories))
	for i, c := range t.categories {
		kws := make([]string, len(c.Keywords))
		for j, k := range c.Keywords {
			kws[j] = strings.ToLower(strings.TrimSpace(k))
		}
		c.Keywords = kws
		cats[i] = c
	}
	t.categories = cats
	return t
}

// Match tries an exact keyword first, in category order, then the single
// best similarity that clears its category threshold.
func (t *KeywordTable) Match(text string) (KeywordMatch, bool) {
	msg := strings.ToLower(strings.TrimSpace(text))
	if msg == "" {
		return KeywordMatch{}, false
	}

	if utf8.RuneCountInString(msg) > longMessageRunes {
		return t.matchLong(msg)
	}

	for _, c := range t.categories {
		if slices.Contains(c.Keywords, msg) && len(c.Responses) > 0 {
			return t.reply(c, msg, 1), true
		}
	}

	var (
		best    float64
		bestCat *KeywordCategory
		bestKW  string
	)
	for i := range t.categories {
		c := &t.categories[i]
		th := c.Threshold
		if th == 0 {
			th = t.threshold
		}
		for _, kw := range c.Keywords {
			if s := Similarity(msg, kw); s > best && s >= th {
				best, bestCat, bestKW = s, c, kw
			}
		}
	}
	if bestCat == nil || len(bestCat.Responses) == 0 {
		return KeywordMatch{}, false
	}
	return t.reply(*bestCat, bestKW, best), true
}

// matchLong only considers function keywords that contain, or are
// contained in, the message.
func (t *KeywordTable) matchLong(msg string) (KeywordMatch, bool) {
	for _, c := range t.categories {
		if c.ID != FunctionCategory || len(c.Responses) == 0 {
			continue
		}
		best, bestKW := 0.0, ""
		for _, kw := range c.Keywords {
			if kw == "" || !(strings.Contains(msg, kw) || strings.Contains(kw, msg)) {
				continue
			}
			if s := Similarity(msg, kw); s > best {
				best, bestKW = s, kw
			}
		}
		if bestKW != "" && best >= t.longThresholdFor(c) {
			return t.reply(c, bestKW, best), true
		}
	}
	return KeywordMatch{}, false
}

func (t *KeywordTable) longThresholdFor(c KeywordCategory) float64 {
	switch {
	case t.longThreshold > 0:
		return t.longThreshold
	case c.Threshold > 0:
		return c.Threshold
	}
	return t.threshold
}

func (t *KeywordTable) reply(c KeywordCategory, kw string, score float64) KeywordMatch {
	return KeywordMatch{
		Category: c.ID,
		Keyword:  kw,
		Score:    score,
		Response: c.Responses[t.pick(len(c.Responses))],
	}
}

// Similarity scores two strings in [0,1]: 1 when equal, the length ratio
// when one contains the other, otherwise the share of the shorter string's
// characters found anywhere in the longer one. Lengths count runes.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(long) == 0 {
		return 0
	}
	if strings.Contains(string(long), string(short)) {
		return float64(len(short)) / float64(len(long))
	}
	present := make(map[rune]bool, len(long))
	for _, r := range long {
		present[r] = true
	}
	common := 0
	for _, r := range short {
		if present[r] {
			common++
		}
	}
	return float64(common) / float64(len(long))
}

// NullKeywordMatcher never matches.
type NullKeywordMatcher struct{}

func (NullKeywordMatcher) Match(string) (KeywordMatch, bool) { return KeywordMatch{}, false }
