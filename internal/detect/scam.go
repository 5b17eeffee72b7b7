package detect

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Category is a named group of scam patterns.
type Category struct {
	ID          string
	Name        string
	Description string
	Patterns    []string

	res []*regexp.Regexp
}

// ScamType is a scam family recognised by the set of categories it relies on.
type ScamType struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Advice      []string `json:"advice"`
	Indicators  []string `json:"indicators,omitempty"`
}

// ScamInfo is the selected scam type plus how well the message fits it.
type ScamInfo struct {
	ScamType
	Confidence float64 `json:"confidence_score"`
}

// Indicator is one matched category with the distinct strings it matched.
type Indicator struct {
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Matches     []string `json:"matches"`
}

// ScamResult is the classifier output.
type ScamResult struct {
	IsScam     bool        `json:"is_scam"`
	Info       *ScamInfo   `json:"scam_info,omitempty"`
	Indicators []Indicator `json:"indicators"`
	Confidence float64     `json:"confidence"`
}

// Categories returns the matched category ids in evaluation order.
func (r ScamResult) Categories() []string {
	out := make([]string, 0, len(r.Indicators))
	for _, ind := range r.Indicators {
		out = append(out, ind.CategoryID)
	}
	return out
}

// MatchCount is the number of distinct matched strings over all categories.
func (r ScamResult) MatchCount() int {
	n := 0
	for _, ind := range r.Indicators {
		n += len(ind.Matches)
	}
	return n
}

// ScamDetector classifies a single message.
type ScamDetector interface {
	Detect(text string) ScamResult
}

// ScamClassifier is the rule-table ScamDetector. It is safe for concurrent
// use; the tables are read-only after construction.
type ScamClassifier struct {
	categories []Category
	types      []ScamType
}

// NewScamClassifier compiles the built-in pattern tables.
func NewScamClassifier() *ScamClassifier {
	c, err := NewScamClassifierFrom(defaultCategories, defaultScamTypes)
	if err != nil {
		panic(err)
	}
	return c
}

// NewScamClassifierFrom compiles custom tables. Patterns match
// case-insensitively. types must contain GeneralSuspicious.
func NewScamClassifierFrom(categories []Category, types []ScamType) (*ScamClassifier, error) {
	cats := make([]Category, len(categories))
	for i, c := range categories {
		c.res = make([]*regexp.Regexp, 0, len(c.Patterns))
		for _, p := range c.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("detect: category %s: %w", c.ID, err)
			}
			c.res = append(c.res, re)
		}
		cats[i] = c
	}
	found := false
	for _, t := range types {
		if t.ID == GeneralSuspicious {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("detect: scam types must include %s", GeneralSuspicious)
	}
	return &ScamClassifier{categories: cats, types: types}, nil
}

// Detect scores text against every category. It is deterministic: match
// lists keep first-seen order.
func (c *ScamClassifier) Detect(text string) ScamResult {
	if utf8.RuneCountInString(text) < 5 {
		return ScamResult{}
	}

	var inds []Indicator
	for _, cat := range c.categories {
		var matches []string
		seen := map[string]bool{}
		for _, re := range cat.res {
			for _, m := range re.FindAllString(text, -1) {
				if !seen[m] {
					seen[m] = true
					matches = append(matches, m)
				}
			}
		}
		if len(matches) > 0 {
			inds = append(inds, Indicator{CategoryID: cat.ID, Name: cat.Name, Description: cat.Description, Matches: matches})
		}
	}
	if len(inds) == 0 {
		return ScamResult{}
	}

	conf := c.confidence(inds, utf8.RuneCountInString(text))
	res := ScamResult{Indicators: inds, Confidence: conf, IsScam: conf > 0.2}

	matched := make(map[string]int, len(inds))
	for _, ind := range inds {
		matched[ind.CategoryID] = len(ind.Matches)
	}

	var best *ScamType
	maxScore := 0.0
	for i := range c.types {
		t := &c.types[i]
		if t.ID == GeneralSuspicious {
			continue
		}
		score := 0.0
		for _, ind := range inds {
			if slices.Contains(t.Indicators, ind.CategoryID) {
				score += 1 + min(0.5, 0.1*float64(matched[ind.CategoryID]))
			}
		}
		if score > maxScore {
			maxScore = score
			best = t
		}
	}

	if !res.IsScam {
		return res
	}
	if best == nil || maxScore < 1.5 {
		g := c.scamType(GeneralSuspicious)
		res.Info = &ScamInfo{ScamType: g, Confidence: conf}
		return res
	}
	hit := 0
	for _, id := range best.Indicators {
		if _, ok := matched[id]; ok {
			hit++
		}
	}
	ratio := float64(hit) / float64(len(best.Indicators))
	res.Info = &ScamInfo{ScamType: *best, Confidence: min(1, ratio*0.7+conf*0.3)}
	return res
}

// confidence combines category breadth, category risk, match density and
// message length.
func (c *ScamClassifier) confidence(inds []Indicator, length int) float64 {
	n := float64(len(inds))
	base := min(0.7, n/float64(len(c.categories))*0.7+0.15)

	risk := 0.0
	density := 0.0
	for _, ind := range inds {
		switch {
		case highRiskCategories[ind.CategoryID]:
			risk += 0.12
		case mediumRiskCategories[ind.CategoryID]:
			risk += 0.07
		}
		density += 0.01 * float64(len(ind.Matches))
	}
	risk = min(0.25, risk)
	density = min(0.05, density)

	factor := 1.0
	switch {
	case length < 20:
		factor = 0.5
	case length > 500:
		factor = 0.8
	}
	return clamp01((base + risk + density) * factor)
}

func (c *ScamClassifier) scamType(id string) ScamType {
	for _, t := range c.types {
		if t.ID == id {
			return t
		}
	}
	return ScamType{ID: id}
}

// ScamType returns the table entry for id, falling back to GeneralSuspicious.
func (c *ScamClassifier) ScamType(id string) ScamType {
	if t := c.scamType(id); t.Name != "" {
		return t
	}
	return c.scamType(GeneralSuspicious)
}

// Summary renders a Chinese analysis of res for the /scam/analyze endpoint.
func Summary(res ScamResult) string {
	if !res.IsScam || res.Confidence < 0.2 {
		return "此訊息未顯示明顯的詐騙特徵。但請記住，詐騙手法日益精進，若您對任何訊息感到懷疑，請多加留意。"
	}
	pct := int(res.Confidence * 100)
	level := "高"
	switch {
	case res.Confidence < 0.5:
		level = "低"
	case res.Confidence < 0.75:
		level = "中"
	}

	var b strings.Builder
	if res.Info != nil {
		fmt.Fprintf(&b, "此訊息極有可能是【%s】。風險評估：%s級風險 (%d%%)。\n\n", res.Info.Name, level, pct)
		b.WriteString(res.Info.Description + "\n\n")
	} else {
		fmt.Fprintf(&b, "此訊息顯示可疑特徵，風險評估：%s級風險 (%d%%)。\n\n", level, pct)
	}

	if len(res.Indicators) > 0 {
		b.WriteString("檢測到的可疑元素：\n")
		for i, ind := range res.Indicators {
			if i == 3 {
				fmt.Fprintf(&b, "...以及其他 %d 個可疑元素\n", len(res.Indicators)-3)
				break
			}
			fmt.Fprintf(&b, "%d. %s：%s\n", i+1, ind.Name, ind.Description)
		}
	}

	if res.Info != nil && len(res.Info.Advice) > 0 {
		b.WriteString("\n安全建議：\n")
		for i, a := range res.Info.Advice {
			fmt.Fprintf(&b, "%d. %s\n", i+1, a)
		}
	}
	b.WriteString("\n若您已經提供個人資料或進行轉帳，請立即聯絡相關機構並撥打165防詐騙專線。")
	return b.String()
}

// AlertText is the canned scam warning used when no LLM reply is available.
func AlertText(info *ScamInfo) string {
	if info == nil {
		return "您好！我是防詐小安。有什麼需要我協助的嗎？如果您收到可疑訊息，可以轉發給我來分析。"
	}
	name := info.Name
	if name == "" {
		name = "可疑訊息"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ 警告！這可能是【%s】\n\n%s\n\n安全建議：\n", name, truncateRunes(info.Description, 60))
	for i, a := range info.Advice {
		fmt.Fprintf(&b, "步驟%d: %s\n", i+1, truncateRunes(a, 60))
	}
	b.WriteString("\n如有提供個資或轉帳，請立即聯絡相關機構並撥打165防詐專線。\n\n小安在此陪伴您！")
	return b.String()
}

// AnalyzeImage screens an image by URL. Image content is not inspected, so
// the result is always "no scam detected" with zero confidence.
func AnalyzeImage(string) ScamResult {
	return ScamResult{Indicators: []Indicator{}}
}

// NullScamDetector never reports a scam.
type NullScamDetector struct{}

func (NullScamDetector) Detect(string) ScamResult { return ScamResult{} }
