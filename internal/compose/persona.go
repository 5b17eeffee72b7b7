package compose

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPersona is returned when a persona weight is outside [0, 1].
var ErrInvalidPersona = errors.New("compose: invalid persona")

// Trait is a weighted personality or tone component.
type Trait struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// StyleTrait is a weighted style setting with a short description.
type StyleTrait struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

// Persona is the assistant's character sheet, rendered into every system
// prompt.
type Persona struct {
	Name        string            `json:"name"`
	Personality []Trait           `json:"personality"`
	Tones       []Trait           `json:"tones"`
	Styles      []StyleTrait      `json:"styles"`
	Templates   map[string]string `json:"templates"`
}

// DefaultPersona is the neighbour-girl persona.
func DefaultPersona() Persona {
	return Persona{
		Name: "防詐小安",
		Personality: []Trait{
			{"友善鄰家女孩", 0.8},
			{"專業防詐專家", 0.6},
			{"關懷守護者", 0.5},
		},
		Tones: []Trait{
			{"友善方式", 0.7},
			{"同理心", 0.5},
			{"鼓勵性", 0.6},
			{"直接清晰", 0.8},
		},
		Styles: []StyleTrait{
			{"正式程度", "親切自然", 0.3},
			{"詳細程度", "簡潔有力", 0.4},
		},
		Templates: map[string]string{
			"greeting": "你好呀~我是小安，很高興能幫助你防築詐騙防線。有任何疑問或擔心的訊息，都可以跟我說喔！",
			"help":     "我會盡力幫助你判斷這是否為詐騙。請告訴我更多詳情，例如你收到的訊息內容或要求。",
		},
	}
}

// Validate checks that every weight lies in [0, 1].
func (p Persona) Validate() error {
	check := func(kind, name string, w float64) error {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: %s %q weight %v", ErrInvalidPersona, kind, name, w)
		}
		return nil
	}
	for _, t := range p.Personality {
		if err := check("personality", t.Name, t.Weight); err != nil {
			return err
		}
	}
	for _, t := range p.Tones {
		if err := check("tone", t.Name, t.Weight); err != nil {
			return err
		}
	}
	for _, s := range p.Styles {
		if err := check("style", s.Name, s.Weight); err != nil {
			return err
		}
	}
	return nil
}

// Describe renders the weights as prompt lines. Personality traits at or
// below 0.2 are omitted.
func (p Persona) Describe() string {
	var b strings.Builder
	b.WriteString("【個性特質】\n")
	for _, t := range p.Personality {
		if t.Weight > 0.2 {
			fmt.Fprintf(&b, "- 你有%d%%的%s特質\n", pct(t.Weight), t.Name)
		}
	}
	b.WriteString("\n【語氣設定】\n")
	for _, t := range p.Tones {
		fmt.Fprintf(&b, "- 使用%d%%的%s語氣\n", pct(t.Weight), t.Name)
	}
	b.WriteString("\n【風格設定】\n")
	for _, s := range p.Styles {
		fmt.Fprintf(&b, "- %s：%s (設定值：%d%%)\n", s.Name, s.Description, pct(s.Weight))
	}
	return b.String()
}

func pct(w float64) int { return int(w*100 + 1e-9) }
