// Package i18n holds the user-facing canned strings (limit notices, abuse
// warnings, fallbacks) in an embedded go-i18n bundle with zh-TW as the
// default language and an English translation.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/tbourn/antiscam-chat-backend/internal/utils"
)

//go:embed locales/*.json
var localeFS embed.FS

// Supported language keys.
const (
	LangZH = "zh-TW"
	LangEN = "en"
)

// Message IDs
const (
	MsgUsageSession1  = "usage_session_1"
	MsgUsageSession2  = "usage_session_2"
	MsgUsageSession3  = "usage_session_3"
	MsgUsageGlobal1   = "usage_global_1"
	MsgUsageGlobal2   = "usage_global_2"
	MsgUsageFallback  = "usage_fallback"
	MsgAbuseWarning1  = "abuse_warning_1"
	MsgAbuseWarning2  = "abuse_warning_2"
	MsgAbuseBlock1    = "abuse_block_1"
	MsgAbuseBlock2    = "abuse_block_2"
	MsgAbuseFallback  = "abuse_fallback"
	MsgCodeDetected   = "guard_code_detected"
	MsgReplyFallback  = "reply_fallback"
	MsgReplyClarify   = "reply_clarify"
	MsgReplyGreeting  = "reply_greeting"
	MsgSpecialDefault = "special_default"
	MsgSafetyRejected = "safety_rejected"
)

// Localizer renders message IDs for a language, falling back to the default
// language and finally to the ID itself.
type Localizer struct {
	defaultLang string
	localizers  map[string]*goi18n.Localizer
}

// New loads the embedded locale files. defaultLang must be LangZH or LangEN.
func New(defaultLang string) (*Localizer, error) {
	bundle := goi18n.NewBundle(language.MustParse(LangZH))
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		buf, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(buf, e.Name()); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
	}

	l := &Localizer{
		defaultLang: defaultLang,
		localizers:  make(map[string]*goi18n.Localizer, 2),
	}
	for _, lang := range []string{LangZH, LangEN} {
		l.localizers[lang] = goi18n.NewLocalizer(bundle, lang)
	}
	if _, ok := l.localizers[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: unsupported default language %q", defaultLang)
	}
	return l, nil
}

// MustNew is New for package-level defaults and tests.
func MustNew(defaultLang string) *Localizer {
	l, err := New(defaultLang)
	if err != nil {
		panic(err)
	}
	return l
}

// Normalize maps loose language hints ("zh", "zh-tw", "en-US") onto the
// supported keys; anything unknown becomes the default language.
func (l *Localizer) Normalize(lang string) string {
	low := strings.ToLower(strings.TrimSpace(lang))
	switch {
	case strings.HasPrefix(low, "en"):
		return LangEN
	case strings.HasPrefix(low, "zh"):
		return LangZH
	default:
		return l.defaultLang
	}
}

// Default returns the configured default language.
func (l *Localizer) Default() string { return l.defaultLang }

// Get returns the localized message.
func (l *Localizer) Get(lang, messageID string, data map[string]any) string {
	loc, ok := l.localizers[l.Normalize(lang)]
	if !ok {
		loc = l.localizers[l.defaultLang]
	}
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// Duration renders a number of seconds in the given language. The Chinese
// rendering is utils.FormatDuration.
func (l *Localizer) Duration(lang string, seconds int64) string {
	if l.Normalize(lang) != LangEN {
		return utils.FormatDuration(seconds)
	}
	unit := func(n int64, word string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	}
	switch {
	case seconds < 60:
		return unit(seconds, "second")
	case seconds < 3600:
		return unit(seconds/60, "minute")
	case seconds < 86400:
		return unit(seconds/3600, "hour")
	default:
		return unit(seconds/86400, "day")
	}
}
