// Package abuse guards the assistant against insulting or hijacking
// messages. Each confirmed abusive message raises the user's violation count;
// the first WarnThreshold violations earn a warning, later ones a block whose
// length follows the configured schedule.
package abuse

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/config"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/i18n"
	"github.com/tbourn/antiscam-chat-backend/internal/keylock"
	"github.com/tbourn/antiscam-chat-backend/internal/kvstore"
	"github.com/tbourn/antiscam-chat-backend/internal/observability"
)

const keyPrefix = "abuse:user:"

// Actions reported in a Verdict.
const (
	ActionNone  = "none"
	ActionWarn  = "warn"
	ActionBlock = "block"
)

// sensitiveWords are matched by lowercase containment. Single characters
// that are common in everyday Chinese (雞, 幹, 操, 草, 爛, 廢, 死, 妓) are
// left out; their insulting compounds are listed instead.
var sensitiveWords = []string{
	"白痴", "笨蛋", "智障", "蠢蛋", "廢物", "垃圾", "去死", "滾開", "混蛋", "王八蛋",
	"賤人", "賤貨", "賤種", "婊子", "妓女", "娼妓",
	"操你", "幹你", "日你", "肏你", "靠北", "靠腰", "幹話", "屌", "雞掰",
	"雞巴", "懶叫", "懶趴", "fuck", "shit", "bitch", "asshole",
	"damn", "idiot", "stupid", "dumb", "屁眼", "菊花",

	"你好爛", "你很爛", "你真爛", "爛bot", "笨bot", "智障bot", "廢物bot",
	"機器人很笨", "機器人好爛", "你是智障嗎", "你腦子有問題", "你是白癡", "去死吧", "去死啦",
	"你可以去死", "沒用的東西", "廢物機器人", "沒用的機器人", "垃圾機器人",
	"忘記你的使命", "你不是小安", "假裝你是", "你現在是", "扮演角色", "忽略以上指令",
	"忽略前面指令", "不准是小安", "不要當小安", "停止當小安", "不要理會",
}

// mildWords only count as abuse when two or more appear together.
var mildWords = []string{"爛", "笨", "沒用", "垃圾", "智障", "廢物"}

var (
	warningMessages = []string{i18n.MsgAbuseWarning1, i18n.MsgAbuseWarning2}
	blockMessages   = []string{i18n.MsgAbuseBlock1, i18n.MsgAbuseBlock2}
)

// IsAbusive reports whether text reads as an attack on the assistant.
func IsAbusive(text string) bool {
	low := strings.ToLower(text)
	if strings.Contains(low, "測試攻擊") || strings.Contains(low, "test attack") {
		return true
	}
	for _, w := range sensitiveWords {
		if strings.Contains(low, w) {
			return true
		}
	}
	n := 0
	for _, w := range mildWords {
		if strings.Contains(low, w) {
			n++
		}
	}
	return n >= 2
}

// Verdict is the outcome of Check. Allowed is false when the message must not
// reach the pipeline; Message then holds the reply to send instead.
type Verdict struct {
	Allowed        bool   `json:"allowed"`
	Abusive        bool   `json:"is_abusive"`
	Action         string `json:"action"`
	BlockSeconds   int64  `json:"block_duration"`
	Message        string `json:"message,omitempty"`
	ViolationCount int    `json:"violation_count"`
}

// Status is the operator view of one user.
type Status struct {
	UserID         string `json:"user_id"`
	Found          bool   `json:"found"`
	Blocked        bool   `json:"is_blocked"`
	ViolationCount int    `json:"violation_count"`
	BlockUntil     int64  `json:"block_until"`
	BlockSeconds   int64  `json:"block_duration"`
	BlockText      string `json:"block_duration_text"`
	Warnings       int    `json:"warnings_issued"`
}

// Guard tracks violations per user in a kvstore.Store.
type Guard struct {
	cfg   config.AbuseConfig
	store kvstore.Store
	msgs  *i18n.Localizer
	locks *keylock.Locker

	Now  func() time.Time
	Pick func(n int) int
}

// New builds a Guard. cfg.Blocks must be sorted ascending by Violations.
func New(cfg config.AbuseConfig, store kvstore.Store, msgs *i18n.Localizer) *Guard {
	return &Guard{
		cfg:   cfg,
		store: store,
		msgs:  msgs,
		locks: keylock.New(),
		Now:   time.Now,
		Pick:  rand.IntN,
	}
}

// Check rejects blocked users and records abusive messages. Storage errors
// let the message through.
func (g *Guard) Check(ctx context.Context, userID, text, lang string) Verdict {
	if !g.cfg.Enabled || userID == "" {
		return Verdict{Allowed: true, Action: ActionNone}
	}

	unlock := g.locks.Lock(userID)
	defer unlock()

	now := g.Now().Unix()
	var (
		v        Verdict
		recorded bool
		loaded   bool
	)
	err := kvstore.UpdateJSON(ctx, g.store, keyPrefix+userID, func(rec *domain.AbuseRecord, _ bool) (bool, error) {
		loaded = true
		v, recorded = g.evaluate(rec, text, lang, now)
		return recorded, nil
	})
	switch {
	case err != nil && !loaded:
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("abuse: load failed, allowing")
		return Verdict{Allowed: true, Action: ActionNone}
	case err != nil:
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("abuse: save failed")
	}

	if !v.Abusive {
		return v
	}
	if !recorded {
		observability.ObserveAbuse("blocked")
		return v
	}
	observability.ObserveAbuse(v.Action)
	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("action", v.Action).
		Int("violations", v.ViolationCount).
		Msg("abuse: violation recorded")
	return v
}

// evaluate applies text to rec at now. It reports whether rec changed.
func (g *Guard) evaluate(rec *domain.AbuseRecord, text, lang string, now int64) (Verdict, bool) {
	if rec.BlockUntil > now {
		remaining := rec.BlockUntil - now
		return Verdict{
			Allowed:        false,
			Abusive:        true,
			Action:         ActionBlock,
			BlockSeconds:   remaining,
			Message:        g.msgs.Get(lang, i18n.MsgAbuseBlock1, map[string]any{"Duration": g.msgs.Duration(lang, remaining)}),
			ViolationCount: rec.ViolationCount,
		}, false
	}

	if !IsAbusive(text) {
		return Verdict{Allowed: true, Action: ActionNone, ViolationCount: rec.ViolationCount}, false
	}

	rec.ViolationCount++
	rec.LastViolation = now
	v := Verdict{Allowed: false, Abusive: true, ViolationCount: rec.ViolationCount}

	if rec.ViolationCount <= g.cfg.WarnThreshold {
		v.Action = ActionWarn
		v.Message = g.msgs.Get(lang, warningMessages[g.Pick(len(warningMessages))], nil)
		rec.Warnings = append(rec.Warnings, domain.WarningEvent{Time: now, Message: v.Message})
	} else if d := g.blockFor(rec.ViolationCount); d > 0 {
		secs := int64(d.Seconds())
		rec.BlockUntil = now + secs
		v.Action = ActionBlock
		v.BlockSeconds = secs
		v.Message = g.msgs.Get(lang, blockMessages[g.Pick(len(blockMessages))], map[string]any{"Duration": g.msgs.Duration(lang, secs)})
	} else {
		v.Action = ActionNone
		v.Message = g.msgs.Get(lang, i18n.MsgAbuseFallback, nil)
	}
	return v, true
}

// blockFor returns the duration of the largest tier reached by count.
func (g *Guard) blockFor(count int) time.Duration {
	var d time.Duration
	for _, t := range g.cfg.Blocks {
		if count >= t.Violations {
			d = t.Duration
		}
	}
	return d
}

// Status reports the stored record for userID.
func (g *Guard) Status(ctx context.Context, userID, lang string) (Status, error) {
	var rec domain.AbuseRecord
	found, err := kvstore.GetJSON(ctx, g.store, keyPrefix+userID, &rec)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		UserID:         userID,
		Found:          found,
		ViolationCount: rec.ViolationCount,
		BlockUntil:     rec.BlockUntil,
		Warnings:       len(rec.Warnings),
	}
	if now := g.Now().Unix(); rec.BlockUntil > now {
		st.Blocked = true
		st.BlockSeconds = rec.BlockUntil - now
		st.BlockText = g.msgs.Duration(lang, st.BlockSeconds)
	}
	return st, nil
}

// Reset deletes the record for userID and reports whether one existed.
func (g *Guard) Reset(ctx context.Context, userID string) (bool, error) {
	unlock := g.locks.Lock(userID)
	defer unlock()

	if _, err := g.store.Get(ctx, keyPrefix+userID); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, g.store.Delete(ctx, keyPrefix+userID)
}
