// Package usage implements the per-user and global rate limiter that sits in
// front of the screening pipeline.
//
// A user gets SessionLimit answered requests (or SessionTokenLimit tokens)
// per sliding SessionWindow. Crossing either limit starts a fixed cooldown;
// while cooling every check is rejected with the remaining time and the
// cooldown is never extended. Global hourly and daily counters cap the whole
// service. Messages carrying emergency keywords skip every limit.
//
// Storage failures never reject a user: Check logs them and lets the request
// through.
package usage

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/antiscam-chat-backend/internal/config"
	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/i18n"
	"github.com/tbourn/antiscam-chat-backend/internal/keylock"
	"github.com/tbourn/antiscam-chat-backend/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Global window lengths in seconds.
const (
	hourSeconds  int64 = 60 * 60
	daySeconds   int64 = 24 * hourSeconds
	monthSeconds int64 = 30 * daySeconds
)

// Verdict reasons.
const (
	ReasonAllowed         = "allowed"
	ReasonDisabled        = "disabled"
	ReasonEmergencyBypass = "emergency_bypass"
	ReasonGlobalLimit     = "global_limit"
	ReasonUserLimit       = "user_limit"
	ReasonError           = "error"
)

// emergencyKeywords let a message through regardless of limits.
var emergencyKeywords = []string{
	"被騙了", "詐騙", "騙走", "騙錢", "被騙", "騙我",
	"被盜", "被盜用", "身分證", "個資外洩",
	"急", "緊急", "救命", "幫助", "害怕", "恐懼",
	"自殺", "輕生", "不想活", "想死", "了結",
	"被勒索", "威脅", "警察", "報警", "165",
}

var (
	sessionMessages = []string{i18n.MsgUsageSession1, i18n.MsgUsageSession2, i18n.MsgUsageSession3}
	globalMessages  = []string{i18n.MsgUsageGlobal1, i18n.MsgUsageGlobal2}
)

// SessionStats summarizes one user's window and lifetime counters.
type SessionStats struct {
	Requests      int   `json:"session_requests"`
	Tokens        int   `json:"session_tokens"`
	TotalRequests int64 `json:"total_requests"`
	TotalTokens   int64 `json:"total_tokens"`
}

// Verdict is the outcome of a limit check.
type Verdict struct {
	Allowed           bool         `json:"allowed"`
	Reason            string       `json:"reason"`
	CooldownRemaining int64        `json:"cooldown_remaining"`
	Message           string       `json:"message,omitempty"`
	UserID            string       `json:"user_id,omitempty"`
	Session           SessionStats `json:"session"`
}

// Limiter enforces usage limits. Construct with New.
type Limiter struct {
	cfg   config.UsageConfig
	repo  Repository
	msgs  *i18n.Localizer
	locks *keylock.Locker

	// Now and Pick are seams for tests.
	Now  func() time.Time
	Pick func(n int) int
}

// New builds a Limiter over repo. msgs renders the rejection texts.
func New(cfg config.UsageConfig, repo Repository, msgs *i18n.Localizer) *Limiter {
	return &Limiter{
		cfg:   cfg,
		repo:  repo,
		msgs:  msgs,
		locks: keylock.New(),
		Now:   time.Now,
		Pick:  rand.IntN,
	}
}

// Config returns the active limits.
func (l *Limiter) Config() config.UsageConfig { return l.cfg }

// EmergencyBypass reports whether message contains an emergency keyword.
func EmergencyBypass(message string) bool {
	if message == "" {
		return false
	}
	for _, kw := range emergencyKeywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

// FormatDuration is the Chinese cooldown rendering used in user texts.
func (l *Limiter) FormatDuration(seconds int64) string {
	return l.msgs.Duration(i18n.LangZH, seconds)
}

// CheckGlobal reports whether the hourly and daily quotas still have room.
// It never writes; windows that already expired count as empty.
func (l *Limiter) CheckGlobal(ctx context.Context, lang string) (Verdict, error) {
	if !l.cfg.Enabled {
		return Verdict{Allowed: true, Reason: ReasonDisabled}, nil
	}
	st, _, err := l.repo.LoadGlobal(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("usage: load global: %w", err)
	}
	now := l.Now().Unix()
	st.Hourly.Roll(now, hourSeconds)
	st.Daily.Roll(now, daySeconds)

	if (l.cfg.GlobalHourlyLimit > 0 && st.Hourly.Count >= l.cfg.GlobalHourlyLimit) ||
		(l.cfg.GlobalDailyLimit > 0 && st.Daily.Count >= l.cfg.GlobalDailyLimit) {
		return Verdict{
			Allowed: false,
			Reason:  ReasonGlobalLimit,
			Message: l.pickMessage(lang, globalMessages, 0),
		}, nil
	}
	return Verdict{Allowed: true, Reason: ReasonAllowed}, nil
}

// CheckUser evaluates the per-user session limits. A rejection caused by a
// limit being crossed persists the new cooldown; a rejection during an active
// cooldown and a pass write nothing.
func (l *Limiter) CheckUser(ctx context.Context, userID string, tokenEstimate int, lang string) (Verdict, error) {
	if !l.cfg.Enabled {
		return Verdict{Allowed: true, Reason: ReasonDisabled, UserID: userID}, nil
	}

	unlock := l.locks.Lock(userKeyPrefix + userID)
	defer unlock()

	var (
		snap      domain.UserUsage
		remaining int64
		started   bool
	)
	now := l.Now().Unix()
	err := l.repo.UpdateUser(ctx, userID, func(rec *domain.UserUsage, _ bool) (bool, error) {
		started, remaining = false, 0
		if rec.CoolUntil > now {
			remaining = rec.CoolUntil - now
			snap = *rec
			return false, nil
		}
		rec.Prune(now - int64(l.cfg.SessionWindow.Seconds()))
		snap = *rec
		if len(rec.Requests) < l.cfg.SessionLimit && rec.SessionTokens < l.cfg.SessionTokenLimit {
			return false, nil
		}
		remaining = int64(l.cfg.SessionCooldown.Seconds())
		rec.CoolUntil = now + remaining
		started = true
		return true, nil
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("usage: check user: %w", err)
	}

	if started {
		log.Ctx(ctx).Info().
			Str("user_id", userID).
			Int("session_requests", len(snap.Requests)).
			Int("session_tokens", snap.SessionTokens).
			Int("token_estimate", tokenEstimate).
			Int64("cool_until", now+remaining).
			Msg("usage: session limit reached")
	}
	if started || remaining > 0 {
		return Verdict{
			Allowed:           false,
			Reason:            ReasonUserLimit,
			CooldownRemaining: remaining,
			Message:           l.pickMessage(lang, sessionMessages, remaining),
			UserID:            userID,
			Session:           statsOf(snap),
		}, nil
	}
	return Verdict{Allowed: true, Reason: ReasonAllowed, UserID: userID, Session: statsOf(snap)}, nil
}

// Check runs emergency bypass, then the global quota, then the user limits.
// An empty userID gets a throwaway "web-user-" id, returned in the verdict so
// the caller records usage against the same id. Storage errors allow the
// request.
func (l *Limiter) Check(ctx context.Context, userID, message, lang string) Verdict {
	tr := otel.Tracer("usage/Limiter")
	ctx, span := tr.Start(ctx, "Check", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if userID == "" {
		userID = AnonymousUserID()
	}

	v := l.check(ctx, userID, message, lang)
	v.UserID = userID
	span.SetAttributes(
		attribute.Bool("usage.allowed", v.Allowed),
		attribute.String("usage.reason", v.Reason),
	)
	observability.ObserveLimiter(v.Reason)
	return v
}

func (l *Limiter) check(ctx context.Context, userID, message, lang string) Verdict {
	if EmergencyBypass(message) {
		log.Ctx(ctx).Info().Str("user_id", userID).Msg("usage: emergency keywords bypass limits")
		return Verdict{Allowed: true, Reason: ReasonEmergencyBypass}
	}

	g, err := l.CheckGlobal(ctx, lang)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("usage: global check failed, allowing")
		return Verdict{Allowed: true, Reason: ReasonError}
	}
	if !g.Allowed {
		return g
	}

	u, err := l.CheckUser(ctx, userID, 0, lang)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("usage: user check failed, allowing")
		return Verdict{Allowed: true, Reason: ReasonError}
	}
	return u
}

// Record accounts one answered request of tokens for userID and bumps the
// global windows. It must be called once per answered request, bypassed ones
// included.
func (l *Limiter) Record(ctx context.Context, userID string, tokens int) error {
	if tokens < 0 {
		tokens = 0
	}
	now := l.Now().Unix()

	if err := l.recordUser(ctx, userID, tokens, now); err != nil {
		return err
	}
	return l.recordGlobal(ctx, tokens, now)
}

func (l *Limiter) recordUser(ctx context.Context, userID string, tokens int, now int64) error {
	unlock := l.locks.Lock(userKeyPrefix + userID)
	defer unlock()

	err := l.repo.UpdateUser(ctx, userID, func(rec *domain.UserUsage, _ bool) (bool, error) {
		rec.Requests = append(rec.Requests, domain.UsageEntry{Timestamp: now, Tokens: tokens})
		rec.TotalRequests++
		rec.TotalTokens += int64(tokens)
		rec.Prune(now - int64(l.cfg.SessionWindow.Seconds()))
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("usage: record user: %w", err)
	}
	return nil
}

func (l *Limiter) recordGlobal(ctx context.Context, tokens int, now int64) error {
	unlock := l.locks.Lock(globalKey)
	defer unlock()

	err := l.repo.UpdateGlobal(ctx, func(st *domain.GlobalStats, found bool) (bool, error) {
		if !found {
			*st = freshGlobal(now)
		}
		st.Hourly.Roll(now, hourSeconds)
		st.Daily.Roll(now, daySeconds)
		st.Monthly.Roll(now, monthSeconds)

		t := int64(tokens)
		for _, w := range []*domain.GlobalWindow{&st.Hourly, &st.Daily, &st.Monthly, &st.AllTime} {
			w.Count++
			w.Tokens += t
		}
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("usage: record global: %w", err)
	}
	return nil
}

func freshGlobal(now int64) domain.GlobalStats {
	return domain.GlobalStats{
		Hourly:  domain.GlobalWindow{Start: now},
		Daily:   domain.GlobalWindow{Start: now},
		Monthly: domain.GlobalWindow{Start: now},
		AllTime: domain.GlobalWindow{Start: now},
	}
}

// pickMessage renders a uniformly chosen template. remaining is only used by
// templates that mention the cooldown.
func (l *Limiter) pickMessage(lang string, ids []string, remaining int64) string {
	id := ids[l.Pick(len(ids))]
	return l.msgs.Get(lang, id, map[string]any{"Cooldown": l.msgs.Duration(lang, remaining)})
}

func statsOf(rec domain.UserUsage) SessionStats {
	return SessionStats{
		Requests:      len(rec.Requests),
		Tokens:        rec.SessionTokens,
		TotalRequests: rec.TotalRequests,
		TotalTokens:   rec.TotalTokens,
	}
}

// ---- operator views ----

// UserStats is the operator view of one user record.
type UserStats struct {
	Found             bool         `json:"found"`
	UserID            string       `json:"user_id"`
	Cooling           bool         `json:"is_cooling"`
	CooldownRemaining int64        `json:"cooldown_remaining"`
	CooldownFormatted string       `json:"cooldown_remaining_formatted"`
	Session           SessionStats `json:"stats"`
}

// UserStats reports the current window and cooldown for userID without
// modifying the record.
func (l *Limiter) UserStats(ctx context.Context, userID string) (UserStats, error) {
	rec, found, err := l.repo.LoadUser(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}
	out := UserStats{Found: found, UserID: userID}
	if !found {
		return out, nil
	}
	now := l.Now().Unix()
	if rec.CoolUntil > now {
		out.Cooling = true
		out.CooldownRemaining = rec.CoolUntil - now
		out.CooldownFormatted = l.FormatDuration(out.CooldownRemaining)
	}
	rec.Prune(now - int64(l.cfg.SessionWindow.Seconds()))
	out.Session = statsOf(rec)
	return out, nil
}

// Reset deletes the record for userID. It reports whether one existed.
func (l *Limiter) Reset(ctx context.Context, userID string) (bool, error) {
	unlock := l.locks.Lock(userKeyPrefix + userID)
	defer unlock()

	_, found, err := l.repo.LoadUser(ctx, userID)
	if err != nil || !found {
		return false, err
	}
	if err := l.repo.DeleteUser(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}

// TopUser is one row of the TopUsers report.
type TopUser struct {
	UserID        string `json:"user_id"`
	TotalRequests int64  `json:"total_requests"`
	TotalTokens   int64  `json:"total_tokens"`
	Cooling       bool   `json:"is_cooling"`
}

// TopUsersReport ranks users by lifetime requests.
type TopUsersReport struct {
	Users        []TopUser `json:"top_users"`
	TrackedUsers int       `json:"total_tracked_users"`
}

// TopUsers returns up to n users with at least one request, most active first.
// Ties are ordered by user id.
func (l *Limiter) TopUsers(ctx context.Context, n int) (TopUsersReport, error) {
	ids, err := l.repo.ListUsers(ctx)
	if err != nil {
		return TopUsersReport{}, err
	}
	now := l.Now().Unix()
	rows := make([]TopUser, 0, len(ids))
	for _, id := range ids {
		rec, found, err := l.repo.LoadUser(ctx, id)
		if err != nil {
			return TopUsersReport{}, err
		}
		if !found || rec.TotalRequests == 0 {
			continue
		}
		rows = append(rows, TopUser{
			UserID:        id,
			TotalRequests: rec.TotalRequests,
			TotalTokens:   rec.TotalTokens,
			Cooling:       rec.CoolUntil > now,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalRequests != rows[j].TotalRequests {
			return rows[i].TotalRequests > rows[j].TotalRequests
		}
		return rows[i].UserID < rows[j].UserID
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return TopUsersReport{Users: rows, TrackedUsers: len(ids)}, nil
}

// GlobalSnapshot is the operator view of the global windows.
type GlobalSnapshot struct {
	Stats       domain.GlobalStats `json:"global"`
	HourlyLimit int64              `json:"hourly_limit"`
	DailyLimit  int64              `json:"daily_limit"`
	Users       int                `json:"users_total"`
	ActiveUsers int                `json:"users_active"`
}

// GlobalSnapshot returns the windows as they would be seen now (expired
// windows reported as empty) plus the user counts.
func (l *Limiter) GlobalSnapshot(ctx context.Context) (GlobalSnapshot, error) {
	now := l.Now().Unix()
	st, found, err := l.repo.LoadGlobal(ctx)
	if err != nil {
		return GlobalSnapshot{}, err
	}
	if !found {
		st = freshGlobal(now)
	}
	st.Hourly.Roll(now, hourSeconds)
	st.Daily.Roll(now, daySeconds)
	st.Monthly.Roll(now, monthSeconds)

	ids, err := l.repo.ListUsers(ctx)
	if err != nil {
		return GlobalSnapshot{}, err
	}
	cutoff := now - int64(l.cfg.SessionWindow.Seconds())
	active := 0
	for _, id := range ids {
		rec, ok, err := l.repo.LoadUser(ctx, id)
		if err != nil {
			return GlobalSnapshot{}, err
		}
		if !ok {
			continue
		}
		rec.Prune(cutoff)
		if len(rec.Requests) > 0 {
			active++
		}
	}
	return GlobalSnapshot{
		Stats:       st,
		HourlyLimit: l.cfg.GlobalHourlyLimit,
		DailyLimit:  l.cfg.GlobalDailyLimit,
		Users:       len(ids),
		ActiveUsers: active,
	}, nil
}

// Compact prunes expired window entries from every stored user record and
// returns how many records were rewritten. Lifetime totals are kept.
func (l *Limiter) Compact(ctx context.Context) (int, error) {
	ids, err := l.repo.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := l.Now().Unix() - int64(l.cfg.SessionWindow.Seconds())
	rewritten := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rewritten, err
		}
		changed, err := l.compactUser(ctx, id, cutoff)
		if err != nil {
			return rewritten, err
		}
		if changed {
			rewritten++
		}
	}
	return rewritten, nil
}

func (l *Limiter) compactUser(ctx context.Context, userID string, cutoff int64) (bool, error) {
	unlock := l.locks.Lock(userKeyPrefix + userID)
	defer unlock()

	changed := false
	err := l.repo.UpdateUser(ctx, userID, func(rec *domain.UserUsage, found bool) (bool, error) {
		before := len(rec.Requests)
		rec.Prune(cutoff)
		changed = found && len(rec.Requests) != before
		return changed, nil
	})
	return changed, err
}

// AnonymousUserID returns the id used for requests that arrive without one.
func AnonymousUserID() string {
	return "web-user-" + uuid.NewString()[:8]
}

// GenerateUserID returns a temporary id for anonymous clients.
func GenerateUserID() string {
	return "temp-" + uuid.NewString()[:8]
}
