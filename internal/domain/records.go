package domain

// Role values for ChatTurn and Turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is a single history entry handed to the screening pipeline.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UsageEntry is one answered request inside a user's session window.
type UsageEntry struct {
	Timestamp int64 `json:"timestamp"`
	Tokens    int   `json:"tokens"`
}

// UserUsage is the per-user rate limit record.
//
// Requests only holds entries newer than the session window after a prune.
// CoolUntil is zero or an absolute unix timestamp.
type UserUsage struct {
	Requests      []UsageEntry `json:"requests"`
	SessionTokens int          `json:"tokens"`
	TotalRequests int64        `json:"total_requests"`
	TotalTokens   int64        `json:"total_tokens"`
	CoolUntil     int64        `json:"cool_until"`
}

// Prune drops entries at or before cutoff and recomputes SessionTokens.
func (u *UserUsage) Prune(cutoff int64) {
	kept := u.Requests[:0]
	tokens := 0
	for _, e := range u.Requests {
		if e.Timestamp > cutoff {
			kept = append(kept, e)
			tokens += e.Tokens
		}
	}
	u.Requests = kept
	u.SessionTokens = tokens
}

// WarningEvent is an abuse warning issued to a user.
type WarningEvent struct {
	Time    int64  `json:"time"`
	Message string `json:"message"`
}

// AbuseRecord tracks confirmed abusive messages for one user.
type AbuseRecord struct {
	ViolationCount int            `json:"violation_count"`
	LastViolation  int64          `json:"last_violation"`
	BlockUntil     int64          `json:"block_until"`
	Warnings       []WarningEvent `json:"warnings_issued"`
}

// GlobalWindow is a self-resetting counter window.
type GlobalWindow struct {
	Count  int64 `json:"count"`
	Tokens int64 `json:"tokens"`
	Start  int64 `json:"timestamp"`
}

// Roll resets the window when it started more than length seconds before now.
// A zero length never resets.
func (w *GlobalWindow) Roll(now, length int64) {
	if length > 0 && now-w.Start > length {
		w.Count = 0
		w.Tokens = 0
		w.Start = now
	}
}

// GlobalStats is the process-wide usage singleton.
type GlobalStats struct {
	Hourly  GlobalWindow `json:"hourly"`
	Daily   GlobalWindow `json:"daily"`
	Monthly GlobalWindow `json:"monthly"`
	AllTime GlobalWindow `json:"all_time"`
}
