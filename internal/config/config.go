// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the HTTP server, logging,
// persistence backends, the screening pipeline (usage limits, abuse
// protection, detector selection), the LLM collaborator and observability.
package config

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
	AdminToken string // ADMIN_TOKEN; empty leaves /admin open
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// KVConfig selects the key/value backend for usage and abuse records.
type KVConfig struct {
	Backend       string // memory|redis|sql
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
}

// UsageConfig holds per-user session limits and global quotas.
type UsageConfig struct {
	Enabled           bool
	SessionLimit      int           // requests per window
	SessionTokenLimit int           // tokens per window
	SessionWindow     time.Duration // sliding window length
	SessionCooldown   time.Duration // lockout after a limit is hit
	GlobalHourlyLimit int64
	GlobalDailyLimit  int64
}

// BlockTier maps a violation count to a block duration.
type BlockTier struct {
	Violations int
	Duration   time.Duration
}

// AbuseConfig controls the abusive-language guard.
type AbuseConfig struct {
	Enabled       bool
	WarnThreshold int
	Blocks        []BlockTier // ascending by Violations
}

// DetectorConfig picks real or null detector implementations at startup.
type DetectorConfig struct {
	Mode             string  // real|null (default for every stage)
	Emotion          string  // llm|lexicon|null
	Safety           string  // rules|off
	KeywordEnabled   bool    // KEYWORD_ENABLED
	SpecialEnabled   bool    // SPECIAL_ENABLED
	KeywordThreshold float64 // similarity threshold for short messages
	LongThreshold    float64 // long-message threshold for the function category; 0 uses the category threshold
}

// LLMConfig configures the OpenAI-compatible completion endpoint.
type LLMConfig struct {
	Provider string // openai|none
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 60s; LLM replies are slow
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath          string // SQLite path
	Language        string // zh-TW|en
	MaxMessageRunes int    // inbound message cap
	HistoryTurns    int    // prior turns handed to the pipeline
	LLMOnly         bool   // default for the per-request LLM-only switch

	// Edge rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration

	// Screening
	KV        KVConfig
	Usage     UsageConfig
	Abuse     AbuseConfig
	Detectors DetectorConfig
	LLM       LLMConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	blocks, blocksErr := parseBlocks(getenv("ABUSE_BLOCKS", "2:5m,3:10m,4:1h,5:24h,6:240h"))

	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:          getenv("DB_PATH", "app.db"),
		Language:        getenv("LANGUAGE", "zh-TW"),
		MaxMessageRunes: getint("MAX_MESSAGE_RUNES", 2000),
		HistoryTurns:    getint("HISTORY_TURNS", 10),
		LLMOnly:         getbool("LLM_ONLY", false),

		// Edge rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
			AdminToken: getenv("ADMIN_TOKEN", ""),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		KV: KVConfig{
			Backend:       strings.ToLower(getenv("KV_BACKEND", "sql")),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getint("REDIS_DB", 0),
			Prefix:        getenv("KV_PREFIX", "antiscam:"),
		},
		Usage: UsageConfig{
			Enabled:           getbool("USAGE_ENABLED", true),
			SessionLimit:      getint("USAGE_SESSION_LIMIT", 20),
			SessionTokenLimit: getint("USAGE_SESSION_TOKEN_LIMIT", 10000),
			SessionWindow:     getdur("USAGE_SESSION_WINDOW", time.Hour),
			SessionCooldown:   getdur("USAGE_SESSION_COOLDOWN", 10*time.Minute),
			GlobalHourlyLimit: int64(getint("USAGE_GLOBAL_HOURLY", 1000)),
			GlobalDailyLimit:  int64(getint("USAGE_GLOBAL_DAILY", 10000)),
		},
		Abuse: AbuseConfig{
			Enabled:       getbool("ABUSE_ENABLED", true),
			WarnThreshold: getint("ABUSE_WARN_THRESHOLD", 1),
			Blocks:        blocks,
		},
		Detectors: DetectorConfig{
			Mode:             strings.ToLower(getenv("DETECTORS", "real")),
			Emotion:          strings.ToLower(getenv("EMOTION_ANALYZER", "")),
			Safety:           strings.ToLower(getenv("SAFETY_CHECK", "")),
			KeywordEnabled:   getbool("KEYWORD_ENABLED", true),
			SpecialEnabled:   getbool("SPECIAL_ENABLED", true),
			KeywordThreshold: getfloat("KEYWORD_THRESHOLD", 0.7),
			LongThreshold:    getfloat("KEYWORD_LONG_THRESHOLD", 0),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getenv("LLM_PROVIDER", "openai")),
			BaseURL:  getenv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:   getenv("LLM_API_KEY", ""),
			Model:    getenv("LLM_MODEL", "gpt-4o-mini"),
			Timeout:  getdur("LLM_TIMEOUT", 30*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "antiscam-chat-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.KV.Backend == "sqlite" {
		cfg.KV.Backend = "sql"
	}
	// An unset LLM key means no provider; the pipeline runs on canned text.
	if cfg.LLM.Provider == "openai" && strings.TrimSpace(cfg.LLM.APIKey) == "" {
		cfg.LLM.Provider = "none"
	}
	if cfg.Detectors.Emotion == "" {
		switch {
		case cfg.Detectors.Mode == "null":
			cfg.Detectors.Emotion = "null"
		case cfg.LLM.Provider == "none":
			cfg.Detectors.Emotion = "lexicon"
		default:
			cfg.Detectors.Emotion = "llm"
		}
	}
	if cfg.Detectors.Safety == "" {
		cfg.Detectors.Safety = "rules"
		if cfg.Detectors.Mode == "null" {
			cfg.Detectors.Safety = "off"
		}
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	switch cfg.Language {
	case "zh-TW", "en":
	default:
		return cfg, errors.New("LANGUAGE must be one of: zh-TW, en")
	}
	if cfg.MaxMessageRunes < 1 {
		return cfg, errors.New("MAX_MESSAGE_RUNES must be >= 1")
	}
	if cfg.HistoryTurns < 0 {
		return cfg, errors.New("HISTORY_TURNS must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	switch cfg.KV.Backend {
	case "memory", "redis", "sql":
	default:
		return cfg, errors.New("KV_BACKEND must be one of: memory, redis, sql")
	}
	if cfg.Usage.SessionLimit < 1 || cfg.Usage.SessionTokenLimit < 1 {
		return cfg, errors.New("USAGE_SESSION_LIMIT and USAGE_SESSION_TOKEN_LIMIT must be >= 1")
	}
	if cfg.Usage.SessionWindow <= 0 || cfg.Usage.SessionCooldown <= 0 {
		return cfg, errors.New("USAGE_SESSION_WINDOW and USAGE_SESSION_COOLDOWN must be > 0")
	}
	if cfg.Usage.GlobalHourlyLimit < 1 || cfg.Usage.GlobalDailyLimit < 1 {
		return cfg, errors.New("USAGE_GLOBAL_HOURLY and USAGE_GLOBAL_DAILY must be >= 1")
	}
	if blocksErr != nil {
		return cfg, blocksErr
	}
	if cfg.Abuse.WarnThreshold < 0 {
		return cfg, errors.New("ABUSE_WARN_THRESHOLD must be >= 0")
	}
	switch cfg.Detectors.Mode {
	case "real", "null":
	default:
		return cfg, errors.New("DETECTORS must be one of: real, null")
	}
	switch cfg.Detectors.Emotion {
	case "llm", "lexicon", "null":
	default:
		return cfg, errors.New("EMOTION_ANALYZER must be one of: llm, lexicon, null")
	}
	if cfg.Detectors.Emotion == "llm" && cfg.LLM.Provider == "none" {
		return cfg, errors.New("EMOTION_ANALYZER=llm requires LLM_API_KEY")
	}
	switch cfg.Detectors.Safety {
	case "rules", "off":
	default:
		return cfg, errors.New("SAFETY_CHECK must be one of: rules, off")
	}
	if cfg.Detectors.KeywordThreshold < 0 || cfg.Detectors.KeywordThreshold > 1 ||
		cfg.Detectors.LongThreshold < 0 || cfg.Detectors.LongThreshold > 1 {
		return cfg, errors.New("KEYWORD_THRESHOLD and KEYWORD_LONG_THRESHOLD must be in [0,1]")
	}
	switch cfg.LLM.Provider {
	case "openai", "none":
	default:
		return cfg, errors.New("LLM_PROVIDER must be one of: openai, none")
	}
	if cfg.LLM.Timeout <= 0 {
		return cfg, errors.New("LLM_TIMEOUT must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseBlocks reads "count:duration" pairs, e.g. "2:5m,3:10m".
func parseBlocks(s string) ([]BlockTier, error) {
	var out []BlockTier
	for _, item := range splitCSV(s) {
		n, d, ok := strings.Cut(item, ":")
		if !ok {
			return nil, errors.New("ABUSE_BLOCKS entries must look like count:duration")
		}
		count, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || count < 1 {
			return nil, errors.New("ABUSE_BLOCKS counts must be integers >= 1")
		}
		dur, err := time.ParseDuration(strings.TrimSpace(d))
		if err != nil || dur <= 0 {
			return nil, errors.New("ABUSE_BLOCKS durations must be positive")
		}
		out = append(out, BlockTier{Violations: count, Duration: dur})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Violations < out[j].Violations })
	return out, nil
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
