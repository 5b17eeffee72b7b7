package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "LLM_API_KEY", "DETECTORS", "EMOTION_ANALYZER", "KV_BACKEND"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func setenv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" || cfg.APIBasePath != "/api/v1" {
		t.Fatalf("server defaults: %+v", cfg)
	}
	if cfg.Language != "zh-TW" || cfg.MaxMessageRunes != 2000 || cfg.HistoryTurns != 10 || cfg.LLMOnly {
		t.Fatalf("app defaults: %+v", cfg)
	}
	if cfg.KV.Backend != "sql" || cfg.KV.Prefix != "antiscam:" {
		t.Fatalf("kv defaults: %+v", cfg.KV)
	}

	wantUsage := UsageConfig{
		Enabled:           true,
		SessionLimit:      20,
		SessionTokenLimit: 10000,
		SessionWindow:     time.Hour,
		SessionCooldown:   10 * time.Minute,
		GlobalHourlyLimit: 1000,
		GlobalDailyLimit:  10000,
	}
	if cfg.Usage != wantUsage {
		t.Fatalf("usage defaults: %+v", cfg.Usage)
	}

	wantBlocks := []BlockTier{
		{2, 5 * time.Minute}, {3, 10 * time.Minute}, {4, time.Hour}, {5, 24 * time.Hour}, {6, 240 * time.Hour},
	}
	if !reflect.DeepEqual(cfg.Abuse.Blocks, wantBlocks) || cfg.Abuse.WarnThreshold != 1 || !cfg.Abuse.Enabled {
		t.Fatalf("abuse defaults: %+v", cfg.Abuse)
	}

	// Without a key there is no provider and emotion analysis stays local.
	if cfg.LLM.Provider != "none" || cfg.Detectors.Emotion != "lexicon" || cfg.Detectors.Safety != "rules" {
		t.Fatalf("llm/detector defaults: %+v %+v", cfg.LLM, cfg.Detectors)
	}
	if cfg.Detectors.KeywordThreshold != 0.7 || cfg.Detectors.LongThreshold != 0 {
		t.Fatalf("keyword thresholds: %+v", cfg.Detectors)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.SampleRatio != 1 || cfg.Security.AdminToken != "" {
		t.Fatalf("otel/security defaults: %+v %+v", cfg.OTEL, cfg.Security)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setenv(t, map[string]string{
		"PORT":                        "9000",
		"WRITE_TIMEOUT":               "90s",
		"GIN_MODE":                    "Shouting",
		"LOG_LEVEL":                   "WARNING",
		"API_BASE_PATH":               "v2/",
		"LANGUAGE":                    "en",
		"LLM_ONLY":                    "on",
		"KV_BACKEND":                  "SQLite",
		"ABUSE_BLOCKS":                "4:1h,2:1m",
		"LLM_API_KEY":                 "sk-test",
		"LLM_TIMEOUT":                 "5s",
		"CORS_ALLOWED_ORIGINS":        "https://a.tw, ,https://b.tw",
		"ADMIN_TOKEN":                 "s3cret",
		"RATE_RPS":                    "not-a-number",
		"OTEL_TRACES_SAMPLER_ARG":     "0.25",
		"OTEL_EXPORTER_OTLP_INSECURE": "no",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.WriteTimeout != 90*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || cfg.APIBasePath != "/v2" || cfg.Language != "en" || !cfg.LLMOnly {
		t.Fatalf("logging/app: %+v", cfg)
	}
	if cfg.KV.Backend != "sql" {
		t.Fatalf("kv backend = %q", cfg.KV.Backend)
	}
	if want := []BlockTier{{2, time.Minute}, {4, time.Hour}}; !reflect.DeepEqual(cfg.Abuse.Blocks, want) {
		t.Fatalf("blocks = %+v", cfg.Abuse.Blocks)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Timeout != 5*time.Second || cfg.Detectors.Emotion != "llm" {
		t.Fatalf("llm: %+v %+v", cfg.LLM, cfg.Detectors)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.tw", "https://b.tw"}) {
		t.Fatalf("cors = %#v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Security.AdminToken != "s3cret" || cfg.RateRPS != 5 {
		t.Fatalf("security/rate: %+v %v", cfg.Security, cfg.RateRPS)
	}
	if cfg.OTEL.SampleRatio != 0.25 || cfg.OTEL.Insecure {
		t.Fatalf("otel: %+v", cfg.OTEL)
	}
}

func TestLoad_NullDetectorsCascade(t *testing.T) {
	t.Setenv("DETECTORS", "null")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Detectors.Emotion != "null" || cfg.Detectors.Safety != "off" {
		t.Fatalf("detectors = %+v", cfg.Detectors)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		env  map[string]string
		want string
	}{
		{map[string]string{"LOG_LEVEL": "chatty"}, "LOG_LEVEL"},
		{map[string]string{"PORT": "  "}, "PORT must not be empty"},
		{map[string]string{"IDLE_TIMEOUT": "0s"}, "timeouts must be positive"},
		{map[string]string{"MAX_HEADER_BYTES": "-1"}, "MAX_HEADER_BYTES"},
		{map[string]string{"DB_PATH": " "}, "DB_PATH"},
		{map[string]string{"LANGUAGE": "ja"}, "LANGUAGE"},
		{map[string]string{"MAX_MESSAGE_RUNES": "0"}, "MAX_MESSAGE_RUNES"},
		{map[string]string{"HISTORY_TURNS": "-2"}, "HISTORY_TURNS"},
		{map[string]string{"RATE_RPS": "-0.5"}, "RATE_RPS"},
		{map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{map[string]string{"HSTS_MAX_AGE": "-1h"}, "HSTS_MAX_AGE"},
		{map[string]string{"IDEMPOTENCY_TTL": "0s"}, "IDEMPOTENCY_TTL"},
		{map[string]string{"KV_BACKEND": "etcd"}, "KV_BACKEND"},
		{map[string]string{"USAGE_SESSION_TOKEN_LIMIT": "0"}, "USAGE_SESSION_TOKEN_LIMIT"},
		{map[string]string{"USAGE_SESSION_WINDOW": "0s"}, "USAGE_SESSION_WINDOW"},
		{map[string]string{"USAGE_GLOBAL_DAILY": "0"}, "USAGE_GLOBAL_DAILY"},
		{map[string]string{"ABUSE_BLOCKS": "2=5m"}, "ABUSE_BLOCKS"},
		{map[string]string{"ABUSE_WARN_THRESHOLD": "-1"}, "ABUSE_WARN_THRESHOLD"},
		{map[string]string{"DETECTORS": "fancy"}, "DETECTORS"},
		{map[string]string{"EMOTION_ANALYZER": "tarot"}, "EMOTION_ANALYZER"},
		{map[string]string{"EMOTION_ANALYZER": "llm"}, "requires LLM_API_KEY"},
		{map[string]string{"SAFETY_CHECK": "maybe"}, "SAFETY_CHECK"},
		{map[string]string{"KEYWORD_LONG_THRESHOLD": "2"}, "KEYWORD_THRESHOLD"},
		{map[string]string{"LLM_PROVIDER": "bard"}, "LLM_PROVIDER"},
		{map[string]string{"LLM_API_KEY": "k", "LLM_TIMEOUT": "0s"}, "LLM_TIMEOUT"},
		{map[string]string{"OTEL_TRACES_SAMPLER_ARG": "-0.1"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			setenv(t, tc.env)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("env %v: err = %v, want mention of %q", tc.env, err, tc.want)
			}
		})
	}
}

func TestMustLoad(t *testing.T) {
	if cfg := MustLoad(); cfg.Port == "" {
		t.Fatalf("empty config")
	}

	t.Setenv("KV_BACKEND", "etcd")
	defer func() {
		if recover() == nil {
			t.Fatalf("MustLoad did not panic on invalid config")
		}
	}()
	MustLoad()
}

func TestParseBlocks(t *testing.T) {
	got, err := parseBlocks(" 6:240h , 2:5m ")
	if err != nil {
		t.Fatalf("parseBlocks: %v", err)
	}
	if want := []BlockTier{{2, 5 * time.Minute}, {6, 240 * time.Hour}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tiers = %+v", got)
	}
	for _, bad := range []string{"x:5m", "0:5m", "2:soon", "2:-1m", "2"} {
		if _, err := parseBlocks(bad); err == nil {
			t.Fatalf("parseBlocks(%q) accepted", bad)
		}
	}
	if out, err := parseBlocks(""); err != nil || out != nil {
		t.Fatalf("parseBlocks(\"\") = %v, %v", out, err)
	}
}

func TestEnvHelpers(t *testing.T) {
	setenv(t, map[string]string{
		"H_STR": "v", "H_EMPTY": "",
		"H_FLOAT": "0.5", "H_INT": "12", "H_DUR": "250ms", "H_BAD": "??",
	})
	if getenv("H_STR", "d") != "v" || getenv("H_EMPTY", "d") != "d" {
		t.Fatalf("getenv")
	}
	if getfloat("H_FLOAT", 0) != 0.5 || getfloat("H_BAD", 2) != 2 {
		t.Fatalf("getfloat")
	}
	if getint("H_INT", 0) != 12 || getint("H_BAD", 3) != 3 {
		t.Fatalf("getint")
	}
	if getdur("H_DUR", 0) != 250*time.Millisecond || getdur("H_BAD", time.Second) != time.Second {
		t.Fatalf("getdur")
	}

	for _, v := range []string{"1", "TRUE", " yes ", "y", "On"} {
		t.Setenv("H_BOOL", v)
		if !getbool("H_BOOL", false) {
			t.Fatalf("getbool(%q) = false", v)
		}
	}
	for _, v := range []string{"0", "False", "no", "N", "off"} {
		t.Setenv("H_BOOL", v)
		if getbool("H_BOOL", true) {
			t.Fatalf("getbool(%q) = true", v)
		}
	}
	if !getbool("H_EMPTY", true) || getbool("H_BAD", false) {
		t.Fatalf("getbool fallback")
	}
}

func TestSplitCSVAndBasePath(t *testing.T) {
	if splitCSV("") != nil {
		t.Fatalf("splitCSV(\"\") should be nil")
	}
	if got := splitCSV(",a,, b ,"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("splitCSV = %#v", got)
	}
	for in, want := range map[string]string{"": "/", " / ": "/", "v1": "/v1", "/v1/": "/v1", "/api/v1": "/api/v1"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}
