package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Screening pipeline collectors. Label values come from small fixed sets
// (decision types, limiter reasons, tone rule ids) so cardinality stays bounded.
var (
	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_decisions_total",
			Help: "Selected response decisions by type.",
		},
		[]string{"type"},
	)

	limiterOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_limiter_checks_total",
			Help: "Usage limiter verdicts by reason (allowed, emergency_bypass, global_limit, user_limit, error).",
		},
		[]string{"reason"},
	)

	abuseEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abuse_guard_events_total",
			Help: "Abuse guard actions (warning, block, blocked).",
		},
		[]string{"action"},
	)

	llmCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "LLM collaborator calls by purpose and outcome.",
		},
		[]string{"purpose", "outcome"},
	)

	llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM collaborator call latency.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"purpose"},
	)

	toneRules = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tone_filter_rules_applied_total",
			Help: "Tone filter rules that changed a reply.",
		},
		[]string{"rule"},
	)
)

func init() {
	prometheus.MustRegister(decisions, limiterOutcomes, abuseEvents, llmCalls, llmLatency, toneRules)
}

// ObserveDecision counts a selected orchestrator decision.
func ObserveDecision(decisionType string) { decisions.WithLabelValues(decisionType).Inc() }

// ObserveLimiter counts a usage limiter verdict.
func ObserveLimiter(reason string) { limiterOutcomes.WithLabelValues(reason).Inc() }

// ObserveAbuse counts an abuse guard action.
func ObserveAbuse(action string) { abuseEvents.WithLabelValues(action).Inc() }

// ObserveLLM records one LLM call. err == nil counts as "ok".
func ObserveLLM(purpose string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmCalls.WithLabelValues(purpose, outcome).Inc()
	llmLatency.WithLabelValues(purpose).Observe(time.Since(started).Seconds())
}

// ObserveToneRules counts each applied tone rule id.
func ObserveToneRules(ids []string) {
	for _, id := range ids {
		toneRules.WithLabelValues(id).Inc()
	}
}
