package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	llmDispatchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_dispatch_attempts_total",
			Help: "Total chat attempts per provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
	llmDispatchFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_dispatch_fallbacks_total",
			Help: "Total times dispatch moved past a failing provider.",
		},
		[]string{"provider"},
	)
	llmProviderHealthy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "llm_provider_healthy",
			Help: "LLM provider health status (1 healthy, 0 unhealthy).",
		},
		[]string{"provider"},
	)
	llmProviderHealthCheckLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_provider_health_check_latency_ms",
			Help:    "LLM provider health check latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"provider"},
	)
)

func init() {
	prometheus.MustRegister(
		llmDispatchAttemptsTotal,
		llmDispatchFallbacksTotal,
		llmProviderHealthy,
		llmProviderHealthCheckLatencyMs,
	)
}

func observeDispatchAttempt(provider string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	llmDispatchAttemptsTotal.WithLabelValues(provider, outcome).Inc()
}

func observeFallback(provider string) {
	llmDispatchFallbacksTotal.WithLabelValues(provider).Inc()
}

func observeHealthCheck(provider string, healthy bool, latency time.Duration) {
	v := 0.0
	if healthy {
		v = 1.0
	}
	llmProviderHealthy.WithLabelValues(provider).Set(v)
	if latency > 0 {
		llmProviderHealthCheckLatencyMs.WithLabelValues(provider).Observe(float64(latency.Milliseconds()))
	}
}
