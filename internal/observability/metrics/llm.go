package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type LLMMetrics struct {
	registry *prometheus.Registry
	service  string

	tokensTotal *prometheus.CounterVec
}

func NewLLMMetrics(service string) *LLMMetrics {
	registry := prometheus.NewRegistry()
	tokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Token usage reported by the provider, by direction.",
		},
		[]string{"service", "direction", "model"},
	)
	registry.MustRegister(tokensTotal)
	return &LLMMetrics{registry: registry, service: service, tokensTotal: tokensTotal}
}

func (m *LLMMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *LLMMetrics) RecordTokenUsage(model string, promptTokens, completionTokens int) {
	if model == "" {
		model = "unknown"
	}
	if promptTokens > 0 {
		m.tokensTotal.WithLabelValues(m.service, "in", model).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.tokensTotal.WithLabelValues(m.service, "out", model).Add(float64(completionTokens))
	}
}

// Handler exposes several registries on one endpoint.
func Handler(gatherers ...prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers(gatherers), promhttp.HandlerOpts{})
}
