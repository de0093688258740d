package handlers

import (
	"github.com/edustack/ai-resilience-go-backend/internal/resilience"
)

// Env carries the constructed service instances into the HTTP handlers.
// Nothing here reaches for globals, so tests can wire a fresh Env per case.
type Env struct {
	Analyzer   *resilience.IncidentAnalyzer
	Selector   *resilience.FallbackSelector
	Tracker    *resilience.HealthTracker
	Dispatcher *resilience.AlertDispatcher
	Trends     *resilience.TrendAggregator
}

func NewEnv(analyzer *resilience.IncidentAnalyzer, selector *resilience.FallbackSelector, tracker *resilience.HealthTracker, dispatcher *resilience.AlertDispatcher, trends *resilience.TrendAggregator) *Env {
	return &Env{
		Analyzer:   analyzer,
		Selector:   selector,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Trends:     trends,
	}
}
