package ai

import (
    "context"
    "log"

    "github.com/edustack/ai-resilience-go-backend/internal/models"
    "github.com/edustack/ai-resilience-go-backend/internal/resilience"
)

// Answer is what the tutoring request path serves, whether it came from a
// provider or from the fallback cascade.
type Answer struct {
    Content  string              `json:"content"`
    Provider string              `json:"provider,omitempty"`
    Fallback bool                `json:"fallback"`
    Tier     models.FallbackTier `json:"tier,omitempty"`
}

// ResilientClient wraps provider calls with the orchestration subsystem:
// successes feed the health tracker, failures are classified and recorded,
// and the caller always gets something displayable back.
type ResilientClient struct {
    providers []*Client
    analyzer  *resilience.IncidentAnalyzer
    selector  *resilience.FallbackSelector
    tracker   *resilience.HealthTracker
}

func NewResilientClient(providers []*Client, analyzer *resilience.IncidentAnalyzer, selector *resilience.FallbackSelector, tracker *resilience.HealthTracker) *ResilientClient {
    return &ResilientClient{
        providers: providers,
        analyzer:  analyzer,
        selector:  selector,
        tracker:   tracker,
    }
}

// Ask tries each enabled provider in order. On total failure it serves
// tiered fallback content; this path never returns an error.
func (r *ResilientClient) Ask(ctx context.Context, subject, topic, prompt string) Answer {
    var lastIncident models.Incident
    lastTrigger := models.TriggerUnknown
    lastService := "ai-tutor"

    for _, provider := range r.providers {
        if !r.selector.ProviderEnabled(provider.Name()) {
            continue
        }
        answer, err := provider.Ask(ctx, prompt)
        if err == nil {
            r.tracker.ReportOutcome(provider.Name(), true, "answer served")
            return Answer{Content: answer, Provider: provider.Name()}
        }

        trigger := Classify(err)
        log.Printf("provider %s failed (%s): %v", provider.Name(), trigger, err)
        lastIncident = r.analyzer.RecordFallback(trigger, err.Error(), resilience.FallbackContext{
            Subject:   subject,
            Topic:     topic,
            ErrorCode: string(trigger),
            Service:   provider.Name(),
        })
        lastTrigger = trigger
        lastService = provider.Name()
    }

    tier := resilience.TierForIncident(lastIncident.Count, r.tracker.GetServiceStatus(lastService), r.selector.Escalation())
    content := r.selector.GetFallbackContent(subject, topic, resilience.FallbackOptions{
        Tier:    tier,
        Trigger: lastTrigger,
    })
    return Answer{Content: content.Content, Fallback: true, Tier: content.Tier}
}
