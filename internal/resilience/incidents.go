package resilience

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
	"github.com/google/uuid"
)

// AlertThresholds maps incident occurrence counts to raised-alert severity.
// PerTrigger overrides AlertAfter for specific triggers; the warning and
// critical bands shift by the same offset so escalation keeps its spacing.
type AlertThresholds struct {
	AlertAfter    int
	WarningAfter  int
	CriticalAfter int
	PerTrigger    map[models.FallbackTrigger]int
}

func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{AlertAfter: 3, WarningAfter: 5, CriticalAfter: 10}
}

// FallbackContext carries the call-site detail of a fallback occurrence.
// Service names the degraded capability; it defaults to "ai-tutor" when the
// caller does not know which provider failed.
type FallbackContext struct {
	Subject   string `json:"subject"`
	Topic     string `json:"topic,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Service   string `json:"service,omitempty"`
}

type incidentKey struct {
	trigger models.FallbackTrigger
	subject string
}

type occurrence struct {
	at      time.Time
	trigger models.FallbackTrigger
	subject string
}

// IncidentAnalyzer owns the incident registry. At most one open incident
// exists per (trigger, subject) pair; repeats increment it, resolution is
// terminal, and a later repeat opens a fresh incident.
type IncidentAnalyzer struct {
	mu          sync.Mutex
	open        map[incidentKey]*models.Incident
	history     []*models.Incident
	occurrences []occurrence
	th          AlertThresholds
	dispatcher  *AlertDispatcher
	tracker     *HealthTracker
	archiver    Archiver
	now         func() time.Time
}

func NewIncidentAnalyzer(th AlertThresholds, dispatcher *AlertDispatcher, tracker *HealthTracker) *IncidentAnalyzer {
	if th.AlertAfter <= 0 {
		th = DefaultAlertThresholds()
	}
	return &IncidentAnalyzer{
		open:       make(map[incidentKey]*models.Incident),
		th:         th,
		dispatcher: dispatcher,
		tracker:    tracker,
		now:        time.Now,
	}
}

// SetArchiver attaches a write-behind persistence collaborator for
// resolved incidents.
func (a *IncidentAnalyzer) SetArchiver(ar Archiver) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archiver = ar
}

// RecordFallback upserts the incident for (trigger, ctx.Subject) and
// returns its current snapshot. Crossing a configured count threshold
// raises an alert; the affected service's health window is fed a failure
// either way. Neither side effect happens under the registry lock.
func (a *IncidentAnalyzer) RecordFallback(trigger models.FallbackTrigger, message string, ctx FallbackContext) models.Incident {
	a.mu.Lock()
	now := a.now()
	key := incidentKey{trigger: trigger, subject: ctx.Subject}

	incident, ok := a.open[key]
	if ok {
		incident.Count++
		incident.LastSeen = now
		incident.Message = message
		if ctx.ErrorCode != "" {
			incident.ErrorCode = ctx.ErrorCode
		}
	} else {
		incident = &models.Incident{
			ID:        uuid.New().String(),
			Trigger:   trigger,
			Subject:   ctx.Subject,
			Topic:     ctx.Topic,
			ErrorCode: ctx.ErrorCode,
			Message:   message,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
		a.open[key] = incident
		a.history = append(a.history, incident)
	}
	a.occurrences = append(a.occurrences, occurrence{at: now, trigger: trigger, subject: ctx.Subject})
	snapshot := *incident
	a.mu.Unlock()

	service := ctx.Service
	if service == "" {
		service = "ai-tutor"
	}
	if a.tracker != nil {
		a.tracker.ReportOutcome(service, false, message)
	}
	if a.dispatcher != nil && snapshot.Count >= a.alertAfter(trigger) {
		a.dispatcher.SendAlert(
			models.AlertThresholdExceeded,
			a.severityFor(trigger, snapshot.Count),
			fmt.Sprintf("Repeated %s fallbacks for %s", trigger, ctx.Subject),
			message,
			"incident-analyzer",
			map[string]string{
				"trigger": string(trigger),
				"subject": ctx.Subject,
				"service": service,
				"count":   fmt.Sprintf("%d", snapshot.Count),
			},
		)
	}
	return snapshot
}

func (a *IncidentAnalyzer) alertAfter(trigger models.FallbackTrigger) int {
	if n, ok := a.th.PerTrigger[trigger]; ok && n > 0 {
		return n
	}
	return a.th.AlertAfter
}

func (a *IncidentAnalyzer) severityFor(trigger models.FallbackTrigger, count int) models.AlertSeverity {
	shift := a.alertAfter(trigger) - a.th.AlertAfter
	switch {
	case count >= a.th.CriticalAfter+shift:
		return models.SeverityCritical
	case count >= a.th.WarningAfter+shift:
		return models.SeverityWarning
	}
	return models.SeverityInfo
}

// ResolveFallback closes the matching open incident. Resolution is
// terminal: the incident stays in history unchanged and a later
// RecordFallback for the same key opens a new one.
func (a *IncidentAnalyzer) ResolveFallback(trigger models.FallbackTrigger, subject, resolution string) (models.Incident, error) {
	a.mu.Lock()
	key := incidentKey{trigger: trigger, subject: subject}
	incident, ok := a.open[key]
	if !ok {
		a.mu.Unlock()
		return models.Incident{}, ErrIncidentNotFound
	}
	now := a.now()
	incident.Resolved = true
	incident.Resolution = resolution
	incident.ResolvedAt = &now
	delete(a.open, key)
	snapshot := *incident
	archiver := a.archiver
	a.mu.Unlock()

	if archiver != nil {
		go func() {
			if err := archiveIncident(archiver, snapshot); err != nil {
				log.Printf("incident archive failed: %v", err)
			}
		}()
	}
	return snapshot, nil
}

// GetActiveIncidents returns unresolved incidents, most recently seen first.
func (a *IncidentAnalyzer) GetActiveIncidents() []models.Incident {
	a.mu.Lock()
	defer a.mu.Unlock()

	active := make([]models.Incident, 0, len(a.open))
	for _, incident := range a.open {
		active = append(active, *incident)
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].LastSeen.After(active[j].LastSeen)
	})
	return active
}

// GetAllIncidents returns the full history, first seen first.
func (a *IncidentAnalyzer) GetAllIncidents() []models.Incident {
	a.mu.Lock()
	defer a.mu.Unlock()

	all := make([]models.Incident, 0, len(a.history))
	for _, incident := range a.history {
		all = append(all, *incident)
	}
	return all
}

func (a *IncidentAnalyzer) GetTriggerCounts() map[models.FallbackTrigger]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	counts := make(map[models.FallbackTrigger]int)
	for _, incident := range a.history {
		counts[incident.Trigger] += incident.Count
	}
	return counts
}

// GetOccurrences returns every recorded fallback occurrence since start,
// oldest first. Used by the trend aggregator for time bucketing.
func (a *IncidentAnalyzer) GetOccurrences(since time.Time) []Occurrence {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Occurrence, 0)
	for _, o := range a.occurrences {
		if o.at.Before(since) {
			continue
		}
		out = append(out, Occurrence{At: o.at, Trigger: o.trigger, Subject: o.subject})
	}
	return out
}

// Occurrence is one fallback event, exported for aggregation.
type Occurrence struct {
	At      time.Time
	Trigger models.FallbackTrigger
	Subject string
}

// ClearData resets the registry. Exposed to operators through the
// authenticated diagnostics boundary only.
func (a *IncidentAnalyzer) ClearData() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open = make(map[incidentKey]*models.Incident)
	a.history = nil
	a.occurrences = nil
}
