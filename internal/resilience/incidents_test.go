package resilience

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

func newTestAnalyzer() *IncidentAnalyzer {
	return NewIncidentAnalyzer(DefaultAlertThresholds(), nil, nil)
}

func mathCtx() FallbackContext {
	return FallbackContext{Subject: "math", Topic: "algebra", ErrorCode: "ETIMEDOUT"}
}

func TestRecordFallback_OpensIncident(t *testing.T) {
	a := newTestAnalyzer()

	incident := a.RecordFallback(models.TriggerTimeout, "provider timed out", mathCtx())

	require.NotEmpty(t, incident.ID)
	assert.Equal(t, models.TriggerTimeout, incident.Trigger)
	assert.Equal(t, "math", incident.Subject)
	assert.Equal(t, "algebra", incident.Topic)
	assert.Equal(t, 1, incident.Count)
	assert.False(t, incident.Resolved)
	assert.Equal(t, incident.FirstSeen, incident.LastSeen)
}

func TestRecordFallback_RepeatIncrementsSameIncident(t *testing.T) {
	a := newTestAnalyzer()

	first := a.RecordFallback(models.TriggerTimeout, "provider timed out", mathCtx())
	second := a.RecordFallback(models.TriggerTimeout, "provider timed out again", mathCtx())
	third := a.RecordFallback(models.TriggerTimeout, "still timing out", mathCtx())

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, 3, third.Count)
	assert.False(t, third.LastSeen.Before(first.LastSeen))

	active := a.GetActiveIncidents()
	require.Len(t, active, 1)
	assert.Equal(t, 3, active[0].Count)
}

func TestRecordFallback_DifferentKeysSeparateIncidents(t *testing.T) {
	a := newTestAnalyzer()

	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "math"})
	a.RecordFallback(models.TriggerRateLimited, "x", FallbackContext{Subject: "math"})
	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "science"})

	assert.Len(t, a.GetActiveIncidents(), 3)
}

func TestResolveFallback_ClosesIncident(t *testing.T) {
	a := newTestAnalyzer()
	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())

	resolved, err := a.ResolveFallback(models.TriggerTimeout, "math", "provider recovered")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "provider recovered", resolved.Resolution)
	require.NotNil(t, resolved.ResolvedAt)

	assert.Empty(t, a.GetActiveIncidents())
}

func TestResolveFallback_NotFound(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.ResolveFallback(models.TriggerTimeout, "math", "nope")
	assert.ErrorIs(t, err, ErrIncidentNotFound)

	// A resolved incident cannot be resolved twice either.
	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	_, err = a.ResolveFallback(models.TriggerTimeout, "math", "done")
	require.NoError(t, err)
	_, err = a.ResolveFallback(models.TriggerTimeout, "math", "again")
	assert.ErrorIs(t, err, ErrIncidentNotFound)
}

func TestRecordFallback_AfterResolveOpensNewIncident(t *testing.T) {
	a := newTestAnalyzer()

	old := a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	_, err := a.ResolveFallback(models.TriggerTimeout, "math", "fixed")
	require.NoError(t, err)

	reopened := a.RecordFallback(models.TriggerTimeout, "back again", mathCtx())
	assert.NotEqual(t, old.ID, reopened.ID)
	assert.Equal(t, 1, reopened.Count)

	all := a.GetAllIncidents()
	require.Len(t, all, 2)
	assert.True(t, all[0].Resolved, "history keeps the resolved incident unchanged")
	assert.Equal(t, 2, all[0].Count)
	assert.False(t, all[1].Resolved)
}

func TestGetActiveIncidents_OrderedByLastSeenDescending(t *testing.T) {
	a := newTestAnalyzer()
	base := time.Now()
	clock := base
	a.now = func() time.Time { return clock }

	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "math"})
	clock = base.Add(time.Minute)
	a.RecordFallback(models.TriggerRateLimited, "x", FallbackContext{Subject: "science"})
	clock = base.Add(2 * time.Minute)
	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "math"})

	active := a.GetActiveIncidents()
	require.Len(t, active, 2)
	assert.Equal(t, "math", active[0].Subject)
	assert.Equal(t, "science", active[1].Subject)
}

func TestGetAllIncidents_OrderedByFirstSeenAscending(t *testing.T) {
	a := newTestAnalyzer()

	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "math"})
	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "science"})

	all := a.GetAllIncidents()
	require.Len(t, all, 2)
	assert.Equal(t, "math", all[0].Subject)
	assert.Equal(t, "science", all[1].Subject)
}

func TestGetTriggerCounts(t *testing.T) {
	a := newTestAnalyzer()

	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "math"})
	a.RecordFallback(models.TriggerTimeout, "x", FallbackContext{Subject: "math"})
	a.RecordFallback(models.TriggerRateLimited, "x", FallbackContext{Subject: "science"})

	counts := a.GetTriggerCounts()
	assert.Equal(t, 2, counts[models.TriggerTimeout])
	assert.Equal(t, 1, counts[models.TriggerRateLimited])
}

func TestClearData(t *testing.T) {
	a := newTestAnalyzer()
	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())

	a.ClearData()

	assert.Empty(t, a.GetActiveIncidents())
	assert.Empty(t, a.GetAllIncidents())
	assert.Empty(t, a.GetTriggerCounts())
}

func TestRecordFallback_ConcurrentNoLostUpdates(t *testing.T) {
	a := newTestAnalyzer()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
		}()
	}
	wg.Wait()

	active := a.GetActiveIncidents()
	require.Len(t, active, 1)
	assert.Equal(t, goroutines, active[0].Count)
}

func TestRecordFallback_RaisesEscalatingAlerts(t *testing.T) {
	dispatcher := NewAlertDispatcher(time.Hour)
	a := NewIncidentAnalyzer(AlertThresholds{AlertAfter: 2, WarningAfter: 3, CriticalAfter: 4}, dispatcher, nil)

	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	assert.Empty(t, dispatcher.GetUnacknowledgedAlerts(), "below threshold, no alert yet")

	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	alerts := dispatcher.GetUnacknowledgedAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityInfo, alerts[0].Severity)
	assert.Equal(t, models.AlertThresholdExceeded, alerts[0].Type)

	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	alerts = dispatcher.GetUnacknowledgedAlerts()
	require.Len(t, alerts, 1, "flapping incident dedups into one alert")
	assert.Equal(t, models.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, 3, alerts[0].RepeatCount)
}

func TestRecordFallback_FeedsHealthTracker(t *testing.T) {
	tracker := NewHealthTracker(DefaultHealthThresholds())
	a := NewIncidentAnalyzer(DefaultAlertThresholds(), nil, tracker)

	for i := 0; i < 3; i++ {
		a.RecordFallback(models.TriggerProviderError, "boom", FallbackContext{Subject: "math", Service: "groq"})
	}

	assert.Equal(t, models.StatusOutage, tracker.GetServiceStatus("groq"),
		"three consecutive failures escalate to outage")
}

func TestGetOccurrences_FiltersBySince(t *testing.T) {
	a := newTestAnalyzer()
	base := time.Now()
	clock := base
	a.now = func() time.Time { return clock }

	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())
	clock = base.Add(2 * time.Hour)
	a.RecordFallback(models.TriggerTimeout, "x", mathCtx())

	recent := a.GetOccurrences(base.Add(time.Hour))
	require.Len(t, recent, 1)
	assert.Equal(t, models.TriggerTimeout, recent[0].Trigger)
}

func TestRecordFallback_PerTriggerThresholdOverride(t *testing.T) {
	dispatcher := NewAlertDispatcher(time.Hour)
	th := DefaultAlertThresholds()
	th.PerTrigger = map[models.FallbackTrigger]int{models.TriggerRateLimited: 1}
	a := NewIncidentAnalyzer(th, dispatcher, nil)

	a.RecordFallback(models.TriggerRateLimited, "429", FallbackContext{Subject: "math"})

	assert.Len(t, dispatcher.GetUnacknowledgedAlerts(), 1)
}

func TestRecordFallback_PerTriggerOverrideShiftsEscalationBands(t *testing.T) {
	dispatcher := NewAlertDispatcher(time.Hour)
	th := AlertThresholds{
		AlertAfter:    2,
		WarningAfter:  3,
		CriticalAfter: 4,
		PerTrigger:    map[models.FallbackTrigger]int{models.TriggerRateLimited: 5},
	}
	a := NewIncidentAnalyzer(th, dispatcher, nil)

	for i := 0; i < 5; i++ {
		a.RecordFallback(models.TriggerRateLimited, "429", FallbackContext{Subject: "math"})
	}
	alerts := dispatcher.GetUnacknowledgedAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityInfo, alerts[0].Severity,
		"escalation bands move with the raised per-trigger threshold")

	a.RecordFallback(models.TriggerRateLimited, "429", FallbackContext{Subject: "math"})
	assert.Equal(t, models.SeverityWarning, dispatcher.GetUnacknowledgedAlerts()[0].Severity)

	a.RecordFallback(models.TriggerRateLimited, "429", FallbackContext{Subject: "math"})
	assert.Equal(t, models.SeverityCritical, dispatcher.GetUnacknowledgedAlerts()[0].Severity)
}
