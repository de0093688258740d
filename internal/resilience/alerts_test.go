package resilience

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

func sendTestAlert(d *AlertDispatcher) models.Alert {
	return d.SendAlert(models.AlertServiceDegraded, models.SeverityWarning,
		"Groq degraded", "elevated error rate", "health-tracker", nil)
}

func TestSendAlert_CreatesAlert(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)

	alert := sendTestAlert(d)

	require.NotEmpty(t, alert.ID)
	assert.Equal(t, models.AlertServiceDegraded, alert.Type)
	assert.Equal(t, models.SeverityWarning, alert.Severity)
	assert.Equal(t, 1, alert.RepeatCount)
	assert.False(t, alert.Acknowledged)

	fetched, err := d.GetAlert(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.ID, fetched.ID)
}

func TestSendAlert_DedupsWithinWindow(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)

	first := sendTestAlert(d)
	second := sendTestAlert(d)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.RepeatCount)
	assert.Len(t, d.GetUnacknowledgedAlerts(), 1)
}

func TestSendAlert_DedupRaisesSeverity(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)

	d.SendAlert(models.AlertServiceDegraded, models.SeverityInfo, "Groq degraded", "m", "health-tracker", nil)
	merged := d.SendAlert(models.AlertServiceDegraded, models.SeverityCritical, "Groq degraded", "m", "health-tracker", nil)

	assert.Equal(t, models.SeverityCritical, merged.Severity)

	// A later lower-severity repeat does not downgrade.
	merged = d.SendAlert(models.AlertServiceDegraded, models.SeverityInfo, "Groq degraded", "m", "health-tracker", nil)
	assert.Equal(t, models.SeverityCritical, merged.Severity)
}

func TestSendAlert_NoDedupAcrossKeys(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)

	sendTestAlert(d)
	d.SendAlert(models.AlertServiceDegraded, models.SeverityWarning, "Groq degraded", "m", "other-source", nil)
	d.SendAlert(models.AlertServiceDown, models.SeverityWarning, "Groq degraded", "m", "health-tracker", nil)

	assert.Len(t, d.GetUnacknowledgedAlerts(), 3)
}

func TestSendAlert_NoDedupOutsideWindow(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)
	base := time.Now()
	clock := base
	d.now = func() time.Time { return clock }

	first := sendTestAlert(d)
	clock = base.Add(2 * time.Minute)
	second := sendTestAlert(d)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, d.GetUnacknowledgedAlerts(), 2)
}

func TestSendAlert_NoDedupAgainstAcknowledged(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)

	first := sendTestAlert(d)
	_, err := d.AcknowledgeAlert(first.ID, "pat")
	require.NoError(t, err)

	second := sendTestAlert(d)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSendAlert_ConcurrentDedupYieldsOneAlert(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)
	const callers = 40

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sendTestAlert(d)
		}()
	}
	wg.Wait()

	alerts := d.GetUnacknowledgedAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, callers, alerts[0].RepeatCount)
}

func TestAcknowledgeAlert_Idempotent(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)
	alert := sendTestAlert(d)

	first, err := d.AcknowledgeAlert(alert.ID, "pat")
	require.NoError(t, err)
	assert.True(t, first.Acknowledged)
	assert.Equal(t, "pat", first.AcknowledgedBy)

	second, err := d.AcknowledgeAlert(alert.ID, "sam")
	require.NoError(t, err)
	assert.Equal(t, "pat", second.AcknowledgedBy, "first acknowledger wins")
	assert.Equal(t, first.AcknowledgedAt, second.AcknowledgedAt)
}

func TestAcknowledgeAlert_NotFound(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)

	_, err := d.AcknowledgeAlert("missing", "pat")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestGetUnacknowledgedAlerts_NewestFirst(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)

	d.SendAlert(models.AlertServiceDegraded, models.SeverityInfo, "first", "m", "s", nil)
	d.SendAlert(models.AlertServiceDegraded, models.SeverityInfo, "second", "m", "s", nil)
	acked := d.SendAlert(models.AlertServiceDegraded, models.SeverityInfo, "third", "m", "s", nil)
	_, err := d.AcknowledgeAlert(acked.ID, "pat")
	require.NoError(t, err)

	alerts := d.GetUnacknowledgedAlerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, "second", alerts[0].Title)
	assert.Equal(t, "first", alerts[1].Title)
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []models.Alert
}

func (n *recordingNotifier) Notify(alert models.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
}

func TestSendAlert_NotifiesOnCreateOnly(t *testing.T) {
	d := NewAlertDispatcher(time.Minute)
	n := &recordingNotifier{}
	d.SetNotifier(n)

	sendTestAlert(d)
	sendTestAlert(d)

	assert.Eventually(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		return len(n.alerts) == 1
	}, time.Second, 10*time.Millisecond, "dedup merge must not re-deliver")
}
