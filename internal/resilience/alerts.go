package resilience

import (
	"log"
	"sync"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
	"github.com/google/uuid"
)

// Notifier delivers a created alert to an external channel (email, push,
// redis). Delivery is best-effort; the dispatcher's contract is only that
// the alert object exists and is retrievable.
type Notifier interface {
	Notify(alert models.Alert)
}

const DefaultDedupWindow = 5 * time.Minute

type AlertDispatcher struct {
	mu          sync.RWMutex
	alerts      map[string]*models.Alert
	order       []string
	dedupWindow time.Duration
	notifier    Notifier
	archiver    Archiver
	now         func() time.Time
}

func NewAlertDispatcher(dedupWindow time.Duration) *AlertDispatcher {
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	return &AlertDispatcher{
		alerts:      make(map[string]*models.Alert),
		dedupWindow: dedupWindow,
		now:         time.Now,
	}
}

// SetNotifier attaches a delivery collaborator. Safe to leave unset.
func (d *AlertDispatcher) SetNotifier(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifier = n
}

// SetArchiver attaches a write-behind persistence collaborator.
func (d *AlertDispatcher) SetArchiver(a Archiver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.archiver = a
}

// SendAlert creates an alert, or merges into an existing unacknowledged
// alert with the same (type, source, title) seen within the dedup window.
// The dedup decision happens under the registry lock so concurrent callers
// for the same key resolve to a single alert.
func (d *AlertDispatcher) SendAlert(alertType models.AlertType, severity models.AlertSeverity, title, message, source string, metadata map[string]string) models.Alert {
	d.mu.Lock()
	now := d.now()
	for i := len(d.order) - 1; i >= 0; i-- {
		existing := d.alerts[d.order[i]]
		if existing.Acknowledged {
			continue
		}
		if existing.Type != alertType || existing.Source != source || existing.Title != title {
			continue
		}
		if now.Sub(existing.LastSeen) > d.dedupWindow {
			continue
		}
		existing.RepeatCount++
		existing.LastSeen = now
		existing.Message = message
		if severityRank(severity) > severityRank(existing.Severity) {
			existing.Severity = severity
		}
		snapshot := *existing
		d.mu.Unlock()
		return snapshot
	}

	alert := &models.Alert{
		ID:          uuid.New().String(),
		Type:        alertType,
		Severity:    severity,
		Title:       title,
		Message:     message,
		Source:      source,
		Metadata:    metadata,
		RepeatCount: 1,
		CreatedAt:   now,
		LastSeen:    now,
	}
	d.alerts[alert.ID] = alert
	d.order = append(d.order, alert.ID)
	notifier := d.notifier
	archiver := d.archiver
	snapshot := *alert
	d.mu.Unlock()

	if notifier != nil {
		go notifier.Notify(snapshot)
	}
	if archiver != nil {
		go func() {
			if err := archiveAlert(archiver, snapshot); err != nil {
				log.Printf("alert archive failed: %v", err)
			}
		}()
	}
	return snapshot
}

// AcknowledgeAlert is idempotent: the first acknowledger wins and later
// calls return the already-acknowledged alert unchanged.
func (d *AlertDispatcher) AcknowledgeAlert(id, acknowledgedBy string) (models.Alert, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	alert, ok := d.alerts[id]
	if !ok {
		return models.Alert{}, ErrAlertNotFound
	}
	if alert.Acknowledged {
		return *alert, nil
	}
	now := d.now()
	alert.Acknowledged = true
	alert.AcknowledgedBy = acknowledgedBy
	alert.AcknowledgedAt = &now
	return *alert, nil
}

// GetUnacknowledgedAlerts returns the operator queue, newest first.
func (d *AlertDispatcher) GetUnacknowledgedAlerts() []models.Alert {
	d.mu.RLock()
	defer d.mu.RUnlock()

	alerts := make([]models.Alert, 0)
	for i := len(d.order) - 1; i >= 0; i-- {
		alert := d.alerts[d.order[i]]
		if !alert.Acknowledged {
			alerts = append(alerts, *alert)
		}
	}
	return alerts
}

func (d *AlertDispatcher) GetAlert(id string) (models.Alert, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	alert, ok := d.alerts[id]
	if !ok {
		return models.Alert{}, ErrAlertNotFound
	}
	return *alert, nil
}

func severityRank(s models.AlertSeverity) int {
	switch s {
	case models.SeverityCritical:
		return 3
	case models.SeverityWarning:
		return 2
	case models.SeverityInfo:
		return 1
	}
	return 0
}
