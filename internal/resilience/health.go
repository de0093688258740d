package resilience

import (
	"sync"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

// HealthThresholds tunes the sliding-window status derivation. All values
// are configuration; nothing in the derivation is hard-coded.
type HealthThresholds struct {
	WindowSize        int     // samples kept per service
	MinSamples        int     // below this, the reported status is trusted as-is
	DegradedErrorRate float64 // error rate at or above this reads degraded
	OutageErrorRate   float64 // error rate at or above this reads outage
	OutageConsecutive int     // this many consecutive failures reads outage
}

func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		WindowSize:        20,
		MinSamples:        5,
		DegradedErrorRate: 0.25,
		OutageErrorRate:   0.5,
		OutageConsecutive: 3,
	}
}

type outcomeWindow struct {
	outcomes    []bool // true = failure
	idx         int
	filled      bool
	consecutive int // consecutive failures
}

func (w *outcomeWindow) record(failure bool, size int) {
	if len(w.outcomes) != size {
		w.outcomes = make([]bool, size)
		w.idx = 0
		w.filled = false
	}
	w.outcomes[w.idx] = failure
	w.idx = (w.idx + 1) % size
	if w.idx == 0 {
		w.filled = true
	}
	if failure {
		w.consecutive++
	} else {
		w.consecutive = 0
	}
}

func (w *outcomeWindow) samples() int {
	if w.filled {
		return len(w.outcomes)
	}
	return w.idx
}

func (w *outcomeWindow) errorRate() float64 {
	n := w.samples()
	if n == 0 {
		return 0
	}
	failures := 0
	for i := 0; i < n; i++ {
		if w.outcomes[i] {
			failures++
		}
	}
	return float64(failures) / float64(n)
}

// HealthTracker keeps the current operational classification per external
// capability. UpdateServiceHealth is the single write path, fed both by
// periodic probes and reactively on fallbacks.
type HealthTracker struct {
	mu       sync.RWMutex
	services map[string]*models.ServiceHealth
	windows  map[string]*outcomeWindow
	th       HealthThresholds
	now      func() time.Time
}

func NewHealthTracker(th HealthThresholds) *HealthTracker {
	if th.WindowSize <= 0 {
		th = DefaultHealthThresholds()
	}
	return &HealthTracker{
		services: make(map[string]*models.ServiceHealth),
		windows:  make(map[string]*outcomeWindow),
		th:       th,
		now:      time.Now,
	}
}

// UpdateServiceHealth records the observation into the service's rolling
// window and upserts its record. The stored status is the worse of the
// reported status and the window-derived one, so a burst of failures reads
// outage even if each individual report only said degraded, and a single
// good report cannot mask a bad window.
func (t *HealthTracker) UpdateServiceHealth(service string, status models.ServiceStatus, message string, metadata map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[service]
	if !ok {
		w = &outcomeWindow{}
		t.windows[service] = w
	}
	w.record(status != models.StatusOperational, t.th.WindowSize)

	effective := status
	if derived := t.derive(w); statusRank(derived) > statusRank(effective) {
		effective = derived
	}

	t.services[service] = &models.ServiceHealth{
		Service:     service,
		Status:      effective,
		Message:     message,
		Metadata:    metadata,
		LastChecked: t.now(),
	}
}

// ReportOutcome is the reactive entry point used by the incident analyzer
// and the provider call sites: success reads operational, failure degraded,
// and the window escalates from there.
func (t *HealthTracker) ReportOutcome(service string, ok bool, message string) {
	if ok {
		t.UpdateServiceHealth(service, models.StatusOperational, message, nil)
	} else {
		t.UpdateServiceHealth(service, models.StatusDegraded, message, nil)
	}
}

func (t *HealthTracker) derive(w *outcomeWindow) models.ServiceStatus {
	if w.consecutive >= t.th.OutageConsecutive {
		return models.StatusOutage
	}
	if w.samples() < t.th.MinSamples {
		return models.StatusUnknown
	}
	rate := w.errorRate()
	switch {
	case rate >= t.th.OutageErrorRate:
		return models.StatusOutage
	case rate >= t.th.DegradedErrorRate:
		return models.StatusDegraded
	}
	return models.StatusOperational
}

// GetSystemHealth returns a snapshot of every tracked service.
func (t *HealthTracker) GetSystemHealth() map[string]models.ServiceHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]models.ServiceHealth, len(t.services))
	for name, health := range t.services {
		out[name] = *health
	}
	return out
}

// GetServiceStatus returns the current status, or unknown before any check.
func (t *HealthTracker) GetServiceStatus(service string) models.ServiceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if health, ok := t.services[service]; ok {
		return health.Status
	}
	return models.StatusUnknown
}

func (t *HealthTracker) ClearData() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.services = make(map[string]*models.ServiceHealth)
	t.windows = make(map[string]*outcomeWindow)
}

func statusRank(s models.ServiceStatus) int {
	switch s {
	case models.StatusOutage:
		return 3
	case models.StatusDegraded:
		return 2
	case models.StatusOperational:
		return 1
	}
	return 0 // unknown
}
