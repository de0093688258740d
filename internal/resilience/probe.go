package resilience

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

const DefaultProbeTimeout = 3 * time.Second

// Prober performs active provider health checks with a hard timeout. A
// timed-out or failed probe is recorded as a failure signal on the tracker,
// never surfaced as an error: stale-but-present health beats blocking.
type Prober struct {
	tracker *HealthTracker
	client  *http.Client
}

func NewProber(tracker *HealthTracker, timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		tracker: tracker,
		client:  &http.Client{Timeout: timeout},
	}
}

// Check probes one endpoint and feeds the outcome into the tracker.
func (p *Prober) Check(ctx context.Context, service, url string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.tracker.ReportOutcome(service, false, fmt.Sprintf("probe setup failed: %v", err))
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.tracker.ReportOutcome(service, false, fmt.Sprintf("probe failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		p.tracker.ReportOutcome(service, false, fmt.Sprintf("probe returned %s", resp.Status))
		return
	}
	if resp.StatusCode >= 400 {
		p.tracker.UpdateServiceHealth(service, models.StatusDegraded, fmt.Sprintf("probe returned %s", resp.Status), nil)
		return
	}
	p.tracker.ReportOutcome(service, true, "probe ok")
}

// Run probes every target each interval until ctx is cancelled.
func (p *Prober) Run(ctx context.Context, interval time.Duration, targets map[string]string) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("health prober started: %d targets every %s", len(targets), interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for service, url := range targets {
				p.Check(ctx, service, url)
			}
		}
	}
}
