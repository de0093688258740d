package resilience

import (
	"fmt"
	"sync"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

// TrendRules tunes the recommendation engine. Everything is configuration.
type TrendRules struct {
	BucketSize      time.Duration // trend bucket width
	RecentWindow    time.Duration // lookback for recommendations
	BurstCount      int           // occurrences per subject in RecentWindow to flag a provider
	TimeoutShare    float64       // share of recent occurrences that are timeouts to flag budgets
	OpenIncidentMax int           // active incidents before a triage nudge
	CacheTTL        time.Duration
}

func DefaultTrendRules() TrendRules {
	return TrendRules{
		BucketSize:      time.Hour,
		RecentWindow:    time.Hour,
		BurstCount:      10,
		TimeoutShare:    0.5,
		OpenIncidentMax: 5,
		CacheTTL:        30 * time.Second,
	}
}

// TrendAggregator computes read-only views over the analyzer's history. It
// owns nothing but a freshness-stamped cache.
type TrendAggregator struct {
	mu       sync.Mutex
	analyzer *IncidentAnalyzer
	rules    TrendRules
	stats    *models.Stats
	statsAt  time.Time
	now      func() time.Time
}

func NewTrendAggregator(analyzer *IncidentAnalyzer, rules TrendRules) *TrendAggregator {
	if rules.BucketSize <= 0 {
		rules = DefaultTrendRules()
	}
	return &TrendAggregator{analyzer: analyzer, rules: rules, now: time.Now}
}

func (t *TrendAggregator) GetStats() models.Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.stats != nil && now.Sub(t.statsAt) < t.rules.CacheTTL {
		return *t.stats
	}

	incidents := t.analyzer.GetAllIncidents()
	stats := models.Stats{
		ByTrigger:   make(map[models.FallbackTrigger]int),
		BySubject:   make(map[string]int),
		WindowStart: now,
		WindowEnd:   now,
	}
	for _, incident := range incidents {
		stats.TotalIncidents++
		stats.TotalFallbacks += incident.Count
		stats.ByTrigger[incident.Trigger] += incident.Count
		stats.BySubject[incident.Subject] += incident.Count
		if !incident.Resolved {
			stats.ActiveIncidents++
		}
		if incident.FirstSeen.Before(stats.WindowStart) {
			stats.WindowStart = incident.FirstSeen
		}
	}
	t.stats = &stats
	t.statsAt = now
	return stats
}

// GetTrends buckets fallback occurrences over the requested window. Empty
// buckets are emitted as zero so callers can plot a continuous series.
func (t *TrendAggregator) GetTrends(window time.Duration) []models.TrendBucket {
	if window <= 0 {
		window = 24 * time.Hour
	}
	now := t.now()
	bucket := t.rules.BucketSize
	start := now.Add(-window).Truncate(bucket)

	buckets := make([]models.TrendBucket, 0)
	for at := start; !at.After(now); at = at.Add(bucket) {
		buckets = append(buckets, models.TrendBucket{
			Start:     at,
			ByTrigger: make(map[models.FallbackTrigger]int),
		})
	}

	for _, o := range t.analyzer.GetOccurrences(start) {
		idx := int(o.At.Sub(start) / bucket)
		if idx < 0 || idx >= len(buckets) {
			continue
		}
		buckets[idx].Total++
		buckets[idx].ByTrigger[o.Trigger]++
	}
	return buckets
}

// GetRecommendations derives operator actions from recent occurrence
// patterns. Nothing here is stored; rerun any time.
func (t *TrendAggregator) GetRecommendations() []models.Recommendation {
	now := t.now()
	recent := t.analyzer.GetOccurrences(now.Add(-t.rules.RecentWindow))

	bySubject := make(map[string]int)
	timeouts := 0
	rateLimited := false
	for _, o := range recent {
		bySubject[o.Subject]++
		if o.Trigger == models.TriggerTimeout {
			timeouts++
		}
		if o.Trigger == models.TriggerRateLimited {
			rateLimited = true
		}
	}

	recs := make([]models.Recommendation, 0)
	for subject, count := range bySubject {
		if count >= t.rules.BurstCount {
			recs = append(recs, models.Recommendation{
				Code:     "disable_provider",
				Severity: models.SeverityCritical,
				Subject:  subject,
				Message:  fmt.Sprintf("%d fallbacks for %q in the last %s - consider disabling or switching the provider serving it", count, subject, t.rules.RecentWindow),
			})
		}
	}
	if len(recent) > 0 && float64(timeouts)/float64(len(recent)) >= t.rules.TimeoutShare {
		recs = append(recs, models.Recommendation{
			Code:     "raise_timeouts",
			Severity: models.SeverityWarning,
			Message:  "timeouts dominate recent fallbacks - consider raising the provider timeout budget or shedding load",
		})
	}
	if rateLimited {
		recs = append(recs, models.Recommendation{
			Code:     "rate_limit_budget",
			Severity: models.SeverityWarning,
			Message:  "providers are rate limiting - reduce request volume or raise the account quota",
		})
	}
	if active := len(t.analyzer.GetActiveIncidents()); active >= t.rules.OpenIncidentMax {
		recs = append(recs, models.Recommendation{
			Code:     "triage_incidents",
			Severity: models.SeverityInfo,
			Message:  fmt.Sprintf("%d incidents are open - resolve stale ones so alerts stay meaningful", active),
		})
	}
	return recs
}

// ClearData drops the cache only; incident data belongs to the analyzer.
func (t *TrendAggregator) ClearData() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = nil
	t.statsAt = time.Time{}
}
