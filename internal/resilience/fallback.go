package resilience

import (
	"sync"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

// FallbackOptions selects which substitute content a degraded call site
// wants. Trigger is recorded for diagnostics; selection depends on tier.
type FallbackOptions struct {
	Tier    models.FallbackTier
	Trigger models.FallbackTrigger
}

// FallbackSelector serves substitute content from an in-memory config.
// The config is replaced wholesale on update, never mutated in place, so
// readers always see a complete table.
type FallbackSelector struct {
	mu  sync.RWMutex
	cfg models.FallbackConfig
}

func NewFallbackSelector(cfg models.FallbackConfig) *FallbackSelector {
	if cfg.LastResort == "" {
		cfg = models.DefaultFallbackConfig()
	}
	return &FallbackSelector{cfg: cfg}
}

// GetFallbackContent never fails: it cascades from subject+topic content at
// the requested tier, to subject-level content, to the tier's generic
// content, to more-degraded tiers' generic content, to a fixed last-resort
// message.
func (s *FallbackSelector) GetFallbackContent(subject, topic string, opts FallbackOptions) models.FallbackContent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tier := clampTier(opts.Tier)

	if tc, ok := s.cfg.Tiers[tier]; ok {
		if sc, ok := tc.Subjects[subject]; ok {
			if topic != "" {
				if content, ok := sc.Topics[topic]; ok && content != "" {
					return models.FallbackContent{Tier: tier, Subject: subject, Topic: topic, Content: content, Source: models.ContentSourceTopic}
				}
			}
			if sc.Default != "" {
				return models.FallbackContent{Tier: tier, Subject: subject, Content: sc.Default, Source: models.ContentSourceSubject}
			}
		}
	}

	for t := tier; t <= models.TierApology; t++ {
		if tc, ok := s.cfg.Tiers[t]; ok && tc.Generic != "" {
			return models.FallbackContent{Tier: t, Content: tc.Generic, Source: models.ContentSourceGeneric}
		}
	}

	return models.FallbackContent{Tier: models.TierApology, Content: s.cfg.LastResort, Source: models.ContentSourceLastResort}
}

// UpdateConfig merges a partial config into the live one. The merge is
// all-or-nothing: validation failures reject the whole patch, and the swap
// is atomic with respect to concurrent reads.
func (s *FallbackSelector) UpdateConfig(patch models.FallbackConfigPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := copyConfig(s.cfg)
	for tier, tc := range patch.Tiers {
		merged := next.Tiers[tier]
		if tc.Generic != "" {
			merged.Generic = tc.Generic
		}
		if merged.Subjects == nil {
			merged.Subjects = make(map[string]models.SubjectContent)
		}
		for subject, sc := range tc.Subjects {
			existing := merged.Subjects[subject]
			if sc.Default != "" {
				existing.Default = sc.Default
			}
			if existing.Topics == nil {
				existing.Topics = make(map[string]string)
			}
			for topic, content := range sc.Topics {
				existing.Topics[topic] = content
			}
			merged.Subjects[subject] = existing
		}
		next.Tiers[tier] = merged
	}
	if patch.Escalation != nil {
		next.Escalation = *patch.Escalation
	}
	for provider, enabled := range patch.Providers {
		next.Providers[provider] = enabled
	}
	if patch.LastResort != nil {
		next.LastResort = *patch.LastResort
	}
	s.cfg = next
	return nil
}

// GetConfig returns a deep copy for diagnostics.
func (s *FallbackSelector) GetConfig() models.FallbackConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyConfig(s.cfg)
}

// ProviderEnabled reports the runtime toggle; unknown providers default on.
func (s *FallbackSelector) ProviderEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if enabled, ok := s.cfg.Providers[name]; ok {
		return enabled
	}
	return true
}

// Escalation returns the current count-to-tier thresholds.
func (s *FallbackSelector) Escalation() models.TierEscalation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Escalation
}

// TierForIncident picks the requested degradation tier from an incident's
// occurrence count and the affected service's current health. More
// occurrences or worse health means a more degraded tier.
func TierForIncident(count int, status models.ServiceStatus, esc models.TierEscalation) models.FallbackTier {
	tier := models.TierCached
	if esc.TemplateAfter > 0 && count >= esc.TemplateAfter {
		tier = models.TierTemplate
	}
	if esc.ApologyAfter > 0 && count >= esc.ApologyAfter {
		tier = models.TierApology
	}
	switch status {
	case models.StatusDegraded:
		if tier < models.TierTemplate {
			tier = models.TierTemplate
		}
	case models.StatusOutage:
		tier = models.TierApology
	}
	return tier
}

func clampTier(t models.FallbackTier) models.FallbackTier {
	if t < models.TierCached {
		return models.TierCached
	}
	if t > models.TierApology {
		return models.TierApology
	}
	return t
}

func copyConfig(cfg models.FallbackConfig) models.FallbackConfig {
	out := models.FallbackConfig{
		Tiers:      make(map[models.FallbackTier]models.TierContent, len(cfg.Tiers)),
		Escalation: cfg.Escalation,
		Providers:  make(map[string]bool, len(cfg.Providers)),
		LastResort: cfg.LastResort,
	}
	for tier, tc := range cfg.Tiers {
		copied := models.TierContent{Generic: tc.Generic}
		if tc.Subjects != nil {
			copied.Subjects = make(map[string]models.SubjectContent, len(tc.Subjects))
			for subject, sc := range tc.Subjects {
				copiedSubject := models.SubjectContent{Default: sc.Default}
				if sc.Topics != nil {
					copiedSubject.Topics = make(map[string]string, len(sc.Topics))
					for topic, content := range sc.Topics {
						copiedSubject.Topics[topic] = content
					}
				}
				copied.Subjects[subject] = copiedSubject
			}
		}
		out.Tiers[tier] = copied
	}
	for provider, enabled := range cfg.Providers {
		out.Providers[provider] = enabled
	}
	return out
}
