package models

import "fmt"

// SubjectContent holds canned answers for one course subject, optionally
// specialized per topic.
type SubjectContent struct {
	Default string            `json:"default,omitempty"`
	Topics  map[string]string `json:"topics,omitempty"`
}

// TierContent is the content table for one degradation tier.
type TierContent struct {
	Generic  string                    `json:"generic,omitempty"`
	Subjects map[string]SubjectContent `json:"subjects,omitempty"`
}

// TierEscalation maps incident occurrence counts to requested tiers.
type TierEscalation struct {
	TemplateAfter int `json:"templateAfter"`
	ApologyAfter  int `json:"apologyAfter"`
}

type FallbackConfig struct {
	Tiers      map[FallbackTier]TierContent `json:"tiers"`
	Escalation TierEscalation               `json:"escalation"`
	Providers  map[string]bool              `json:"providers"`
	LastResort string                       `json:"lastResort"`
}

// FallbackConfigPatch is a partial config for UpdateConfig. Nil fields are
// left untouched; maps are merged key by key.
type FallbackConfigPatch struct {
	Tiers      map[FallbackTier]TierContent `json:"tiers,omitempty"`
	Escalation *TierEscalation              `json:"escalation,omitempty"`
	Providers  map[string]bool              `json:"providers,omitempty"`
	LastResort *string                      `json:"lastResort,omitempty"`
}

func (p *FallbackConfigPatch) Validate() error {
	for tier := range p.Tiers {
		if _, err := ParseTier(int(tier)); err != nil {
			return err
		}
	}
	if p.Escalation != nil {
		if p.Escalation.TemplateAfter < 1 || p.Escalation.ApologyAfter < p.Escalation.TemplateAfter {
			return fmt.Errorf("escalation thresholds must satisfy 1 <= templateAfter <= apologyAfter")
		}
	}
	if p.LastResort != nil && *p.LastResort == "" {
		return fmt.Errorf("lastResort cannot be empty")
	}
	return nil
}

// FallbackContent is what the selector hands back to the request path.
type FallbackContent struct {
	Tier    FallbackTier `json:"tier"`
	Subject string       `json:"subject,omitempty"`
	Topic   string       `json:"topic,omitempty"`
	Content string       `json:"content"`
	Source  string       `json:"source"`
}

const (
	ContentSourceTopic      = "subject_topic"
	ContentSourceSubject    = "subject"
	ContentSourceGeneric    = "generic"
	ContentSourceLastResort = "last_resort"
)

// DefaultFallbackConfig is the built-in content table used when no config
// file is supplied. Subjects mirror the tutoring catalogue.
func DefaultFallbackConfig() FallbackConfig {
	return FallbackConfig{
		Tiers: map[FallbackTier]TierContent{
			TierCached: {
				Generic: "Here is a reviewed explanation from our course library while the tutor catches up.",
				Subjects: map[string]SubjectContent{
					"math": {
						Default: "Work through the solved examples in this unit; each step is annotated by an instructor.",
						Topics: map[string]string{
							"algebra": "Revisit the worked algebra examples: isolate the variable step by step, checking each operation on both sides.",
						},
					},
					"science": {
						Default: "The unit summary covers the key concepts; the experiment walkthroughs are a good place to continue.",
					},
				},
			},
			TierTemplate: {
				Generic: "The AI tutor is taking longer than usual. Meanwhile, review the lesson summary and example problems for this section.",
				Subjects: map[string]SubjectContent{
					"math": {
						Default: "The AI tutor is briefly unavailable. Practice problems for this unit are available under Exercises.",
						Topics: map[string]string{
							"algebra": "The AI tutor is briefly unavailable. Try the algebra practice set; solutions unlock after each attempt.",
						},
					},
				},
			},
			TierApology: {
				Generic: "We're sorry - the AI tutor is unavailable right now. Please try again in a few minutes.",
			},
		},
		Escalation: TierEscalation{TemplateAfter: 3, ApologyAfter: 6},
		Providers:  map[string]bool{"groq": true, "openai": true, "ollama": true},
		LastResort: "The AI tutor is unavailable right now. Please try again later.",
	}
}
