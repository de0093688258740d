package models

import (
	"fmt"
	"time"
)

// FallbackTrigger categorizes why an AI call fell back.
type FallbackTrigger string

const (
	TriggerTimeout         FallbackTrigger = "timeout"
	TriggerRateLimited     FallbackTrigger = "rate_limited"
	TriggerInvalidResponse FallbackTrigger = "invalid_response"
	TriggerProviderError   FallbackTrigger = "provider_error"
	TriggerUnknown         FallbackTrigger = "unknown"
)

func ParseTrigger(s string) (FallbackTrigger, error) {
	switch FallbackTrigger(s) {
	case TriggerTimeout, TriggerRateLimited, TriggerInvalidResponse, TriggerProviderError, TriggerUnknown:
		return FallbackTrigger(s), nil
	}
	return "", fmt.Errorf("invalid fallback trigger %q", s)
}

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

func ParseSeverity(s string) (AlertSeverity, error) {
	switch AlertSeverity(s) {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return AlertSeverity(s), nil
	}
	return "", fmt.Errorf("invalid alert severity %q", s)
}

type AlertType string

const (
	AlertServiceDegraded   AlertType = "service_degraded"
	AlertServiceDown       AlertType = "service_down"
	AlertThresholdExceeded AlertType = "threshold_exceeded"
)

func ParseAlertType(s string) (AlertType, error) {
	switch AlertType(s) {
	case AlertServiceDegraded, AlertServiceDown, AlertThresholdExceeded:
		return AlertType(s), nil
	}
	return "", fmt.Errorf("invalid alert type %q", s)
}

type ServiceStatus string

const (
	StatusOperational ServiceStatus = "operational"
	StatusDegraded    ServiceStatus = "degraded"
	StatusOutage      ServiceStatus = "outage"
	StatusUnknown     ServiceStatus = "unknown"
)

func ParseServiceStatus(s string) (ServiceStatus, error) {
	switch ServiceStatus(s) {
	case StatusOperational, StatusDegraded, StatusOutage, StatusUnknown:
		return ServiceStatus(s), nil
	}
	return "", fmt.Errorf("invalid service status %q", s)
}

// FallbackTier orders substitute content from near-normal (1) to last resort (3).
type FallbackTier int

const (
	TierCached   FallbackTier = 1
	TierTemplate FallbackTier = 2
	TierApology  FallbackTier = 3
)

func ParseTier(n int) (FallbackTier, error) {
	switch FallbackTier(n) {
	case TierCached, TierTemplate, TierApology:
		return FallbackTier(n), nil
	}
	return 0, fmt.Errorf("invalid fallback tier %d", n)
}

// Incident is one tracked, possibly repeating fallback occurrence for a
// (trigger, subject) pair.
type Incident struct {
	ID             string          `bson:"_id" json:"id"`
	Trigger        FallbackTrigger `bson:"trigger" json:"trigger"`
	Subject        string          `bson:"subject" json:"subject"`
	Topic          string          `bson:"topic,omitempty" json:"topic,omitempty"`
	ErrorCode      string          `bson:"errorcode,omitempty" json:"errorCode,omitempty"`
	Message        string          `bson:"message" json:"message"`
	Count          int             `bson:"count" json:"count"`
	FirstSeen      time.Time       `bson:"firstseen" json:"firstSeen"`
	LastSeen       time.Time       `bson:"lastseen" json:"lastSeen"`
	Resolved       bool            `bson:"resolved" json:"resolved"`
	Resolution     string          `bson:"resolution,omitempty" json:"resolution,omitempty"`
	ResolvedAt     *time.Time      `bson:"resolvedat,omitempty" json:"resolvedAt,omitempty"`
}

type Alert struct {
	ID             string            `bson:"_id" json:"id"`
	Type           AlertType         `bson:"type" json:"type"`
	Severity       AlertSeverity     `bson:"severity" json:"severity"`
	Title          string            `bson:"title" json:"title"`
	Message        string            `bson:"message" json:"message"`
	Source         string            `bson:"source" json:"source"`
	Metadata       map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	RepeatCount    int               `bson:"repeatcount" json:"repeatCount"`
	CreatedAt      time.Time         `bson:"createdat" json:"createdAt"`
	LastSeen       time.Time         `bson:"lastseen" json:"lastSeen"`
	Acknowledged   bool              `bson:"acknowledged" json:"acknowledged"`
	AcknowledgedBy string            `bson:"acknowledgedby,omitempty" json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time        `bson:"acknowledgedat,omitempty" json:"acknowledgedAt,omitempty"`
}

type ServiceHealth struct {
	Service     string            `json:"service"`
	Status      ServiceStatus     `json:"status"`
	Message     string            `json:"message,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	LastChecked time.Time         `json:"lastChecked"`
}

// Stats is the aggregator's point-in-time summary of incident history.
type Stats struct {
	TotalIncidents  int                     `json:"totalIncidents"`
	ActiveIncidents int                     `json:"activeIncidents"`
	TotalFallbacks  int                     `json:"totalFallbacks"`
	ByTrigger       map[FallbackTrigger]int `json:"byTrigger"`
	BySubject       map[string]int          `json:"bySubject"`
	WindowStart     time.Time               `json:"windowStart"`
	WindowEnd       time.Time               `json:"windowEnd"`
}

type TrendBucket struct {
	Start     time.Time               `json:"start"`
	Total     int                     `json:"total"`
	ByTrigger map[FallbackTrigger]int `json:"byTrigger"`
}

type Recommendation struct {
	Code     string        `json:"code"`
	Severity AlertSeverity `json:"severity"`
	Subject  string        `json:"subject,omitempty"`
	Message  string        `json:"message"`
}
