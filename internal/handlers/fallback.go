package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
	"github.com/edustack/ai-resilience-go-backend/internal/resilience"
)

// FallbackDiagnostics is the fallback-focused operator view: incidents,
// aggregate stats, trends and recommendations in one payload.
func (e *Env) FallbackDiagnostics(c *gin.Context) {
	all := e.Analyzer.GetAllIncidents()
	recent := make([]models.Incident, 0, 10)
	for i := len(all) - 1; i >= 0 && len(recent) < 10; i-- {
		recent = append(recent, all[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"activeIncidents": e.Analyzer.GetActiveIncidents(),
		"recentIncidents": recent,
		"triggerCounts":   e.Analyzer.GetTriggerCounts(),
		"stats":           e.Trends.GetStats(),
		"trends":          e.Trends.GetTrends(24 * time.Hour),
		"recommendations": e.Trends.GetRecommendations(),
		"fallbackConfig":  e.Selector.GetConfig(),
	})
}

func (e *Env) FallbackAction(c *gin.Context) {
	var req struct {
		Action     string                      `json:"action"`
		Trigger    string                      `json:"trigger"`
		Subject    string                      `json:"subject"`
		Topic      string                      `json:"topic"`
		ErrorCode  string                      `json:"errorCode"`
		Message    string                      `json:"message"`
		Resolution string                      `json:"resolution"`
		Tier       int                         `json:"tier"`
		Config     *models.FallbackConfigPatch `json:"config"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "resolve_incident":
		trigger, err := models.ParseTrigger(req.Trigger)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		incident, err := e.Analyzer.ResolveFallback(trigger, req.Subject, req.Resolution)
		if err != nil {
			if errors.Is(err, resilience.ErrIncidentNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "No open incident matches"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"incident": incident})

	case "test_fallback":
		trigger, err := models.ParseTrigger(req.Trigger)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		message := req.Message
		if message == "" {
			message = "synthetic fallback from diagnostics"
		}
		incident := e.Analyzer.RecordFallback(trigger, message, resilience.FallbackContext{
			Subject:   req.Subject,
			Topic:     req.Topic,
			ErrorCode: req.ErrorCode,
		})
		tier := resilience.TierForIncident(incident.Count, e.Tracker.GetServiceStatus("ai-tutor"), e.Selector.Escalation())
		if req.Tier != 0 {
			parsed, err := models.ParseTier(req.Tier)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tier = parsed
		}
		content := e.Selector.GetFallbackContent(req.Subject, req.Topic, resilience.FallbackOptions{Tier: tier, Trigger: trigger})
		c.JSON(http.StatusOK, gin.H{"incident": incident, "content": content})

	case "update_fallback_config":
		if req.Config == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "config is required"})
			return
		}
		if err := e.Selector.UpdateConfig(*req.Config); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"fallbackConfig": e.Selector.GetConfig()})

	case "clear_fallback_data":
		e.Analyzer.ClearData()
		e.Trends.ClearData()
		c.JSON(http.StatusOK, gin.H{"message": "fallback data cleared"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}
