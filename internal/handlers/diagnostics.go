package handlers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
	"github.com/edustack/ai-resilience-go-backend/internal/resilience"
)

func environment() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	return "development"
}

// Diagnostics returns the operator snapshot of the whole subsystem.
func (e *Env) Diagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp":            time.Now(),
		"systemHealth":         e.Tracker.GetSystemHealth(),
		"activeIncidents":      e.Analyzer.GetActiveIncidents(),
		"unacknowledgedAlerts": e.Dispatcher.GetUnacknowledgedAlerts(),
		"fallbackConfig":       e.Selector.GetConfig(),
		"environment":          environment(),
	})
}

// DiagnosticsAction dispatches the POST body's action to the subsystem.
// Unknown actions are a 400; the core itself only ever sees typed calls.
func (e *Env) DiagnosticsAction(c *gin.Context) {
	var req struct {
		Action         string            `json:"action"`
		Type           string            `json:"type"`
		Severity       string            `json:"severity"`
		Title          string            `json:"title"`
		Message        string            `json:"message"`
		Source         string            `json:"source"`
		Metadata       map[string]string `json:"metadata"`
		AlertID        string            `json:"alertId"`
		AcknowledgedBy string            `json:"acknowledgedBy"`
		Service        string            `json:"service"`
		Status         string            `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "test_alert":
		alertType := models.AlertServiceDegraded
		if req.Type != "" {
			parsed, err := models.ParseAlertType(req.Type)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			alertType = parsed
		}
		severity := models.SeverityInfo
		if req.Severity != "" {
			parsed, err := models.ParseSeverity(req.Severity)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			severity = parsed
		}
		title := req.Title
		if title == "" {
			title = "Test alert"
		}
		source := req.Source
		if source == "" {
			source = "diagnostics"
		}
		alert := e.Dispatcher.SendAlert(alertType, severity, title, req.Message, source, req.Metadata)
		c.JSON(http.StatusOK, gin.H{"alert": alert})

	case "acknowledge_alert":
		by := req.AcknowledgedBy
		if by == "" {
			if username, ok := c.Get("username"); ok {
				by = username.(string)
			}
		}
		alert, err := e.Dispatcher.AcknowledgeAlert(req.AlertID, by)
		if err != nil {
			if errors.Is(err, resilience.ErrAlertNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Alert not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"alert": alert})

	case "test_health_check":
		if req.Service == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "service is required"})
			return
		}
		status, err := models.ParseServiceStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		e.Tracker.UpdateServiceHealth(req.Service, status, req.Message, req.Metadata)
		c.JSON(http.StatusOK, gin.H{"systemHealth": e.Tracker.GetSystemHealth()})

	case "clear_cache":
		// Caches outside this subsystem; nothing to do here.
		c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}
