package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/archive"
	"github.com/edustack/ai-resilience-go-backend/internal/auth"
	"github.com/edustack/ai-resilience-go-backend/internal/db"
	"github.com/edustack/ai-resilience-go-backend/internal/handlers"
	"github.com/edustack/ai-resilience-go-backend/internal/notify"
	"github.com/edustack/ai-resilience-go-backend/internal/resilience"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	db.InitRedis()

	tracker := resilience.NewHealthTracker(resilience.DefaultHealthThresholds())
	dispatcher := resilience.NewAlertDispatcher(resilience.DefaultDedupWindow)
	analyzer := resilience.NewIncidentAnalyzer(resilience.DefaultAlertThresholds(), dispatcher, tracker)
	selector := resilience.NewFallbackSelector(resilience.LoadFallbackConfig(os.Getenv("FALLBACK_CONFIG_PATH")))
	trends := resilience.NewTrendAggregator(analyzer, resilience.DefaultTrendRules())

	dispatcher.SetNotifier(notify.NewRedisPublisher(db.RedisClient, os.Getenv("ALERT_CHANNEL")))

	if os.Getenv("MONGO_URI") != "" {
		db.InitMongo()
		archiver := archive.NewMongo(db.DB)
		analyzer.SetArchiver(archiver)
		dispatcher.SetArchiver(archiver)
	}

	env := handlers.NewEnv(analyzer, selector, tracker, dispatcher, trends)

	prober := resilience.NewProber(tracker, resilience.DefaultProbeTimeout)
	if targets := probeTargets(os.Getenv("PROVIDER_HEALTH_URLS")); len(targets) > 0 {
		go prober.Run(context.Background(), time.Minute, targets)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin","Authorization","X-Requested-With", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge: 12 * time.Hour,
	}))

	r.POST("/register", handlers.Register)
	r.POST("/login", handlers.Login)
	r.POST("/refresh", handlers.RefreshToken)

	protected := r.Group("/api")
	protected.Use(auth.AuthMiddleware())
	{
		protected.GET("/diagnostics", env.Diagnostics)
		protected.POST("/diagnostics", env.DiagnosticsAction)

		protected.GET("/fallback-diagnostics", env.FallbackDiagnostics)
		protected.POST("/fallback-diagnostics", env.FallbackAction)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}

// probeTargets parses "groq=https://host/health,ollama=http://host/ping".
func probeTargets(spec string) map[string]string {
	targets := make(map[string]string)
	for _, pair := range strings.Split(spec, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			continue
		}
		targets[name] = url
	}
	return targets
}
