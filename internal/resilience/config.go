package resilience

import (
	"encoding/json"
	"log"
	"os"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

// LoadFallbackConfig reads a JSON fallback config from path, falling back
// to the built-in defaults when the path is empty or unreadable. A broken
// file must not take the subsystem down with it.
func LoadFallbackConfig(path string) models.FallbackConfig {
	if path == "" {
		return models.DefaultFallbackConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("fallback config %s unreadable, using defaults: %v", path, err)
		return models.DefaultFallbackConfig()
	}

	cfg := models.DefaultFallbackConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("fallback config %s invalid, using defaults: %v", path, err)
		return models.DefaultFallbackConfig()
	}
	if cfg.LastResort == "" {
		cfg.LastResort = models.DefaultFallbackConfig().LastResort
	}
	return cfg
}
