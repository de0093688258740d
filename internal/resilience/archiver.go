package resilience

import (
	"context"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/models"
)

// Archiver is an optional write-behind persistence collaborator. The core
// never reads archived data back; decision algorithms stay memory-only.
type Archiver interface {
	ArchiveIncident(ctx context.Context, incident models.Incident) error
	ArchiveAlert(ctx context.Context, alert models.Alert) error
}

const archiveTimeout = 5 * time.Second

func archiveIncident(a Archiver, incident models.Incident) error {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	return a.ArchiveIncident(ctx, incident)
}

func archiveAlert(a Archiver, alert models.Alert) error {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	return a.ArchiveAlert(ctx, alert)
}
