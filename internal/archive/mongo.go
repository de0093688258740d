package archive

import (
	"context"

	"github.com/edustack/ai-resilience-go-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a write-behind archive for resolved incidents and raised
// alerts. It only ever writes; the in-memory registries stay the source of
// truth for the process lifetime.
type Mongo struct {
	db *mongo.Database
}

func NewMongo(database *mongo.Database) *Mongo {
	return &Mongo{db: database}
}

func (m *Mongo) ArchiveIncident(ctx context.Context, incident models.Incident) error {
	collection := m.db.Collection("incidents")
	filter := bson.M{"_id": incident.ID}
	_, err := collection.ReplaceOne(ctx, filter, incident, options.Replace().SetUpsert(true))
	return err
}

func (m *Mongo) ArchiveAlert(ctx context.Context, alert models.Alert) error {
	collection := m.db.Collection("alerts")
	filter := bson.M{"_id": alert.ID}
	_, err := collection.ReplaceOne(ctx, filter, alert, options.Replace().SetUpsert(true))
	return err
}
