package db

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var DB *mongo.Database

// InitMongo connects using MONGO_URI/MONGO_DB. Called from main; the
// resilience core itself never touches mongo, so deployments without it
// skip this and run memory-only.
func InitMongo() {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "airesilience"
	}

	clientOptions := options.Client().ApplyURI(mongoURI)
	client, err := mongo.NewClient(clientOptions)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = client.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}

	DB = client.Database(mongoDB)
}

// MongoConfigured reports whether InitMongo has run. The user store and
// the archiver are unavailable without it.
func MongoConfigured() bool {
	return DB != nil
}

func GetCollection(collectionName string) *mongo.Collection {
	return DB.Collection(collectionName)
}
