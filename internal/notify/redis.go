package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/edustack/ai-resilience-go-backend/internal/models"

	"github.com/go-redis/redis/v8"
)

const DefaultChannel = "resilience.alerts"

// RedisPublisher pushes created alerts onto a redis channel for whatever
// delivery pipeline (email, push, webhook bridge) is subscribed. Best
// effort: a failed publish is logged, never retried here.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Notify(alert models.Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("alert publish marshal failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.Printf("alert publish failed: %v", err)
	}
}
