package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartstudy-backend/internal/models"
)

type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Publisher fans updates out through Redis so that every server instance
// holding a socket for the user can relay them.
type Publisher struct {
	redis publishClient
}

func NewPublisher(rdb publishClient) *Publisher {
	return &Publisher{redis: rdb}
}

func (p *Publisher) PublishTopicProgress(ctx context.Context, userID uuid.UUID, event models.TopicProgressEvent) error {
	return p.publish(ctx, userID, models.WSMessage{Type: models.WSTypeTopicProgress, Payload: event})
}

func (p *Publisher) publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	if err := p.redis.Publish(ctx, UserChannel(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s message: %w", msg.Type, err)
	}
	return nil
}
