package bus

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"team_messaging/pkg/logger"
)

const redisChannel = "chat:events"

type redisBus struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedisBus(client *redis.Client, log logger.Logger) Bus {
	return &redisBus{client: client, log: log}
}

func (b *redisBus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, redisChannel, data).Err()
}

func (b *redisBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := b.client.Subscribe(ctx, redisChannel)

	// Дожидаемся подтверждения подписки, иначе первые публикации могут потеряться
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	events := make(chan Event, 256)
	go func() {
		defer close(events)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.log.Error("Failed to decode bus event", "error", err)
					continue
				}
				events <- event
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (b *redisBus) Close() error {
	return nil
}
