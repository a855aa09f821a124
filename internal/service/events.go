package service

import (
	"context"
	"encoding/json"

	"team_messaging/internal/bus"
	"team_messaging/pkg/logger"
)

// publishEvent отправляет событие в шину. Fan-out — best effort:
// неудачная публикация логируется, но не откатывает уже записанное состояние.
func publishEvent(ctx context.Context, eventBus bus.Bus, topic, name string, payload interface{}, exclude string, log logger.Logger) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("Failed to marshal event payload", "event", name, "error", err)
		return
	}

	event := bus.Event{
		Topic:   topic,
		Name:    name,
		Payload: data,
		Exclude: exclude,
	}

	if err := eventBus.Publish(ctx, event); err != nil {
		log.Error("Failed to publish event", "event", name, "topic", topic, "error", err)
	}
}
