package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"team_messaging/pkg/logger"
)

const natsSubjectPrefix = "chat.events"

type natsBus struct {
	nc  *nats.Conn
	log logger.Logger
}

func NewNATSBus(url string, log logger.Logger) (Bus, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &natsBus{nc: nc, log: log}, nil
}

func (b *natsBus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.nc.Publish(natsSubjectPrefix+"."+event.Topic, data)
}

func (b *natsBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event, 256)

	sub, err := b.nc.Subscribe(natsSubjectPrefix+".>", func(msg *nats.Msg) {
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			b.log.Error("Failed to decode bus event", "error", err, "subject", msg.Subject)
			return
		}
		select {
		case events <- event:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s.>: %w", natsSubjectPrefix, err)
	}

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
		close(events)
	}()

	return events, nil
}

func (b *natsBus) Close() error {
	b.nc.Close()
	return nil
}
