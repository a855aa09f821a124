package bus

import (
	"context"
	"sync"
)

// memoryBus — внутрипроцессная шина для single-node развертываний и тестов.
type memoryBus struct {
	mu   sync.RWMutex
	subs []chan Event
}

func NewMemoryBus() Bus {
	return &memoryBus{}
}

func (b *memoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event, 256)

	b.mu.Lock()
	b.subs = append(b.subs, events)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub == events {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(events)
				break
			}
		}
	}()

	return events, nil
}

func (b *memoryBus) Close() error {
	return nil
}
