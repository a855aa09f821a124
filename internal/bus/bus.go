package bus

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Topic глобальных событий (presence)
const TopicGlobal = "global"

func TopicRoom(roomID uuid.UUID) string {
	return "room:" + roomID.String()
}

// Event — конверт, который шина доставляет всем gateway-процессам.
// Exclude содержит идентификатор соединения-отправителя: hub на каждом
// процессе пропускает этот сокет при локальной доставке (семантика socket.to).
type Event struct {
	Topic   string          `json:"topic"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
	Exclude string          `json:"exclude,omitempty"`
}

// Bus — абстракция fan-out между gateway-процессами. Доставка at-least-once,
// порядок гарантируется только в пределах одного топика и одного издателя.
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context) (<-chan Event, error)
	Close() error
}
