package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
)

// SubjectFarmEvents carries every record mutation as a domain.DomainEvent.
const SubjectFarmEvents = "agrovoz.farm.events"

// EventBus publishes and consumes domain events over a MessageQueue.
type EventBus struct {
	mq  MessageQueue
	log *zap.Logger
}

func NewEventBus(mq MessageQueue, log *zap.Logger) *EventBus {
	return &EventBus{mq: mq, log: log}
}

// Emit publishes the event. Failures are logged, not returned.
func (b *EventBus) Emit(ev domain.DomainEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.log.Error("Failed to marshal domain event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	if err := b.mq.Publish(SubjectFarmEvents, data); err != nil {
		b.log.Warn("Failed to publish domain event",
			zap.String("type", ev.Type),
			zap.String("entity_id", ev.EntityID),
			zap.Error(err),
		)
	}
}

// Listen decodes events and passes them to handler.
func (b *EventBus) Listen(handler func(ev domain.DomainEvent) error) error {
	return b.mq.Subscribe(SubjectFarmEvents, func(data []byte) error {
		var ev domain.DomainEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode domain event: %w", err)
		}
		return handler(ev)
	})
}
