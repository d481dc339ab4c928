package queue

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/pkg/config"
)

func configFor(driver string) config.QueueConfig {
	return config.QueueConfig{Driver: driver}
}

type loopbackQueue struct {
	handlers map[string][]func([]byte) error
	failPub  error
}

func newLoopbackQueue() *loopbackQueue {
	return &loopbackQueue{handlers: make(map[string][]func([]byte) error)}
}

func (q *loopbackQueue) Publish(subject string, data []byte) error {
	if q.failPub != nil {
		return q.failPub
	}
	for _, h := range q.handlers[subject] {
		if err := h(data); err != nil {
			return err
		}
	}
	return nil
}

func (q *loopbackQueue) Subscribe(subject string, handler func([]byte) error) error {
	q.handlers[subject] = append(q.handlers[subject], handler)
	return nil
}

func (q *loopbackQueue) Close() error { return nil }

func TestEventBus_EmitAndListen(t *testing.T) {
	mq := newLoopbackQueue()
	bus := NewEventBus(mq, zap.NewNop())

	var got []domain.DomainEvent
	if err := bus.Listen(func(ev domain.DomainEvent) error {
		got = append(got, ev)
		return nil
	}); err != nil {
		t.Fatalf("Listen returned error: %v", err)
	}

	bus.Emit(domain.DomainEvent{Type: "animal.created", FarmID: "farm-1", EntityID: "a-1"})

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != "animal.created" || got[0].FarmID != "farm-1" || got[0].EntityID != "a-1" {
		t.Errorf("unexpected event %+v", got[0])
	}
	if got[0].OccurredAt.IsZero() {
		t.Error("expected OccurredAt to be stamped")
	}
}

func TestEventBus_EmitSwallowsPublishError(t *testing.T) {
	mq := newLoopbackQueue()
	mq.failPub = errors.New("broker down")
	bus := NewEventBus(mq, zap.NewNop())

	// Must not panic or block.
	bus.Emit(domain.DomainEvent{Type: "task.created", FarmID: "farm-1"})
}

func TestNew_DiscardDriver(t *testing.T) {
	mq, err := New(configFor("none"), zap.NewNop())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := mq.Publish("x", []byte("y")); err != nil {
		t.Errorf("discard queue should accept publishes, got %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New(configFor("kafka"), zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
