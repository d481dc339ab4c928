package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/domain"
)

const sendTimeout = 15 * time.Second

// EventSource delivers domain events to a handler.
type EventSource interface {
	Listen(handler func(ev domain.DomainEvent) error) error
}

// TaskMailer sends the task-assignment email.
type TaskMailer interface {
	SendTaskAssigned(ctx context.Context, task *domain.Task) error
}

// TaskNotifier emails the assignee when a task is created with an assignee
// or reassigned by an update.
type TaskNotifier struct {
	mailer TaskMailer
	log    *zap.Logger
}

func NewTaskNotifier(mailer TaskMailer, log *zap.Logger) *TaskNotifier {
	return &TaskNotifier{mailer: mailer, log: log}
}

// Start subscribes the notifier to the event source.
func (n *TaskNotifier) Start(src EventSource) error {
	if err := src.Listen(n.Handle); err != nil {
		return fmt.Errorf("subscribe task notifier: %w", err)
	}
	n.log.Info("Task notifier started")
	return nil
}

// Handle processes one event. Events other than task creates and updates
// are ignored.
func (n *TaskNotifier) Handle(ev domain.DomainEvent) error {
	if ev.Type != "task.created" && ev.Type != "task.updated" {
		return nil
	}
	if ev.Payload == nil {
		return nil
	}

	task, err := decodeTask(ev.Payload)
	if err != nil {
		return fmt.Errorf("decode task payload: %w", err)
	}
	if task.AssigneeEmail == "" {
		return nil
	}
	switch task.Status {
	case domain.TaskStatusCompleted, domain.TaskStatusCancelled:
		return nil
	}
	if task.ID == "" {
		task.ID = ev.EntityID
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := n.mailer.SendTaskAssigned(ctx, task); err != nil {
		return err
	}

	n.log.Info("Task assignee notified",
		zap.String("task_id", ev.EntityID),
		zap.String("farm_id", ev.FarmID),
		zap.String("assignee", task.AssigneeEmail),
	)
	return nil
}

// decodeTask accepts the payload as published (a *domain.Task) or as it
// arrives from the bus (a decoded JSON object).
func decodeTask(payload interface{}) (*domain.Task, error) {
	if task, ok := payload.(*domain.Task); ok {
		return task, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
