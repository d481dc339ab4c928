package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/pkg/config"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New connects the driver selected in config. Driver "none" returns a queue
// that drops every message, for single-node deploys without a broker.
func New(cfg config.QueueConfig, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Driver {
	case "nats":
		return NewNATSQueue(cfg.NATSURL, log)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.RabbitMQURL, log)
	case "none", "":
		log.Warn("Message queue disabled, domain events will not leave the process")
		return discardQueue{}, nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}

type discardQueue struct{}

func (discardQueue) Publish(string, []byte) error { return nil }

func (discardQueue) Subscribe(string, func(data []byte) error) error { return nil }

func (discardQueue) Close() error { return nil }
