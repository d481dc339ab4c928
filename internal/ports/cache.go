package ports

import (
	"context"
	"errors"
	"time"

	"github.com/seu-repo/agrovoz/internal/domain"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// EventEmitter publishes domain events to the message bus.
type EventEmitter interface {
	Emit(ev domain.DomainEvent)
}
