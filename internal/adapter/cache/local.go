package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/ports"
)

// LocalCache keeps entries in process memory. It backs single-node
// deployments that run without Redis; revoked tokens and dashboard
// summaries do not survive a restart.
type LocalCache struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	now     func() time.Time
	log     *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

type localEntry struct {
	value    string
	deadline time.Time // zero: never expires
}

func (e localEntry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && !now.Before(e.deadline)
}

// NewLocalCache starts a sweeper that drops expired entries every
// cleanupInterval (one minute when unset).
func NewLocalCache(cleanupInterval time.Duration, log *zap.Logger) ports.Cache {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}
	c := &LocalCache{
		entries: make(map[string]localEntry),
		now:     time.Now,
		log:     log,
		done:    make(chan struct{}),
	}
	go c.sweepEvery(cleanupInterval)

	log.Info("Using in-memory cache", zap.Duration("cleanup_interval", cleanupInterval))
	return c
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		return "", ports.ErrCacheMiss
	}
	return e.value, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}

	e := localEntry{value: string(encoded)}
	if expiration > 0 {
		e.deadline = c.now().Add(expiration)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error { return nil }

func (c *LocalCache) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *LocalCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if n := c.sweep(); n > 0 {
				c.log.Debug("Dropped expired cache entries", zap.Int("count", n))
			}
		}
	}
}

func (c *LocalCache) sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}
