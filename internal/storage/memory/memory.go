// Package memory is a map-backed storage backend used in tests and in dev
// mode when no durable backend is configured.
package memory

import (
	"context"
	"sync"
)

type Backend struct {
	mu     sync.RWMutex
	values map[string]string
}

func New() *Backend {
	return &Backend{values: make(map[string]string)}
}

func (b *Backend) Load(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	value, ok := b.values[key]
	return value, ok, nil
}

func (b *Backend) Save(_ context.Context, key string, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = value
	return nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)
	return nil
}
