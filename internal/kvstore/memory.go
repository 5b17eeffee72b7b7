package kvstore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Memory keeps records in a process-local go-cache without expiry. Values are
// copied on the way in and out so callers never share backing arrays.
type Memory struct {
	c *cache.Cache
	// mu orders writers so Update never interleaves with Put or Delete.
	mu sync.Mutex
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{c: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := v.([]byte)
	return append([]byte(nil), b...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Set(key, append([]byte(nil), value...), cache.NoExpiration)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c.Delete(key)
	return nil
}

func (m *Memory) Update(ctx context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, err := m.Get(ctx, key)
	found := err == nil
	next, err := fn(old, found)
	if errors.Is(err, ErrSkipWrite) {
		return nil
	}
	if err != nil {
		return err
	}
	m.c.Set(key, append([]byte(nil), next...), cache.NoExpiration)
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	items := m.c.Items()
	out := make([]string, 0, len(items))
	for k := range items {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}
