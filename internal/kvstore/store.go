// Package kvstore is the key/value persistence layer behind the usage and
// abuse trackers. Records are opaque byte slices; JSON helpers encode the
// typed records from package domain.
//
// Three backends share the Store contract:
//   - memory: process-local, github.com/patrickmn/go-cache
//   - redis:  github.com/redis/go-redis/v9, shared across replicas
//   - sql:    a kv_entries table through GORM (SQLite by default)
//
// A missing key is reported as ErrNotFound, never as a zero value.
//
// Update is the only safe read-modify-write. The redis and sql backends run
// it as an optimistic compare-and-swap, so replicas sharing one store do not
// lose each other's writes; the memory backend serializes it in process.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("kvstore: key not found")
	// ErrSkipWrite returned from an UpdateFunc leaves the key untouched and
	// makes Update return nil.
	ErrSkipWrite = errors.New("kvstore: skip write")
	// ErrConflict is returned when Update keeps losing races for a key.
	ErrConflict = errors.New("kvstore: too many concurrent updates")
)

// maxUpdateAttempts bounds compare-and-swap retries per Update call.
const maxUpdateAttempts = 32

// UpdateFunc maps the current value (nil and found=false when missing) to
// the value to store. It may run more than once, so it must not have side
// effects beyond its own return values.
type UpdateFunc func(old []byte, found bool) ([]byte, error)

// Store is the minimal contract the trackers depend on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists every key starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Update atomically replaces the value at key with fn's result.
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// GetJSON decodes the value at key into out. It reports found=false (and a nil
// error) when the key is missing so callers can keep their default.
func GetJSON(ctx context.Context, s Store, key string, out any) (found bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("kvstore: decode %q: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it at key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}
	return s.Put(ctx, key, raw)
}

// UpdateJSON runs Update on the decoded record at key. fn edits v in place
// and reports whether it should be written back.
func UpdateJSON[T any](ctx context.Context, s Store, key string, fn func(v *T, found bool) (bool, error)) error {
	return s.Update(ctx, key, func(old []byte, found bool) ([]byte, error) {
		var v T
		if found {
			if err := json.Unmarshal(old, &v); err != nil {
				return nil, fmt.Errorf("kvstore: decode %q: %w", key, err)
			}
		}
		write, err := fn(&v, found)
		if err != nil {
			return nil, err
		}
		if !write {
			return nil, ErrSkipWrite
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("kvstore: encode %q: %w", key, err)
		}
		return raw, nil
	})
}

// Options selects and configures a backend.
type Options struct {
	Backend string // memory|redis|sql

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string // namespace applied by the redis backend

	DB *gorm.DB // required for the sql backend
}

// Open builds the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.Prefix,
		})
	case "sql", "sqlite":
		if opts.DB == nil {
			return nil, errors.New("kvstore: sql backend requires a database handle")
		}
		return NewSQL(opts.DB), nil
	default:
		return nil, fmt.Errorf("kvstore: unsupported backend %q", opts.Backend)
	}
}
