package usage

import (
	"context"
	"strings"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/kvstore"
)

// Key layout inside the shared KV store.
const (
	userKeyPrefix = "usage:user:"
	globalKey     = "usage:global"
)

// Repository persists usage records. UpdateUser and UpdateGlobal must be
// atomic with respect to every process sharing the storage; fn edits the
// record in place and reports whether to write it back. fn may run more
// than once.
type Repository interface {
	LoadUser(ctx context.Context, userID string) (rec domain.UserUsage, found bool, err error)
	SaveUser(ctx context.Context, userID string, rec domain.UserUsage) error
	UpdateUser(ctx context.Context, userID string, fn func(rec *domain.UserUsage, found bool) (bool, error)) error
	DeleteUser(ctx context.Context, userID string) error
	ListUsers(ctx context.Context) ([]string, error)
	LoadGlobal(ctx context.Context) (stats domain.GlobalStats, found bool, err error)
	SaveGlobal(ctx context.Context, stats domain.GlobalStats) error
	UpdateGlobal(ctx context.Context, fn func(stats *domain.GlobalStats, found bool) (bool, error)) error
}

// KVRepository is the Repository over a kvstore.Store.
type KVRepository struct {
	Store kvstore.Store
}

// NewKVRepository wraps s.
func NewKVRepository(s kvstore.Store) *KVRepository { return &KVRepository{Store: s} }

func (r *KVRepository) LoadUser(ctx context.Context, userID string) (domain.UserUsage, bool, error) {
	var rec domain.UserUsage
	found, err := kvstore.GetJSON(ctx, r.Store, userKeyPrefix+userID, &rec)
	return rec, found, err
}

func (r *KVRepository) SaveUser(ctx context.Context, userID string, rec domain.UserUsage) error {
	return kvstore.PutJSON(ctx, r.Store, userKeyPrefix+userID, rec)
}

func (r *KVRepository) UpdateUser(ctx context.Context, userID string, fn func(*domain.UserUsage, bool) (bool, error)) error {
	return kvstore.UpdateJSON(ctx, r.Store, userKeyPrefix+userID, fn)
}

func (r *KVRepository) DeleteUser(ctx context.Context, userID string) error {
	return r.Store.Delete(ctx, userKeyPrefix+userID)
}

func (r *KVRepository) ListUsers(ctx context.Context) ([]string, error) {
	keys, err := r.Store.Keys(ctx, userKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, userKeyPrefix))
	}
	return ids, nil
}

func (r *KVRepository) LoadGlobal(ctx context.Context) (domain.GlobalStats, bool, error) {
	var st domain.GlobalStats
	found, err := kvstore.GetJSON(ctx, r.Store, globalKey, &st)
	return st, found, err
}

func (r *KVRepository) SaveGlobal(ctx context.Context, st domain.GlobalStats) error {
	return kvstore.PutJSON(ctx, r.Store, globalKey, st)
}

func (r *KVRepository) UpdateGlobal(ctx context.Context, fn func(*domain.GlobalStats, bool) (bool, error)) error {
	return kvstore.UpdateJSON(ctx, r.Store, globalKey, fn)
}
