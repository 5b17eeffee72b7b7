package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

// SQL stores records in the kv_entries table. The table must be migrated
// (repo.AutoMigrate does it).
type SQL struct {
	db *gorm.DB
}

// NewSQL wraps a GORM handle.
func NewSQL(db *gorm.DB) *SQL { return &SQL{db: db} }

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var row domain.KVEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	row := domain.KVEntry{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&domain.KVEntry{}).Error
}

// Update compares the stored bytes on write: the UPDATE only lands when the
// row still holds the value fn saw, and a first insert only lands when no
// row appeared meanwhile. Losing either race re-reads and retries.
func (s *SQL) Update(ctx context.Context, key string, fn UpdateFunc) error {
	db := s.db.WithContext(ctx)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		old, err := s.Get(ctx, key)
		found := err == nil
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		next, err := fn(old, found)
		if errors.Is(err, ErrSkipWrite) {
			return nil
		}
		if err != nil {
			return err
		}

		var res *gorm.DB
		if found {
			res = db.Model(&domain.KVEntry{}).
				Where("key = ? AND value = ?", key, old).
				Updates(map[string]any{"value": next, "updated_at": time.Now()})
		} else {
			res = db.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&domain.KVEntry{Key: key, Value: next})
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrConflict, key)
}

// Keys uses LIKE for the coarse filter and re-checks the prefix because LIKE
// treats '_' and '%' in the prefix as wildcards.
func (s *SQL) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.WithContext(ctx).Model(&domain.KVEntry{}).
		Where("key LIKE ?", prefix+"%").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}
