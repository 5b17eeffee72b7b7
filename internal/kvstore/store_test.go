package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
)

func newSQLStore(t *testing.T) *SQL {
	t.Helper()
	dsn := fmt.Sprintf("file:kv_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.KVEntry{}))
	return NewSQL(db)
}

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisWithClient(client, "test:"), mr
}

func backends(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemory(),
		"redis":  rs,
		"sql":    newSQLStore(t),
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "usage:user:a_1", []byte(`{"n":1}`)))
			require.NoError(t, s.Put(ctx, "usage:user:b", []byte(`{"n":2}`)))
			require.NoError(t, s.Put(ctx, "abuse:user:a_1", []byte(`{}`)))

			got, err := s.Get(ctx, "usage:user:a_1")
			require.NoError(t, err)
			assert.Equal(t, `{"n":1}`, string(got))

			// overwrite
			require.NoError(t, s.Put(ctx, "usage:user:b", []byte(`{"n":3}`)))
			got, err = s.Get(ctx, "usage:user:b")
			require.NoError(t, err)
			assert.Equal(t, `{"n":3}`, string(got))

			keys, err := s.Keys(ctx, "usage:user:")
			require.NoError(t, err)
			sort.Strings(keys)
			assert.Equal(t, []string{"usage:user:a_1", "usage:user:b"}, keys)

			require.NoError(t, s.Delete(ctx, "usage:user:b"))
			_, err = s.Get(ctx, "usage:user:b")
			assert.ErrorIs(t, err, ErrNotFound)
			// deleting again is fine
			require.NoError(t, s.Delete(ctx, "usage:user:b"))
		})
	}
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// missing key: fn sees found=false and creates it
			require.NoError(t, s.Update(ctx, "n", func(old []byte, found bool) ([]byte, error) {
				assert.False(t, found)
				assert.Nil(t, old)
				return []byte("1"), nil
			}))
			require.NoError(t, s.Update(ctx, "n", func(old []byte, found bool) ([]byte, error) {
				assert.True(t, found)
				assert.Equal(t, "1", string(old))
				return []byte("2"), nil
			}))

			require.NoError(t, s.Update(ctx, "n", func([]byte, bool) ([]byte, error) { return nil, ErrSkipWrite }))
			assert.ErrorIs(t, s.Update(ctx, "n", func([]byte, bool) ([]byte, error) { return nil, boom }), boom)

			got, err := s.Get(ctx, "n")
			require.NoError(t, err)
			assert.Equal(t, "2", string(got))

			// skipping a missing key does not create it
			require.NoError(t, s.Update(ctx, "absent", func([]byte, bool) ([]byte, error) { return nil, ErrSkipWrite }))
			_, err = s.Get(ctx, "absent")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

// A write that lands between Update's read and its write must not be lost:
// the swap fails and fn runs again on the newer value.
func TestStore_UpdateRetriesAfterConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	rs, _ := newRedisStore(t)
	shared := map[string]Store{"redis": rs, "sql": newSQLStore(t)}
	for name, s := range shared {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "c", []byte("1")))

			calls := 0
			err := s.Update(ctx, "c", func(old []byte, _ bool) ([]byte, error) {
				calls++
				if calls == 1 {
					// another replica bumps the counter meanwhile
					require.NoError(t, s.Put(ctx, "c", []byte("5")))
				}
				n, _ := strconv.Atoi(string(old))
				return []byte(strconv.Itoa(n + 1)), nil
			})
			require.NoError(t, err)
			assert.Equal(t, 2, calls)

			got, err := s.Get(ctx, "c")
			require.NoError(t, err)
			assert.Equal(t, "6", string(got))
		})
	}
}

func TestStore_UpdateConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	rs, _ := newRedisStore(t)
	for name, s := range map[string]Store{"memory": NewMemory(), "redis": rs} {
		t.Run(name, func(t *testing.T) {
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				errs []error
			)
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 5; j++ {
						err := UpdateJSON(ctx, s, "counter", func(n *int, _ bool) (bool, error) {
							*n++
							return true, nil
						})
						if err != nil {
							mu.Lock()
							errs = append(errs, err)
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()
			require.Empty(t, errs)

			var n int
			found, err := GetJSON(ctx, s, "counter", &n)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, 40, n)
		})
	}
}

func TestUpdateJSON(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, UpdateJSON(ctx, s, "usage:user:x", func(rec *domain.UserUsage, found bool) (bool, error) {
		assert.False(t, found)
		rec.TotalRequests = 1
		return true, nil
	}))
	require.NoError(t, UpdateJSON(ctx, s, "usage:user:x", func(rec *domain.UserUsage, found bool) (bool, error) {
		assert.True(t, found)
		assert.EqualValues(t, 1, rec.TotalRequests)
		rec.TotalRequests = 99
		return false, nil
	}))

	var rec domain.UserUsage
	_, err := GetJSON(ctx, s, "usage:user:x", &rec)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rec.TotalRequests)

	require.NoError(t, s.Put(ctx, "bad", []byte("{")))
	assert.Error(t, UpdateJSON(ctx, s, "bad", func(*domain.UserUsage, bool) (bool, error) { return true, nil }))
}

func TestSQL_KeysTreatsUnderscoreLiterally(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)
	require.NoError(t, s.Put(ctx, "u_1", []byte("x")))
	require.NoError(t, s.Put(ctx, "ux1", []byte("y")))

	keys, err := s.Keys(ctx, "u_")
	require.NoError(t, err)
	assert.Equal(t, []string{"u_1"}, keys)
}

func TestRedis_PrefixIsApplied(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)
	require.NoError(t, s.Put(ctx, "global:stats", []byte("{}")))
	assert.True(t, mr.Exists("test:global:stats"))
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[0] = 'z'
	got, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var rec domain.UserUsage
	found, err := GetJSON(ctx, s, "usage:user:x", &rec)
	require.NoError(t, err)
	assert.False(t, found)

	in := domain.UserUsage{TotalRequests: 4, CoolUntil: 99, Requests: []domain.UsageEntry{{Timestamp: 1, Tokens: 2}}}
	require.NoError(t, PutJSON(ctx, s, "usage:user:x", in))

	found, err = GetJSON(ctx, s, "usage:user:x", &rec)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, rec)

	require.NoError(t, s.Put(ctx, "bad", []byte("{")))
	_, err = GetJSON(ctx, s, "bad", &rec)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(ctx, Options{Backend: "sql"})
	assert.Error(t, err)

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Options{Backend: "redis", RedisAddr: mr.Addr(), Prefix: "p:"})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	s.(*Redis).Client().Close()
}
