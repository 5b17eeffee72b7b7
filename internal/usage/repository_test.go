package usage

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/antiscam-chat-backend/internal/domain"
	"github.com/tbourn/antiscam-chat-backend/internal/kvstore"
)

func TestKVRepository_UserRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	r := NewKVRepository(store)

	_, found, err := r.LoadUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)

	rec := domain.UserUsage{
		Requests:      []domain.UsageEntry{{Timestamp: 100, Tokens: 40}},
		SessionTokens: 40,
		TotalRequests: 3,
		TotalTokens:   120,
	}
	require.NoError(t, r.SaveUser(ctx, "u1", rec))
	require.NoError(t, r.SaveUser(ctx, "web-user-ab12cd34", domain.UserUsage{}))

	got, found, err := r.LoadUser(ctx, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, got)

	raw, err := store.Get(ctx, "usage:user:u1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"total_tokens":120`)

	ids, err := r.ListUsers(ctx)
	require.NoError(t, err)
	sort.Strings(ids)
	assert.Equal(t, []string{"u1", "web-user-ab12cd34"}, ids)

	require.NoError(t, r.DeleteUser(ctx, "u1"))
	_, found, err = r.LoadUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKVRepository_GlobalIsNotListedAsUser(t *testing.T) {
	ctx := context.Background()
	r := NewKVRepository(kvstore.NewMemory())

	st := domain.GlobalStats{Hourly: domain.GlobalWindow{Count: 2, Tokens: 90, Start: 3600}}
	require.NoError(t, r.SaveGlobal(ctx, st))

	got, found, err := r.LoadGlobal(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, st, got)

	ids, err := r.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
