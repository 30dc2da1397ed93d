package favorites

import (
	"context"
	"testing"

	"github.com/coinwatch/coinwatch-backend/pkg/kv/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backing := memory.NewStore()
	t.Cleanup(func() { backing.Close() })
	return NewStore(backing, zap.NewNop().Sugar())
}

func TestLoadMissingKeyReturnsEmptySet(t *testing.T) {
	store := newTestStore(t)

	set := store.Load(context.Background())
	assert.NotNil(t, set)
	assert.Empty(t, set)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := map[string]struct{}{"bitcoin": {}, "ethereum": {}}
	require.NoError(t, store.Save(ctx, want))

	got := store.Load(ctx)
	assert.Equal(t, want, got)
}

func TestLoadCorruptValueReturnsEmptySet(t *testing.T) {
	backing := memory.NewStore()
	t.Cleanup(func() { backing.Close() })
	store := NewStore(backing, zap.NewNop().Sugar())
	ctx := context.Background()

	require.NoError(t, backing.SetString(ctx, Key, "{definitely not json"))

	set := store.Load(ctx)
	assert.NotNil(t, set)
	assert.Empty(t, set)
}

func TestSaveOverwritesPreviousSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]struct{}{"bitcoin": {}, "solana": {}}))
	require.NoError(t, store.Save(ctx, map[string]struct{}{"ethereum": {}}))

	got := store.Load(ctx)
	assert.Equal(t, map[string]struct{}{"ethereum": {}}, got)
}

func TestSaveEmptySetPersistsEmptyArray(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]struct{}{"bitcoin": {}}))
	require.NoError(t, store.Save(ctx, map[string]struct{}{}))

	assert.Empty(t, store.Load(ctx))
}
