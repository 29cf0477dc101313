package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/querycore/querycore/cacheprovider"
)

func TestGetSetRemove(t *testing.T) {
	p := New(0)
	ctx := context.Background()

	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	entry := cacheprovider.Entry{Data: json.RawMessage(`{"a":1}`), LastUpdated: time.Now()}
	require.NoError(t, p.Set(ctx, "k", entry))

	got, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, string(entry.Data), string(got.Data))

	require.NoError(t, p.Remove(ctx, "k"))
	_, ok, err = p.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvictionBoundsCapacity(t *testing.T) {
	p := New(2)
	ctx := context.Background()
	entry := cacheprovider.Entry{Data: json.RawMessage(`1`), LastUpdated: time.Now()}

	require.NoError(t, p.Set(ctx, "a", entry))
	require.NoError(t, p.Set(ctx, "b", entry))
	require.NoError(t, p.Set(ctx, "c", entry))

	_, ok, _ := p.Get(ctx, "a")
	require.False(t, ok, "oldest entry should have been evicted once capacity was exceeded")
}

func TestInvalidEntryTreatedAsMiss(t *testing.T) {
	p := New(0)
	ctx := context.Background()
	// A zero-value Entry (no LastUpdated) is invalid per Entry.Valid.
	require.NoError(t, p.Set(ctx, "k", cacheprovider.Entry{Data: json.RawMessage(`1`)}))
	_, ok, _ := p.Get(ctx, "k")
	require.False(t, ok)
}
