package localkv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/querycore/querycore/cacheprovider"
)

func TestSetGetSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	p1 := New(path)
	entry := cacheprovider.Entry{Data: json.RawMessage(`{"a":1}`), LastUpdated: time.Now().Truncate(time.Millisecond)}
	require.NoError(t, p1.Set(ctx, "k", entry))

	p2 := New(path)
	got, ok, err := p2.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, string(entry.Data), string(got.Data))
	require.WithinDuration(t, entry.LastUpdated, got.LastUpdated, time.Millisecond)
}

func TestMissingFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	p := New(path)
	_, ok, err := p.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()
	p := New(path)

	entry := cacheprovider.Entry{Data: json.RawMessage(`1`), LastUpdated: time.Now()}
	require.NoError(t, p.Set(ctx, "k", entry))
	require.NoError(t, p.Remove(ctx, "k"))

	_, ok, _ := p.Get(ctx, "k")
	require.False(t, ok)
}

func TestCorruptFileTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	p := New(path)
	_, ok, err := p.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}
