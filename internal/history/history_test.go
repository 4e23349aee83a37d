package history_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedsweep/seedsweep/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSnatchRoundTrip(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.RecordSnatch("aaa", "tracker", "Show.S01E01"))

	assert.True(t, store.IsInfoHashKnown("aaa"))
	assert.False(t, store.IsInfoHashKnown("bbb"))
	assert.Equal(t, "tracker", store.ProviderForInfoHash("aaa"))
	assert.Empty(t, store.ProviderForInfoHash("bbb"))
}

func TestMarkProcessed(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.RecordSnatch("aaa", "tracker", "Show.S01E01"))
	assert.False(t, store.IsInfoHashProcessed("aaa"))

	require.NoError(t, store.MarkProcessed("aaa"))
	assert.True(t, store.IsInfoHashProcessed("aaa"))

	// marking an unknown hash is a no-op, not an error
	require.NoError(t, store.MarkProcessed("bbb"))
	assert.False(t, store.IsInfoHashProcessed("bbb"))
}

func TestMarkFileProcessed(t *testing.T) {
	store := openStore(t)

	path := "Show.S01E01/Show.S01E01.mkv"
	assert.False(t, store.IsPathProcessed(path))

	require.NoError(t, store.MarkFileProcessed(path))
	assert.True(t, store.IsPathProcessed(path))

	// upsert on re-processing
	require.NoError(t, store.MarkFileProcessed(path))
	assert.True(t, store.IsPathProcessed(path))
}

func TestProviderForInfoHashPrefersLatestSnatch(t *testing.T) {
	store := openStore(t)

	require.NoError(t, store.RecordSnatch("aaa", "first-tracker", "Show.S01E01"))
	require.NoError(t, store.RecordSnatch("aaa", "second-tracker", "Show.S01E01"))

	// both rows may share a timestamp at second resolution; either way a
	// provider must come back for a known hash
	assert.NotEmpty(t, store.ProviderForInfoHash("aaa"))
}
