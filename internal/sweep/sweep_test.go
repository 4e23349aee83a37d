package sweep_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedsweep/seedsweep/internal/client"
	"github.com/seedsweep/seedsweep/internal/mediafile"
	"github.com/seedsweep/seedsweep/internal/sweep"
)

type fakeClient struct {
	authErr   error
	listErr   error
	torrents  []client.Torrent
	removeErr map[string]error

	attempts []string
	removed  []string
}

func (f *fakeClient) Authenticate(ctx context.Context) error { return f.authErr }

func (f *fakeClient) Torrents(ctx context.Context) ([]client.Torrent, error) {
	return f.torrents, f.listErr
}

func (f *fakeClient) Remove(ctx context.Context, hash string) error {
	f.attempts = append(f.attempts, hash)
	if err := f.removeErr[hash]; err != nil {
		return err
	}
	f.removed = append(f.removed, hash)
	return nil
}

type fakeHistory struct {
	known         map[string]bool
	processedHash map[string]bool
	processedPath map[string]bool
	providers     map[string]string
}

func (f *fakeHistory) IsInfoHashKnown(hash string) bool     { return f.known[hash] }
func (f *fakeHistory) IsInfoHashProcessed(hash string) bool { return f.processedHash[hash] }
func (f *fakeHistory) IsPathProcessed(path string) bool     { return f.processedPath[path] }
func (f *fakeHistory) ProviderForInfoHash(hash string) string {
	return f.providers[hash]
}

type fakeProviders struct {
	policies []sweep.Policy
}

func (f *fakeProviders) ActiveTorrentProviders() []sweep.Policy { return f.policies }

func tvTorrent(hash string, ratio float64) client.Torrent {
	return client.Torrent{
		Hash:  hash,
		Name:  "Show.S01E01",
		Label: "tv",
		Ratio: ratio,
		Files: []string{"Show.S01E01/Show.S01E01.mkv"},
	}
}

func snatchedHistory(hash, provider string) *fakeHistory {
	return &fakeHistory{
		known:         map[string]bool{hash: true},
		processedHash: map[string]bool{},
		processedPath: map[string]bool{"Show.S01E01/Show.S01E01.mkv": true},
		providers:     map[string]string{hash: provider},
	}
}

func newEngine(c sweep.Client, h sweep.History, p sweep.Providers) *sweep.Engine {
	return sweep.NewEngine(c, h, mediafile.Classifier{}, p, "tv", "anime", zerolog.Nop())
}

func TestRunRemovesWhenRatioReached(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 2.0)}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, snatchedHistory("aaa", "tracker"), providers)
	require.True(t, engine.Run(context.Background()))

	assert.Equal(t, []string{"aaa"}, fc.removed)
}

func TestRunKeepsWhenRatioBelowCutoff(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 1.0)}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, snatchedHistory("aaa", "tracker"), providers)
	require.True(t, engine.Run(context.Background()))

	assert.Empty(t, fc.attempts)
}

func TestRunRemovesAtExactCutoff(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 1.5)}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, snatchedHistory("aaa", "tracker"), providers)
	require.True(t, engine.Run(context.Background()))

	assert.Equal(t, []string{"aaa"}, fc.removed)
}

func TestRunSkipsTorrentsOutsideHistory(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 99.0)}}
	h := &fakeHistory{
		known:         map[string]bool{},
		processedHash: map[string]bool{},
		processedPath: map[string]bool{},
		providers:     map[string]string{},
	}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, h, providers)
	require.True(t, engine.Run(context.Background()))

	assert.Empty(t, fc.attempts, "torrents outside the snatch history must never be touched")
}

func TestRunSkipsForeignLabelWhenBothLabelsConfigured(t *testing.T) {
	torrent := tvTorrent("aaa", 99.0)
	torrent.Label = "movies"

	fc := &fakeClient{torrents: []client.Torrent{torrent}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, snatchedHistory("aaa", "tracker"), providers)
	require.True(t, engine.Run(context.Background()))

	assert.Empty(t, fc.attempts)
}

func TestRunIgnoresLabelFilterWhenOneLabelEmpty(t *testing.T) {
	torrent := tvTorrent("aaa", 2.0)
	torrent.Label = "movies"

	fc := &fakeClient{torrents: []client.Torrent{torrent}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := sweep.NewEngine(
		fc, snatchedHistory("aaa", "tracker"), mediafile.Classifier{}, providers,
		"tv", "", zerolog.Nop(),
	)
	require.True(t, engine.Run(context.Background()))

	assert.Equal(t, []string{"aaa"}, fc.removed)
}

func TestRunSkipsWithoutMediaOrRarFiles(t *testing.T) {
	torrent := tvTorrent("aaa", 99.0)
	torrent.Files = []string{"Show.S01E01/Show.S01E01.nfo", "Show.S01E01/screens.png"}

	fc := &fakeClient{torrents: []client.Torrent{torrent}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, snatchedHistory("aaa", "tracker"), providers)
	require.True(t, engine.Run(context.Background()))

	assert.Empty(t, fc.attempts)
}

func TestRunSkipsUnprocessedTorrents(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 99.0)}}
	h := snatchedHistory("aaa", "tracker")
	h.processedPath = map[string]bool{}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, h, providers)
	require.True(t, engine.Run(context.Background()))

	assert.Empty(t, fc.attempts, "ratio alone must not trigger removal without ingestion evidence")
}

func TestRunRemovesArchiveOnlyTorrentByHash(t *testing.T) {
	// rar-only payload: no media path can match, the hash-level check applies
	torrent := tvTorrent("aaa", 2.0)
	torrent.Files = []string{"Show.S01E01/Show.S01E01.rar", "Show.S01E01/Show.S01E01.sfv"}

	fc := &fakeClient{torrents: []client.Torrent{torrent}}
	h := snatchedHistory("aaa", "tracker")
	h.processedPath = map[string]bool{}
	h.processedHash = map[string]bool{"aaa": true}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, h, providers)
	require.True(t, engine.Run(context.Background()))

	assert.Equal(t, []string{"aaa"}, fc.removed)
}

func TestRunKeepsOnUnboundedRatioSentinel(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 99.0)}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: -1}}}

	engine := newEngine(fc, snatchedHistory("aaa", "tracker"), providers)
	require.True(t, engine.Run(context.Background()))

	assert.Empty(t, fc.attempts)
}

func TestRunKeepsWhenProviderNotActive(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 99.0)}}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "other-tracker", Ratio: 1.5}}}

	engine := newEngine(fc, snatchedHistory("aaa", "tracker"), providers)
	require.True(t, engine.Run(context.Background()))

	assert.Empty(t, fc.attempts)
}

func TestRunContinuesAfterRemoveFailure(t *testing.T) {
	fc := &fakeClient{
		torrents: []client.Torrent{
			tvTorrent("aaa", 2.0),
			tvTorrent("bbb", 2.0),
		},
		removeErr: map[string]error{"aaa": errors.New("daemon says no")},
	}
	h := &fakeHistory{
		known:         map[string]bool{"aaa": true, "bbb": true},
		processedHash: map[string]bool{},
		processedPath: map[string]bool{"Show.S01E01/Show.S01E01.mkv": true},
		providers:     map[string]string{"aaa": "tracker", "bbb": "tracker"},
	}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, h, providers)
	require.True(t, engine.Run(context.Background()))

	assert.Equal(t, []string{"aaa", "bbb"}, fc.attempts)
	assert.Equal(t, []string{"bbb"}, fc.removed)
}

func TestRunIsIdempotentAcrossSweeps(t *testing.T) {
	fc := &fakeClient{torrents: []client.Torrent{tvTorrent("aaa", 2.0), tvTorrent("bbb", 1.0)}}
	h := &fakeHistory{
		known:         map[string]bool{"aaa": true, "bbb": true},
		processedHash: map[string]bool{},
		processedPath: map[string]bool{"Show.S01E01/Show.S01E01.mkv": true},
		providers:     map[string]string{"aaa": "tracker", "bbb": "tracker"},
	}
	providers := &fakeProviders{policies: []sweep.Policy{{Name: "tracker", Ratio: 1.5}}}

	engine := newEngine(fc, h, providers)
	require.True(t, engine.Run(context.Background()))
	assert.Equal(t, []string{"aaa"}, fc.removed)

	// erased torrents no longer show up in the daemon's list
	fc.torrents = []client.Torrent{tvTorrent("bbb", 1.0)}
	fc.attempts = nil
	fc.removed = nil

	require.True(t, engine.Run(context.Background()))
	assert.Empty(t, fc.attempts)
}

func TestRunFailsWithoutSession(t *testing.T) {
	fc := &fakeClient{authErr: errors.New("connection refused")}
	providers := &fakeProviders{}

	engine := newEngine(fc, &fakeHistory{}, providers)
	assert.False(t, engine.Run(context.Background()))
	assert.Empty(t, fc.attempts)
}

func TestRunFailsWhenListingFails(t *testing.T) {
	fc := &fakeClient{listErr: errors.New("timeout")}
	providers := &fakeProviders{}

	engine := newEngine(fc, &fakeHistory{}, providers)
	assert.False(t, engine.Run(context.Background()))
}
