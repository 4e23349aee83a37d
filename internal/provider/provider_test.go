package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seedsweep/seedsweep/internal/config"
	"github.com/seedsweep/seedsweep/internal/provider"
	"github.com/seedsweep/seedsweep/internal/sweep"
)

func ratio(v float64) *float64 { return &v }

func TestActiveTorrentProviders(t *testing.T) {
	cfg := &config.Config{
		Providers: []config.Provider{
			{Name: "low", Type: "torrent", Enabled: true, Priority: 1, Ratio: ratio(1.0)},
			{Name: "high", Type: "torrent", Enabled: true, Priority: 10, Ratio: ratio(2.0)},
			{Name: "disabled", Type: "torrent", Enabled: false, Priority: 99, Ratio: ratio(1.0)},
			{Name: "usenet", Type: "nzb", Enabled: true, Priority: 99},
			{Name: "no-cutoff", Type: "torrent", Enabled: true, Priority: 5},
		},
	}

	policies := provider.NewRegistry(cfg).ActiveTorrentProviders()
	require.Len(t, policies, 3)

	// ordered by priority, highest first
	assert.Equal(t, sweep.Policy{Name: "high", Ratio: 2.0}, policies[0])
	assert.Equal(t, sweep.Policy{Name: "no-cutoff", Ratio: -1}, policies[1])
	assert.Equal(t, sweep.Policy{Name: "low", Ratio: 1.0}, policies[2])
}

func TestActiveTorrentProvidersEmptyConfig(t *testing.T) {
	policies := provider.NewRegistry(&config.Config{}).ActiveTorrentProviders()
	assert.Empty(t, policies)
}
