// Package provider exposes the configured content-source policies to the
// cleanup sweep.
package provider

import (
	"sort"

	"github.com/seedsweep/seedsweep/internal/config"
	"github.com/seedsweep/seedsweep/internal/sweep"
)

// Registry adapts configured providers to the sweep's policy lookup.
type Registry struct {
	cfg *config.Config
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg}
}

// ActiveTorrentProviders returns the enabled torrent providers ordered by
// priority, highest first. A provider without a configured ratio gets the
// -1 sentinel, meaning its torrents are never removed based on ratio.
func (r *Registry) ActiveTorrentProviders() []sweep.Policy {
	active := make([]config.Provider, 0, len(r.cfg.Providers))
	for _, p := range r.cfg.Providers {
		if !p.Enabled {
			continue
		}
		if p.Type != "" && p.Type != "torrent" {
			continue
		}
		active = append(active, p)
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})

	policies := make([]sweep.Policy, 0, len(active))
	for _, p := range active {
		ratio := -1.0
		if p.Ratio != nil {
			ratio = *p.Ratio
		}
		policies = append(policies, sweep.Policy{Name: p.Name, Ratio: ratio})
	}
	return policies
}
