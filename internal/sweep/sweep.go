// Package sweep implements the ratio based cleanup of client-managed
// torrents: every torrent the daemon reports is matched against the snatch
// history and removed once its payload has been ingested into the library
// and its seed ratio passed the originating provider's cutoff.
package sweep

import (
	"context"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"github.com/seedsweep/seedsweep/internal/client"
)

// History answers questions about the snatch history database.
type History interface {
	IsInfoHashKnown(hash string) bool
	IsInfoHashProcessed(hash string) bool
	ProviderForInfoHash(hash string) string
	IsPathProcessed(path string) bool
}

// Media classifies torrent payload paths.
type Media interface {
	IsMediaFile(path string) bool
	Extension(path string) string
}

// Policy is a provider's seed ratio cutoff. A ratio of -1 means torrents
// from this provider are never removed based on ratio.
type Policy struct {
	Name  string
	Ratio float64
}

// Providers lists the active torrent providers ordered by priority.
type Providers interface {
	ActiveTorrentProviders() []Policy
}

// Client is the subset of the adapter contract the engine drives.
type Client interface {
	Authenticate(ctx context.Context) error
	Torrents(ctx context.Context) ([]client.Torrent, error)
	Remove(ctx context.Context, hash string) error
}

type Engine struct {
	client     Client
	history    History
	media      Media
	providers  Providers
	label      string
	animeLabel string
	log        zerolog.Logger
}

func NewEngine(c Client, history History, media Media, providers Providers, label, animeLabel string, logger zerolog.Logger) *Engine {
	return &Engine{
		client:     c,
		history:    history,
		media:      media,
		providers:  providers,
		label:      label,
		animeLabel: animeLabel,
		log:        logger,
	}
}

// Run performs one cleanup sweep. It returns false only when no
// authenticated session or torrent list could be obtained; per-torrent
// outcomes are logged, not returned. Records are processed strictly
// sequentially and a failed removal never aborts the rest of the sweep.
func (e *Engine) Run(ctx context.Context) bool {
	e.log.Info().Msg("checking client torrent status")

	if err := e.client.Authenticate(ctx); err != nil {
		e.log.Warn().Err(err).Msg("unable to connect to torrent client")
		return false
	}

	torrents, err := e.client.Torrents(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("unable to list torrents")
		return false
	}

	cutoffs := make(map[string]float64)
	for _, p := range e.providers.ActiveTorrentProviders() {
		cutoffs[p.Name] = p.Ratio
	}

	for _, t := range torrents {
		e.log.Debug().Str("hash", t.Hash).Str("name", t.Name).Msg("evaluating torrent")

		// Never touch torrents we did not snatch.
		if !e.history.IsInfoHashKnown(t.Hash) {
			e.log.Debug().Str("hash", t.Hash).Msg("not in snatch history, skipping")
			continue
		}

		// Label filtering only applies when both labels are configured.
		if e.label != "" && e.animeLabel != "" && t.Label != e.label && t.Label != e.animeLabel {
			e.log.Debug().Str("hash", t.Hash).Str("label", t.Label).Msg("label does not match, skipping")
			continue
		}

		if !e.ingested(t) {
			e.log.Debug().Str("hash", t.Hash).Msg("not processed into the library yet, skipping")
			continue
		}

		provider := e.history.ProviderForInfoHash(t.Hash)
		cutoff, known := cutoffs[provider]
		e.log.Debug().
			Str("hash", t.Hash).
			Float64("ratio", t.Ratio).
			Str("provider", provider).
			Bool("providerKnown", known).
			Float64("cutoff", cutoff).
			Msg("comparing torrent ratio against provider cutoff")

		if !known || cutoff == -1 || t.Ratio < cutoff {
			e.log.Info().
				Str("name", t.Name).
				Str("hash", t.Hash).
				Float64("ratio", t.Ratio).
				Float64("cutoff", cutoff).
				Msg("ratio below provider cutoff, keeping")
			continue
		}

		e.log.Info().
			Str("name", t.Name).
			Str("hash", t.Hash).
			Float64("ratio", t.Ratio).
			Float64("cutoff", cutoff).
			Str("size", units.HumanSize(float64(t.Size))).
			Msg("ratio reached provider cutoff, removing")

		if err := e.client.Remove(ctx, t.Hash); err != nil {
			e.log.Warn().Err(err).Str("hash", t.Hash).Msg("failed to remove torrent")
		}
	}

	return true
}

// ingested reports whether at least one payload file is a media or rar file
// that was processed into the library, either by path or by the torrent's
// own info-hash. Archive-only torrents leave no matchable media path, which
// is what the hash-level check covers.
func (e *Engine) ingested(t client.Torrent) bool {
	for _, path := range t.Files {
		if !e.media.IsMediaFile(path) && e.media.Extension(path) != "rar" {
			e.log.Debug().Str("hash", t.Hash).Str("file", path).Msg("not a media or rar file, skipping file")
			continue
		}
		if e.history.IsPathProcessed(path) || e.history.IsInfoHashProcessed(t.Hash) {
			e.log.Debug().Str("hash", t.Hash).Str("file", path).Msg("file was processed")
			return true
		}
	}
	return false
}
