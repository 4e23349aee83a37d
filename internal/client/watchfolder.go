package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/seedsweep/seedsweep/internal/config"
)

// WatchFolderAdapter drops submissions into a directory watched by an
// external daemon. It can submit but never list or remove, so it does not
// advertise remove capability.
type WatchFolderAdapter struct {
	cfg   *config.Config
	conn  config.ClientConfig
	ready bool
}

func newWatchFolder(cfg *config.Config) Adapter {
	return &WatchFolderAdapter{cfg: cfg, conn: cfg.Clients["watchfolder"]}
}

func (c *WatchFolderAdapter) Descriptor() Descriptor {
	return watchFolderDesc
}

func (c *WatchFolderAdapter) Authenticate(ctx context.Context) error {
	if c.ready {
		return nil
	}
	if c.conn.WatchDir == "" {
		return fmt.Errorf("%w: no watch directory configured", ErrAuthentication)
	}

	if err := os.MkdirAll(c.conn.WatchDir, 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	c.ready = true
	return nil
}

func (c *WatchFolderAdapter) ResetSession() {
	c.ready = false
}

func (c *WatchFolderAdapter) Test(ctx context.Context) (bool, string) {
	return testConnection(ctx, c)
}

func (c *WatchFolderAdapter) AddMagnet(ctx context.Context, job *Job) bool {
	if !c.ready || job == nil {
		return false
	}

	// rTorrent style .magnet stub, picked up like a torrent file.
	path := filepath.Join(c.conn.WatchDir, fmt.Sprintf("%s.magnet", job.InfoHash))
	if err := os.WriteFile(path, []byte(job.MagnetURI), 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to write magnet file")
		return false
	}

	log.Info().Str("path", path).Msg("saved magnet file to watch directory")
	return true
}

func (c *WatchFolderAdapter) AddFile(ctx context.Context, job *Job) bool {
	if !c.ready || job == nil {
		return false
	}

	path := filepath.Join(c.conn.WatchDir, fmt.Sprintf("%s.torrent", job.Name))
	if err := os.WriteFile(path, job.Payload, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to write torrent file")
		return false
	}

	log.Info().Str("path", path).Msg("saved torrent file to watch directory")
	return true
}

func (c *WatchFolderAdapter) Torrents(ctx context.Context) ([]Torrent, error) {
	return nil, fmt.Errorf("%w: watch folder cannot list torrents", ErrUnsupported)
}

func (c *WatchFolderAdapter) Remove(ctx context.Context, hash string) error {
	return fmt.Errorf("%w: watch folder cannot remove torrents", ErrUnsupported)
}
