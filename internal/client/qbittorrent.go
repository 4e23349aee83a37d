package client

import (
	"context"
	"errors"
	"fmt"

	qbittorrent "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog/log"

	"github.com/seedsweep/seedsweep/internal/config"
)

// QbitAdapter drives qBittorrent through its web API.
type QbitAdapter struct {
	cfg     *config.Config
	conn    config.ClientConfig
	session *qbittorrent.Client
}

func newQbit(cfg *config.Config) Adapter {
	return &QbitAdapter{cfg: cfg, conn: cfg.Clients["qbittorrent"]}
}

func (c *QbitAdapter) Descriptor() Descriptor {
	return qbitDesc
}

func (c *QbitAdapter) Authenticate(ctx context.Context) error {
	if c.session != nil {
		return nil
	}
	if c.conn.URL == "" {
		return fmt.Errorf("%w: no qBittorrent url configured", ErrAuthentication)
	}

	qb := qbittorrent.NewClient(qbittorrent.Config{
		Host:          c.conn.URL,
		Username:      c.conn.Username,
		Password:      c.conn.Password,
		BasicUser:     c.conn.BasicUser,
		BasicPass:     c.conn.BasicPass,
		TLSSkipVerify: !c.conn.VerifyCert,
	})

	if err := qb.LoginCtx(ctx); err != nil {
		if errors.Is(err, qbittorrent.ErrBadCredentials) || errors.Is(err, qbittorrent.ErrIPBanned) {
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	log.Debug().Str("url", c.conn.URL).Msg("connected to qbittorrent")
	c.session = qb
	return nil
}

func (c *QbitAdapter) ResetSession() {
	c.session = nil
}

func (c *QbitAdapter) Test(ctx context.Context) (bool, string) {
	return testConnection(ctx, c)
}

func (c *QbitAdapter) AddMagnet(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}

	if err := c.session.AddTorrentFromUrlCtx(ctx, job.MagnetURI, c.submitMap(job)); err != nil {
		log.Warn().Err(err).Str("hash", job.InfoHash).Msg("error while sending magnet to qbittorrent")
		return false
	}
	return true
}

func (c *QbitAdapter) AddFile(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}

	if err := c.session.AddTorrentFromMemoryCtx(ctx, job.Payload, c.submitMap(job)); err != nil {
		log.Warn().Err(err).Str("hash", job.InfoHash).Msg("error while sending torrent to qbittorrent")
		return false
	}
	return true
}

func (c *QbitAdapter) submitMap(job *Job) map[string]string {
	opts := submitOptionsFor(c.cfg, job)

	m := map[string]string{}
	if opts.Label != "" {
		m["category"] = opts.Label
	}
	if opts.SavePath != "" {
		m["savepath"] = opts.SavePath
	}
	if !opts.Start {
		m["paused"] = "true"
	}
	return m
}

func (c *QbitAdapter) Torrents(ctx context.Context) ([]Torrent, error) {
	if c.session == nil {
		return nil, ErrAuthentication
	}

	list, err := c.session.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		c.ResetSession()
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	out := make([]Torrent, 0, len(list))
	for _, t := range list {
		rec := Torrent{
			Hash:  t.Hash,
			Name:  t.Name,
			Label: t.Category,
			Ratio: t.Ratio,
			Size:  t.Size,
		}

		files, err := c.session.GetFilesInformationCtx(ctx, t.Hash)
		if err != nil {
			log.Warn().Err(err).Str("hash", t.Hash).Msg("failed to list torrent files")
		} else if files != nil {
			for _, f := range *files {
				rec.Files = append(rec.Files, f.Name)
			}
		}

		out = append(out, rec)
	}
	return out, nil
}

func (c *QbitAdapter) Remove(ctx context.Context, hash string) error {
	if c.session == nil {
		return ErrAuthentication
	}

	if err := c.session.DeleteTorrentsCtx(ctx, []string{hash}, false); err != nil {
		return fmt.Errorf("failed to remove torrent %s: %w", hash, err)
	}
	return nil
}
