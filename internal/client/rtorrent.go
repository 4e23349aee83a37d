package client

import (
	"context"
	"fmt"

	rtorrent "github.com/autobrr/go-rtorrent"
	"github.com/rs/zerolog/log"

	"github.com/seedsweep/seedsweep/internal/config"
)

// RTorrentAdapter drives rTorrent over XML-RPC.
type RTorrentAdapter struct {
	cfg     *config.Config
	conn    config.ClientConfig
	session *rtorrent.Client
}

func newRTorrent(cfg *config.Config) Adapter {
	return &RTorrentAdapter{cfg: cfg, conn: cfg.Clients["rtorrent"]}
}

func (c *RTorrentAdapter) Descriptor() Descriptor {
	return rtorrentDesc
}

func (c *RTorrentAdapter) Authenticate(ctx context.Context) error {
	if c.session != nil {
		return nil
	}
	if c.conn.URL == "" {
		return fmt.Errorf("%w: no rTorrent url configured", ErrAuthentication)
	}

	basicUser, basicPass := c.conn.BasicUser, c.conn.BasicPass
	if basicUser == "" {
		basicUser, basicPass = c.conn.Username, c.conn.Password
	}

	rt := rtorrent.NewClient(rtorrent.Config{
		Addr:          c.conn.URL,
		BasicUser:     basicUser,
		BasicPass:     basicPass,
		TLSSkipVerify: !c.conn.VerifyCert,
	})

	// rTorrent has no login call; asking for the daemon name proves the
	// endpoint is reachable and credentials are accepted.
	if _, err := rt.Name(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	log.Debug().Str("url", c.conn.URL).Msg("connected to rtorrent")
	c.session = rt
	return nil
}

func (c *RTorrentAdapter) ResetSession() {
	c.session = nil
}

func (c *RTorrentAdapter) Test(ctx context.Context) (bool, string) {
	return testConnection(ctx, c)
}

func (c *RTorrentAdapter) AddMagnet(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}

	if err := c.session.Add(ctx, job.MagnetURI, c.submitArgs(job)...); err != nil {
		log.Warn().Err(err).Str("hash", job.InfoHash).Msg("error while sending magnet to rtorrent")
		return false
	}
	return true
}

func (c *RTorrentAdapter) AddFile(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}

	if err := c.session.AddTorrent(ctx, job.Payload, c.submitArgs(job)...); err != nil {
		log.Warn().Err(err).Str("hash", job.InfoHash).Msg("error while sending torrent to rtorrent")
		return false
	}
	return true
}

func (c *RTorrentAdapter) submitArgs(job *Job) []*rtorrent.FieldValue {
	opts := submitOptionsFor(c.cfg, job)

	var args []*rtorrent.FieldValue
	if opts.Label != "" {
		args = append(args, rtorrent.DLabel.SetValue(opts.Label))
	}
	if opts.SavePath != "" {
		args = append(args, rtorrent.Field("d.directory").SetValue(opts.SavePath))
	}
	return args
}

func (c *RTorrentAdapter) Torrents(ctx context.Context) ([]Torrent, error) {
	if c.session == nil {
		return nil, ErrAuthentication
	}

	list, err := c.session.GetTorrents(ctx, rtorrent.ViewMain)
	if err != nil {
		c.ResetSession()
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	out := make([]Torrent, 0, len(list))
	for _, t := range list {
		rec := Torrent{
			Hash:  t.Hash,
			Name:  t.Name,
			Label: t.Label,
			Ratio: t.Ratio,
			Size:  int64(t.Size),
		}

		files, err := c.session.GetFiles(ctx, t)
		if err != nil {
			log.Warn().Err(err).Str("hash", t.Hash).Msg("failed to list torrent files")
		} else {
			for _, f := range files {
				rec.Files = append(rec.Files, f.Path)
			}
		}

		out = append(out, rec)
	}
	return out, nil
}

func (c *RTorrentAdapter) Remove(ctx context.Context, hash string) error {
	if c.session == nil {
		return ErrAuthentication
	}

	if err := c.session.Delete(ctx, rtorrent.Torrent{Hash: hash}); err != nil {
		return fmt.Errorf("failed to remove torrent %s: %w", hash, err)
	}
	return nil
}
