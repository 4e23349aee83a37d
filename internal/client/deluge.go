package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/autobrr/go-deluge"
	"github.com/rs/zerolog/log"

	"github.com/seedsweep/seedsweep/internal/config"
)

// delugeConn is the surface shared by the v1 and v2 daemon clients.
type delugeConn interface {
	Connect(ctx context.Context) error
	AddTorrentMagnet(ctx context.Context, magnetURI string, options *deluge.Options) (string, error)
	AddTorrentFile(ctx context.Context, filename, contents string, options *deluge.Options) (string, error)
	TorrentsStatus(ctx context.Context, state deluge.TorrentState, ids []string) (map[string]*deluge.TorrentStatus, error)
	RemoveTorrent(ctx context.Context, id string, rmFiles bool) (bool, error)
	LabelPlugin(ctx context.Context) (*deluge.LabelPlugin, error)
}

// DelugeAdapter drives the Deluge daemon over its RPC protocol.
type DelugeAdapter struct {
	cfg     *config.Config
	conn    config.ClientConfig
	session delugeConn
}

func newDeluge(cfg *config.Config) Adapter {
	return &DelugeAdapter{cfg: cfg, conn: cfg.Clients["deluge"]}
}

func (c *DelugeAdapter) Descriptor() Descriptor {
	return delugeDesc
}

func (c *DelugeAdapter) Authenticate(ctx context.Context) error {
	if c.session != nil {
		return nil
	}
	if c.conn.Host == "" {
		return fmt.Errorf("%w: no Deluge host configured", ErrAuthentication)
	}

	settings := deluge.Settings{
		Hostname: c.conn.Host,
		Port:     uint(c.conn.Port),
		Login:    c.conn.Username,
		Password: c.conn.Password,
	}

	// Try v2 first, fall back to v1.
	v2client := deluge.NewV2(settings)
	if err := v2client.Connect(ctx); err == nil {
		log.Debug().Str("host", c.conn.Host).Msg("connected to deluge v2")
		c.session = v2client
		return nil
	}

	v1client := deluge.NewV1(settings)
	if err := v1client.Connect(ctx); err != nil {
		var rpcErr deluge.RPCError
		if errors.As(err, &rpcErr) {
			return fmt.Errorf("%w: %v", ErrAuthentication, rpcErr)
		}
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	log.Debug().Str("host", c.conn.Host).Msg("connected to deluge v1")
	c.session = v1client
	return nil
}

func (c *DelugeAdapter) ResetSession() {
	c.session = nil
}

func (c *DelugeAdapter) Test(ctx context.Context) (bool, string) {
	return testConnection(ctx, c)
}

func (c *DelugeAdapter) AddMagnet(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}
	opts := submitOptionsFor(c.cfg, job)

	hash, err := c.session.AddTorrentMagnet(ctx, job.MagnetURI, delugeOptions(opts))
	if err != nil {
		log.Warn().Err(err).Str("hash", job.InfoHash).Msg("error while sending magnet to deluge")
		return false
	}
	if hash == "" {
		return false
	}

	c.applyLabel(ctx, hash, opts.Label)
	return true
}

func (c *DelugeAdapter) AddFile(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}
	opts := submitOptionsFor(c.cfg, job)

	contents := base64.StdEncoding.EncodeToString(job.Payload)
	hash, err := c.session.AddTorrentFile(ctx, job.Name+".torrent", contents, delugeOptions(opts))
	if err != nil {
		log.Warn().Err(err).Str("hash", job.InfoHash).Msg("error while sending torrent to deluge")
		return false
	}
	if hash == "" {
		return false
	}

	c.applyLabel(ctx, hash, opts.Label)
	return true
}

func delugeOptions(opts submitOptions) *deluge.Options {
	addPaused := !opts.Start

	options := &deluge.Options{AddPaused: &addPaused}
	if opts.SavePath != "" {
		options.DownloadLocation = &opts.SavePath
	}
	return options
}

// applyLabel sets the label through the Label plugin. The torrent is already
// accepted at this point, so label failures only warn.
func (c *DelugeAdapter) applyLabel(ctx context.Context, hash, label string) {
	if label == "" {
		return
	}

	labelPlugin, err := c.session.LabelPlugin(ctx)
	if err != nil || labelPlugin == nil {
		log.Warn().Err(err).Msg("deluge label plugin not available")
		return
	}

	if err := labelPlugin.AddLabel(ctx, label); err != nil {
		log.Warn().Err(err).Str("label", label).Msg("failed to create deluge label")
		return
	}
	if err := labelPlugin.SetTorrentLabel(ctx, hash, label); err != nil {
		log.Warn().Err(err).Str("hash", hash).Str("label", label).Msg("failed to set deluge label")
	}
}

func (c *DelugeAdapter) Torrents(ctx context.Context) ([]Torrent, error) {
	if c.session == nil {
		return nil, ErrAuthentication
	}

	statuses, err := c.session.TorrentsStatus(ctx, deluge.StateUnspecified, nil)
	if err != nil {
		c.ResetSession()
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	labels := map[string]string{}
	if labelPlugin, err := c.session.LabelPlugin(ctx); err == nil && labelPlugin != nil {
		ids := make([]string, 0, len(statuses))
		for id := range statuses {
			ids = append(ids, id)
		}
		if m, err := labelPlugin.GetTorrentsLabels(deluge.StateUnspecified, ids); err == nil {
			labels = m
		}
	}

	out := make([]Torrent, 0, len(statuses))
	for id, st := range statuses {
		rec := Torrent{
			Hash:  id,
			Name:  st.Name,
			Label: labels[id],
			Ratio: float64(st.Ratio),
			Size:  st.TotalSize,
		}
		for _, f := range st.Files {
			rec.Files = append(rec.Files, f.Path)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *DelugeAdapter) Remove(ctx context.Context, hash string) error {
	if c.session == nil {
		return ErrAuthentication
	}

	ok, err := c.session.RemoveTorrent(ctx, hash, false)
	if err != nil {
		return fmt.Errorf("failed to remove torrent %s: %w", hash, err)
	}
	if !ok {
		return fmt.Errorf("deluge refused to remove torrent %s", hash)
	}
	return nil
}
