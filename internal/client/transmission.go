package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/hekmon/transmissionrpc/v3"
	"github.com/rs/zerolog/log"

	"github.com/seedsweep/seedsweep/internal/config"
)

// TransmissionAdapter drives Transmission over its JSON-RPC endpoint.
type TransmissionAdapter struct {
	cfg     *config.Config
	conn    config.ClientConfig
	session *transmissionrpc.Client
}

func newTransmission(cfg *config.Config) Adapter {
	return &TransmissionAdapter{cfg: cfg, conn: cfg.Clients["transmission"]}
}

func (c *TransmissionAdapter) Descriptor() Descriptor {
	return transmissionDesc
}

func (c *TransmissionAdapter) Authenticate(ctx context.Context) error {
	if c.session != nil {
		return nil
	}
	if c.conn.URL == "" {
		return fmt.Errorf("%w: no Transmission url configured", ErrAuthentication)
	}

	endpoint, err := url.Parse(c.conn.URL)
	if err != nil {
		return fmt.Errorf("%w: invalid transmission url: %v", ErrAuthentication, err)
	}
	if c.conn.Username != "" {
		endpoint.User = url.UserPassword(c.conn.Username, c.conn.Password)
	}

	client, err := transmissionrpc.New(endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	if _, err := client.SessionArgumentsGetAll(ctx); err != nil {
		if strings.Contains(err.Error(), "401") || strings.Contains(err.Error(), "403") {
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	log.Debug().Str("url", c.conn.URL).Msg("connected to transmission")
	c.session = client
	return nil
}

func (c *TransmissionAdapter) ResetSession() {
	c.session = nil
}

func (c *TransmissionAdapter) Test(ctx context.Context) (bool, string) {
	return testConnection(ctx, c)
}

func (c *TransmissionAdapter) AddMagnet(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}

	payload := transmissionrpc.TorrentAddPayload{Filename: &job.MagnetURI}
	return c.add(ctx, job, payload)
}

func (c *TransmissionAdapter) AddFile(ctx context.Context, job *Job) bool {
	if c.session == nil || job == nil {
		return false
	}

	meta := base64.StdEncoding.EncodeToString(job.Payload)
	payload := transmissionrpc.TorrentAddPayload{MetaInfo: &meta}
	return c.add(ctx, job, payload)
}

func (c *TransmissionAdapter) add(ctx context.Context, job *Job, payload transmissionrpc.TorrentAddPayload) bool {
	opts := submitOptionsFor(c.cfg, job)
	if opts.SavePath != "" {
		payload.DownloadDir = &opts.SavePath
	}

	t, err := c.session.TorrentAdd(ctx, payload)
	if err != nil {
		log.Warn().Err(err).Str("hash", job.InfoHash).Msg("error while sending torrent to transmission")
		return false
	}
	if t.ID == nil {
		return false
	}

	if opts.Label != "" {
		err := c.session.TorrentSet(ctx, transmissionrpc.TorrentSetPayload{
			IDs:    []int64{*t.ID},
			Labels: []string{opts.Label},
		})
		if err != nil {
			log.Warn().Err(err).Str("label", opts.Label).Msg("failed to set transmission label")
		}
	}
	return true
}

func (c *TransmissionAdapter) Torrents(ctx context.Context) ([]Torrent, error) {
	if c.session == nil {
		return nil, ErrAuthentication
	}

	list, err := c.session.TorrentGetAll(ctx)
	if err != nil {
		c.ResetSession()
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	out := make([]Torrent, 0, len(list))
	for _, t := range list {
		var rec Torrent
		if t.HashString != nil {
			rec.Hash = *t.HashString
		}
		if t.Name != nil {
			rec.Name = *t.Name
		}
		// Transmission reports -1 before any download activity.
		if t.UploadRatio != nil && *t.UploadRatio > 0 {
			rec.Ratio = *t.UploadRatio
		}
		if len(t.Labels) > 0 {
			rec.Label = t.Labels[0]
		}
		for _, f := range t.Files {
			rec.Files = append(rec.Files, f.Name)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *TransmissionAdapter) Remove(ctx context.Context, hash string) error {
	if c.session == nil {
		return ErrAuthentication
	}

	// transmission removes by numeric id, so resolve the hash first.
	list, err := c.session.TorrentGetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve torrent %s: %w", hash, err)
	}

	for _, t := range list {
		if t.HashString == nil || t.ID == nil || !strings.EqualFold(*t.HashString, hash) {
			continue
		}
		err := c.session.TorrentRemove(ctx, transmissionrpc.TorrentRemovePayload{
			IDs:             []int64{*t.ID},
			DeleteLocalData: false,
		})
		if err != nil {
			return fmt.Errorf("failed to remove torrent %s: %w", hash, err)
		}
		return nil
	}
	return fmt.Errorf("torrent %s not found in transmission", hash)
}
