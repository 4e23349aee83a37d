package client

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/zeebo/bencode"
)

type torrentMeta struct {
	Info bencode.RawMessage `bencode:"info"`
}

type torrentInfo struct {
	Name   string `bencode:"name"`
	Length int64  `bencode:"length"`
	Files  []struct {
		Length int64    `bencode:"length"`
		Path   []string `bencode:"path"`
	} `bencode:"files"`
}

// JobFromFile builds a submission job from a raw torrent payload. The
// info-hash is the SHA-1 of the bencoded info dictionary.
func JobFromFile(payload []byte) (*Job, error) {
	var meta torrentMeta
	if err := bencode.DecodeBytes(payload, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode torrent payload: %w", err)
	}
	if len(meta.Info) == 0 {
		return nil, fmt.Errorf("torrent payload has no info dictionary")
	}
	sum := sha1.Sum(meta.Info)

	var info torrentInfo
	if err := bencode.DecodeBytes(meta.Info, &info); err != nil {
		return nil, fmt.Errorf("failed to decode torrent info: %w", err)
	}

	name := info.Name
	if name == "" {
		name = "unknown"
	}

	size := info.Length
	if size == 0 {
		for _, f := range info.Files {
			size += f.Length
		}
	}

	return &Job{
		Payload:  payload,
		InfoHash: hex.EncodeToString(sum[:]),
		Name:     name,
		Size:     size,
	}, nil
}

// JobFromMagnet builds a submission job from a magnet URI, taking the
// info-hash from the urn:btih xt parameter.
func JobFromMagnet(uri string) (*Job, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "magnet" {
		return nil, fmt.Errorf("not a magnet uri: %q", uri)
	}

	q := u.Query()

	var hash string
	for _, xt := range q["xt"] {
		if strings.HasPrefix(xt, "urn:btih:") {
			hash = strings.ToLower(strings.TrimPrefix(xt, "urn:btih:"))
			break
		}
	}
	if hash == "" {
		return nil, fmt.Errorf("magnet uri has no btih info-hash")
	}

	return &Job{
		MagnetURI: uri,
		InfoHash:  hash,
		Name:      q.Get("dn"),
	}, nil
}
