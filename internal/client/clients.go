// Package client provides the adapter contract and registry for the
// supported torrent client daemons.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/seedsweep/seedsweep/internal/config"
)

var (
	// ErrUnknownClient is returned when a client key is not registered.
	ErrUnknownClient = errors.New("unknown torrent client")

	// ErrConnectivity marks a transport-level failure reaching a daemon.
	ErrConnectivity = errors.New("unable to connect to torrent client")

	// ErrAuthentication marks a reachable daemon rejecting credentials, or
	// a connection config too incomplete to build a session from.
	ErrAuthentication = errors.New("unable to authenticate with torrent client")

	// ErrUnsupported is returned by adapters that cannot perform the
	// requested operation, e.g. the watch folder cannot list or remove.
	ErrUnsupported = errors.New("operation not supported by torrent client")
)

// Descriptor identifies a supported daemon variant.
type Descriptor struct {
	// Name is the external display name, e.g. "qBittorrent".
	Name string
	// Key is the stable registry lookup key, e.g. "qbittorrent".
	Key string
	// SupportsRemove is true when the adapter can erase torrents, which the
	// ratio cleanup sweep requires.
	SupportsRemove bool
}

// Torrent is a torrent as reported live by a daemon.
type Torrent struct {
	Hash  string
	Name  string
	Label string
	// Ratio is uploaded/downloaded as reported by the daemon. Daemons that
	// report no data map to 0.
	Ratio float64
	Size  int64
	Files []string
}

// Job is a download submission: either a magnet URI plus its info-hash, or
// a raw torrent payload.
type Job struct {
	MagnetURI string
	InfoHash  string
	Payload   []byte
	Name      string
	Size      int64
	// Anime switches the submission to the configured anime label.
	Anime bool
}

// Adapter is the capability set every concrete torrent client implements.
//
// Sessions follow a single state machine: Unauthenticated, then
// Authenticate succeeds, then Authenticated until ResetSession or a
// detected protocol fault drops the adapter back to Unauthenticated.
// An authenticated adapter reuses its session for its whole lifetime.
type Adapter interface {
	Descriptor() Descriptor

	// Authenticate establishes a session with the daemon, short-circuiting
	// when one already exists. Failures wrap ErrAuthentication or
	// ErrConnectivity; no raw transport error crosses this boundary.
	Authenticate(ctx context.Context) error

	// ResetSession drops any cached session so the next Authenticate call
	// starts fresh.
	ResetSession()

	// Test resets the session, attempts a fresh authentication and
	// classifies the outcome. It never returns an error.
	Test(ctx context.Context) (bool, string)

	// AddMagnet submits a magnet link. False means the daemon did not
	// confirm acceptance; submission failures are never fatal.
	AddMagnet(ctx context.Context, job *Job) bool

	// AddFile submits a raw torrent payload under the same contract as
	// AddMagnet.
	AddFile(ctx context.Context, job *Job) bool

	// Torrents returns every torrent the daemon currently knows about.
	Torrents(ctx context.Context) ([]Torrent, error)

	// Remove erases the torrent with the given info-hash from the daemon
	// without deleting downloaded data.
	Remove(ctx context.Context, hash string) error
}

// Factory builds a fresh, unauthenticated adapter from configuration.
type Factory func(cfg *config.Config) Adapter

type registration struct {
	desc    Descriptor
	factory Factory
}

var (
	qbitDesc         = Descriptor{Name: "qBittorrent", Key: "qbittorrent", SupportsRemove: true}
	delugeDesc       = Descriptor{Name: "Deluge", Key: "deluge", SupportsRemove: true}
	rtorrentDesc     = Descriptor{Name: "rTorrent", Key: "rtorrent", SupportsRemove: true}
	transmissionDesc = Descriptor{Name: "Transmission", Key: "transmission", SupportsRemove: true}
	watchFolderDesc  = Descriptor{Name: "Watch Folder", Key: "watchfolder", SupportsRemove: false}
)

var registrations = []registration{
	{qbitDesc, newQbit},
	{delugeDesc, newDeluge},
	{rtorrentDesc, newRTorrent},
	{transmissionDesc, newTransmission},
	{watchFolderDesc, newWatchFolder},
}

// SupportedClients returns the registered client keys in registration order.
func SupportedClients() []string {
	keys := make([]string, 0, len(registrations))
	for _, r := range registrations {
		keys = append(keys, r.desc.Key)
	}
	return keys
}

// Descriptors returns the descriptor table in registration order.
func Descriptors() []Descriptor {
	descs := make([]Descriptor, 0, len(registrations))
	for _, r := range registrations {
		descs = append(descs, r.desc)
	}
	return descs
}

// Resolve returns the adapter factory for the given registry key.
func Resolve(key string) (Factory, error) {
	for _, r := range registrations {
		if r.desc.Key == key {
			return r.factory, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownClient, key)
}

// IsTorrentClient reports whether key names a registered client.
func IsTorrentClient(key string) bool {
	_, err := Resolve(key)
	return err == nil
}

// SupportsRemove reports whether the client registered under key can erase
// torrents. Unknown keys report false.
func SupportsRemove(key string) bool {
	for _, r := range registrations {
		if r.desc.Key == key {
			return r.desc.SupportsRemove
		}
	}
	return false
}

// ResolveByName matches an adapter by its external display name. The match
// is case-sensitive; a missing name reports ok=false, never an error.
func ResolveByName(name string) (Factory, bool) {
	for _, r := range registrations {
		if r.desc.Name == name {
			return r.factory, true
		}
	}
	return nil, false
}

// testConnection resets the adapter's session and classifies a fresh
// authentication attempt into the three user-facing outcomes.
func testConnection(ctx context.Context, a Adapter) (bool, string) {
	name := a.Descriptor().Name

	a.ResetSession()
	err := a.Authenticate(ctx)
	switch {
	case err == nil:
		return true, "Success: Connected and Authenticated"
	case errors.Is(err, ErrAuthentication):
		return false, fmt.Sprintf("Error: Unable to get %s authentication, check your config", name)
	default:
		return false, fmt.Sprintf("Error: Unable to connect to %s, check your config", name)
	}
}
