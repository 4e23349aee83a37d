// Package history persists the snatch history consulted by the cleanup
// sweep: which info-hashes were grabbed, from which provider, and whether
// their payload made it into the library.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS snatch_history (
	info_hash   TEXT NOT NULL,
	provider    TEXT NOT NULL,
	resource    TEXT,
	processed   INTEGER NOT NULL DEFAULT 0,
	snatched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snatch_history_hash ON snatch_history (info_hash);

CREATE TABLE IF NOT EXISTS processed_files (
	path         TEXT PRIMARY KEY,
	processed_at TEXT NOT NULL
);
`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSnatch remembers that a torrent was grabbed from the given provider.
func (s *Store) RecordSnatch(infoHash, provider, resource string) error {
	_, err := s.db.Exec(
		`INSERT INTO snatch_history (info_hash, provider, resource, snatched_at) VALUES (?, ?, ?, ?)`,
		infoHash, provider, resource, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record snatch: %w", err)
	}
	return nil
}

// MarkProcessed flags every history row for the info-hash as processed.
func (s *Store) MarkProcessed(infoHash string) error {
	_, err := s.db.Exec(`UPDATE snatch_history SET processed = 1 WHERE info_hash = ?`, infoHash)
	if err != nil {
		return fmt.Errorf("failed to mark info-hash processed: %w", err)
	}
	return nil
}

// MarkFileProcessed remembers that a payload path was ingested into the
// library.
func (s *Store) MarkFileProcessed(path string) error {
	_, err := s.db.Exec(
		`INSERT INTO processed_files (path, processed_at) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET processed_at = excluded.processed_at`,
		path, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to mark file processed: %w", err)
	}
	return nil
}

func (s *Store) IsInfoHashKnown(hash string) bool {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM snatch_history WHERE info_hash = ?`, hash).Scan(&n); err != nil {
		log.Warn().Err(err).Str("hash", hash).Msg("history lookup failed")
		return false
	}
	return n > 0
}

func (s *Store) IsInfoHashProcessed(hash string) bool {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM snatch_history WHERE info_hash = ? AND processed = 1`, hash).Scan(&n); err != nil {
		log.Warn().Err(err).Str("hash", hash).Msg("history lookup failed")
		return false
	}
	return n > 0
}

func (s *Store) IsPathProcessed(path string) bool {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM processed_files WHERE path = ?`, path).Scan(&n); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("history lookup failed")
		return false
	}
	return n > 0
}

// ProviderForInfoHash returns the provider the most recent snatch of the
// info-hash came from, or "" when the hash is unknown.
func (s *Store) ProviderForInfoHash(hash string) string {
	var provider string
	err := s.db.QueryRow(
		`SELECT provider FROM snatch_history WHERE info_hash = ? ORDER BY snatched_at DESC LIMIT 1`,
		hash,
	).Scan(&provider)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("hash", hash).Msg("history lookup failed")
		}
		return ""
	}
	return provider
}
