package dist

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

// ErrChunkNotFound indicates no unit is stored under the requested key.
var ErrChunkNotFound = errors.New("chunk not found")

var log = commonlog.GetLogger("garnet.cache")

// Store is a persistent compiled-unit cache backed by SQLite. Each row
// holds one CBOR-encoded Chunk under its hex cache key.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// OpenStore opens (creating if needed) the cache database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("dist: open store: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dist: open store: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("dist: setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		key     TEXT PRIMARY KEY,
		kind    TEXT NOT NULL,
		name    TEXT NOT NULL,
		version INTEGER NOT NULL,
		data    BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dist: creating table: %w", err)
	}

	log.Debugf("opened unit cache %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores c, replacing any chunk under the same key.
func (s *Store) Put(c *Chunk) error {
	data, err := MarshalChunk(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO chunks (key, kind, name, version, data) VALUES (?, ?, ?, ?, ?)",
		hexKey(c.Key), c.Kind, c.Code.Name, int(c.Version), data,
	)
	if err != nil {
		return fmt.Errorf("dist: saving chunk: %w", err)
	}
	log.Debugf("stored %s under %x", c.Code.Name, c.Key[:8])
	return nil
}

// Get loads and verifies the chunk stored under key. A chunk written by
// another version, or one that fails verification, is dropped and
// reported as ErrChunkNotFound.
func (s *Store) Get(key [32]byte) (*Chunk, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM chunks WHERE key = ?", hexKey(key)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChunkNotFound
		}
		return nil, fmt.Errorf("dist: querying chunk: %w", err)
	}

	c, err := UnmarshalChunk(data)
	if err == nil && c.Key != key {
		err = fmt.Errorf("dist: chunk stored under %x claims key %x", key[:8], c.Key[:8])
	}
	if err != nil {
		log.Warningf("discarding cached unit %x: %s", key[:8], err)
		if derr := s.Delete(key); derr != nil {
			return nil, derr
		}
		return nil, ErrChunkNotFound
	}
	return c, nil
}

// Has reports whether a chunk is stored under key.
func (s *Store) Has(key [32]byte) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE key = ?", hexKey(key)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("dist: querying chunk: %w", err)
	}
	return n > 0, nil
}

// Delete removes the chunk stored under key, if any.
func (s *Store) Delete(key [32]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec("DELETE FROM chunks WHERE key = ?", hexKey(key)); err != nil {
		return fmt.Errorf("dist: deleting chunk: %w", err)
	}
	return nil
}

// Len returns the number of stored chunks.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("dist: counting chunks: %w", err)
	}
	return n, nil
}

// Purge removes every stored chunk and returns how many were removed.
func (s *Store) Purge() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM chunks")
	if err != nil {
		return 0, fmt.Errorf("dist: purging chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("dist: purging chunks: %w", err)
	}
	log.Infof("purged %d cached units", n)
	return int(n), nil
}

func hexKey(key [32]byte) string {
	return hex.EncodeToString(key[:])
}
