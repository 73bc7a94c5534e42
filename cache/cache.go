package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("results")

// DefaultTTL is how long a cached search outcome stays valid.
const DefaultTTL = 24 * time.Hour

// Store is a bbolt-backed cache of serialized search outcomes. It is
// safe for concurrent use.
type Store struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

// Open opens (creating if needed) the cache database at path. ttl <= 0
// uses DefaultTTL.
func Open(path string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl, now: time.Now}, nil
}

// Key derives the cache key for one search execution.
func Key(queryString, mode string, page int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", queryString, mode, page)))
	return hex.EncodeToString(sum[:])
}

// Get unmarshals the cached payload for key into out. The second return
// is false on a miss or an expired entry.
func (s *Store) Get(key string, out any) (bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry counts as a miss; it will be overwritten.
		return false, nil
	}
	if s.now().Sub(e.StoredAt) > s.ttl {
		return false, nil
	}

	if err := json.Unmarshal(e.Payload, out); err != nil {
		return false, nil
	}
	return true, nil
}

// Put stores the payload for key, stamping it with the current time.
func (s *Store) Put(key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}
	raw, err := json.Marshal(entry{StoredAt: s.now(), Payload: data})
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), raw)
	})
}

// GC removes expired entries.
func (s *Store) GC() error {
	cutoff := s.now().Add(-s.ttl)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil || e.StoredAt.Before(cutoff) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
