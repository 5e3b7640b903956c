package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/drake/vidwall/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketFavorites = []byte("favorites")
	bucketHidden    = []byte("hidden")
	bucketTags      = []byte("tags")
	bucketSession   = []byte("session")
)

const sessionKey = "current"

// MetaStore implements domain.MetadataStore using BoltDB. Flags live in
// their own buckets keyed by item id, so a rescan that reassigns catalog
// order never touches persisted state.
type MetaStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// Open opens (or creates) the metadata database under dir. An empty dir
// selects memory-only mode with no persistence, which tests use.
func Open(dir string) (*MetaStore, error) {
	if dir == "" {
		return &MetaStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "vidwall.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketFavorites, bucketHidden, bucketTags, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &MetaStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *MetaStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ApplyFlags overlays persisted favorite, hidden and tag state onto freshly
// scanned items in place. Items with no persisted state are left untouched.
func (s *MetaStore) ApplyFlags(items []domain.VideoItem) {
	for i := range items {
		id := items[i].ID
		var b bool
		if s.get(bucketFavorites, id, &b) {
			items[i].Favorite = b
		}
		b = false
		if s.get(bucketHidden, id, &b) {
			items[i].Hidden = b
		}
		var tags []string
		if s.get(bucketTags, id, &tags) {
			items[i].Tags = tags
		}
	}
}

func (s *MetaStore) SetFavorite(id string, favorite bool) error {
	if !favorite {
		s.delete(bucketFavorites, id)
		return nil
	}
	return s.set(bucketFavorites, id, favorite)
}

func (s *MetaStore) SetHidden(id string, hidden bool) error {
	if !hidden {
		s.delete(bucketHidden, id)
		return nil
	}
	return s.set(bucketHidden, id, hidden)
}

func (s *MetaStore) SetTags(id string, tags []string) error {
	if len(tags) == 0 {
		s.delete(bucketTags, id)
		return nil
	}
	return s.set(bucketTags, id, tags)
}

// Session returns the last persisted view state, if any.
func (s *MetaStore) Session() (domain.SessionPrefs, bool) {
	var prefs domain.SessionPrefs
	if !s.get(bucketSession, sessionKey, &prefs) {
		return domain.SessionPrefs{}, false
	}
	return prefs, true
}

func (s *MetaStore) SaveSession(prefs domain.SessionPrefs) error {
	return s.set(bucketSession, sessionKey, prefs)
}

// === Generic helpers ===

func (s *MetaStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *MetaStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *MetaStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}
