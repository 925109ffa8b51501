package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	pendingBucket = []byte("pending")
	deadBucket    = []byte("dead")
)

// Store keeps writes in a local BoltDB file while Postgres is unreachable.
// Items that keep failing are moved to a dead-letter bucket instead of being dropped.
type Store struct {
	db *bolt.DB
}

// Open initializes the BoltDB file and ensures both buckets exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{pendingBucket, deadBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Enqueue stores an item under a priority-then-time key.
func (s *Store) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(pendingBucket), &item)
	})
}

// Batch returns up to limit pending items in replay order without removing them.
func (s *Store) Batch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(pendingBucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			item.bucketKey = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Ack removes a replayed item.
func (s *Store) Ack(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return remove(tx.Bucket(pendingBucket), item)
	})
}

// Retry bumps the retry counter and moves the item to the back of its priority lane.
func (s *Store) Retry(item Item, cause error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(pendingBucket)
		if err := remove(b, item); err != nil {
			return err
		}
		item.Retries++
		item.Timestamp = time.Now().UTC()
		if cause != nil {
			item.LastError = cause.Error()
		}
		item.bucketKey = nil
		return put(b, &item)
	})
}

// Bury moves an item to the dead-letter bucket.
func (s *Store) Bury(item Item, cause error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := remove(tx.Bucket(pendingBucket), item); err != nil {
			return err
		}
		if cause != nil {
			item.LastError = cause.Error()
		}
		item.bucketKey = nil
		return put(tx.Bucket(deadBucket), &item)
	})
}

// Dead lists dead-lettered items.
func (s *Store) Dead(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(deadBucket).ForEach(func(k, v []byte) error {
			if limit > 0 && len(items) >= limit {
				return nil
			}
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				return nil
			}
			items = append(items, item)
			return nil
		})
	})
	return items, err
}

// Size returns the number of pending items.
func (s *Store) Size() (int, error) {
	st, err := s.Stats()
	return st.Pending, err
}

// Stats counts pending and dead items.
func (s *Store) Stats() (Stats, error) {
	if s == nil || s.db == nil {
		return Stats{}, bolt.ErrDatabaseNotOpen
	}
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		st.Pending = tx.Bucket(pendingBucket).Stats().KeyN
		st.Dead = tx.Bucket(deadBucket).Stats().KeyN
		return nil
	})
	return st, err
}

// Cleanup drops dead items older than the cutoff and returns how many were removed.
// Pending items are never expired.
func (s *Store) Cleanup(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var removed int
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(deadBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			if item.Timestamp.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func put(b *bolt.Bucket, item *Item) error {
	item.normalize()
	item.bucketKey = []byte(buildKey(*item))
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return b.Put(item.bucketKey, payload)
}

func remove(b *bolt.Bucket, item Item) error {
	if len(item.bucketKey) > 0 {
		return b.Delete(item.bucketKey)
	}
	if item.ID == "" {
		return nil
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var stored Item
		if err := json.Unmarshal(v, &stored); err != nil {
			continue
		}
		if stored.ID == item.ID {
			return c.Delete()
		}
	}
	return nil
}

func buildKey(item Item) string {
	return fmt.Sprintf("%d_%020d_%s", item.Priority, item.Timestamp.UnixNano(), item.ID)
}
