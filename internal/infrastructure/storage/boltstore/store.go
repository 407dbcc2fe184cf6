// Package boltstore keeps the event log in an embedded bbolt database.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"TimeTracker/internal/domain"
	"TimeTracker/internal/ports"
)

var eventsBucket = []byte("events")

// Store is an ordered log keyed by the bucket sequence. bbolt serializes
// writers, so concurrent appends are safe.
type Store struct {
	db *bolt.DB
}

var _ ports.EventStore = (*Store)(nil)

// Open opens or creates the database file.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, unavailable("create data directory", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, unavailable("open database", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(eventsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, unavailable("create bucket", err)
	}

	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores the event under the next sequence number.
func (s *Store) Append(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		event.Seq = seq
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return b.Put(key(seq), data)
	})
	if err != nil {
		return unavailable("append event", err)
	}
	return nil
}

// AllEvents returns the log in insertion order.
func (s *Store) AllEvents(ctx context.Context) ([]domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	events := []domain.Event{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(eventsBucket).ForEach(func(k, v []byte) error {
			var ev domain.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return fmt.Errorf("decode event %d: %w", binary.BigEndian.Uint64(k), err)
			}
			events = append(events, ev)
			return nil
		})
	})
	if err != nil {
		return nil, unavailable("read events", err)
	}
	return events, nil
}

// DeleteByItem removes every event of the item in one transaction.
func (s *Store) DeleteByItem(ctx context.Context, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		var doomed [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var ev domain.Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			if ev.ItemID == itemID {
				doomed = append(doomed, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable("delete item", err)
	}
	return nil
}

// ClearAll drops and recreates the bucket. The sequence restarts at 1.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(eventsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(eventsBucket)
		return err
	})
	if err != nil {
		return unavailable("clear events", err)
	}
	return nil
}

func key(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
