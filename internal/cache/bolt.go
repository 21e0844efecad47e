package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketProcessed = []byte("processed")

// recordSize is two big-endian unix nano timestamps: modification marker
// followed by recording time.
const recordSize = 16

// BoltOptions tune a BoltStore.
type BoltOptions struct {
	// Timeout waits for the file lock held by another process
	Timeout time.Duration
	// Now replaces time.Now in tests
	Now func() time.Time
}

// BoltStore persists processing records in a bbolt database so that they
// survive restarts of the host.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// OpenBoltStore opens or creates the database at path.
func OpenBoltStore(path string, opts BoltOptions) (*BoltStore, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: opts.Timeout})
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProcessed)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db, now: opts.Now}, nil
}

// ShouldProcess implements Store. The comparison and the write share one
// read-write transaction, which bbolt serializes.
func (s *BoltStore) ShouldProcess(ctx context.Context, key string, modifiedAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	process := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProcessed)
		if prev := b.Get([]byte(key)); len(prev) == recordSize {
			if modifiedAt.UnixNano() <= int64(binary.BigEndian.Uint64(prev[:8])) {
				return nil
			}
		}
		process = true
		return b.Put([]byte(key), s.encode(modifiedAt))
	})
	if err != nil {
		return false, fmt.Errorf("check %q: %w", key, err)
	}
	return process, nil
}

// Record implements Store.
func (s *BoltStore) Record(ctx context.Context, key string, modifiedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProcessed).Put([]byte(key), s.encode(modifiedAt))
	})
}

// Forget implements Store.
func (s *BoltStore) Forget(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProcessed).Delete([]byte(key))
	})
}

// Len implements Store.
func (s *BoltStore) Len() int {
	n := 0
	_ = s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketProcessed).Stats().KeyN
		return nil
	})
	return n
}

// Prune deletes records written more than olderThan ago and returns how many
// were removed.
func (s *BoltStore) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-olderThan).UnixNano()
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketProcessed)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if len(v) != recordSize || int64(binary.BigEndian.Uint64(v[8:])) < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) encode(modifiedAt time.Time) []byte {
	buf := make([]byte, recordSize)
	binary.BigEndian.PutUint64(buf[:8], uint64(modifiedAt.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:], uint64(s.now().UnixNano()))
	return buf
}
