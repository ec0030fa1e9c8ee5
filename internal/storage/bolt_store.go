package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	sessionBucket    = "session"
	recordBucket     = "records"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	recordTTL       time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{sessionBucket, recordBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		recordTTL:       opts.RecordTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close releases the file lock.
func (b *boltStore) Close() error {
	if !b.open() {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) open() bool { return b != nil && b.db != nil }

// inBucket runs fn against the named bucket inside a read-write transaction.
func (b *boltStore) inBucket(name string, fn func(*bolt.Bucket) error) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(name))
		if bkt == nil {
			return fmt.Errorf("bucket %q missing", name)
		}
		return fn(bkt)
	})
}

// Get returns the value stored under key in the session bucket.
func (b *boltStore) Get(key string) (value string, found bool, err error) {
	if !b.open() {
		return "", false, nil
	}
	err = b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(sessionBucket))
		if bkt == nil {
			return fmt.Errorf("bucket %q missing", sessionBucket)
		}
		if raw := bkt.Get([]byte(key)); raw != nil {
			value, found = string(raw), true
		}
		return nil
	})
	return value, found, err
}

// Set writes value under key in the session bucket.
func (b *boltStore) Set(key, value string) error {
	if !b.open() {
		return nil
	}
	return b.inBucket(sessionBucket, func(bkt *bolt.Bucket) error {
		return bkt.Put([]byte(key), []byte(value))
	})
}

// Delete removes key from the session bucket. Missing keys are ignored.
func (b *boltStore) Delete(key string) error {
	if !b.open() {
		return nil
	}
	return b.inBucket(sessionBucket, func(bkt *bolt.Bucket) error {
		return bkt.Delete([]byte(key))
	})
}

// SeenRecord reports whether fingerprint id was marked and has not expired.
// An expired entry is removed on the way.
func (b *boltStore) SeenRecord(id string) (bool, error) {
	if !b.open() {
		return false, nil
	}
	now := time.Now()
	if err := b.sweepIfDue(now); err != nil {
		return false, err
	}

	var live bool
	err := b.inBucket(recordBucket, func(bkt *bolt.Bucket) error {
		key := []byte(id)
		raw := bkt.Get(key)
		if raw == nil {
			return nil
		}
		if live = !expired(raw, now); !live {
			return bkt.Delete(key)
		}
		return nil
	})
	return live, err
}

// MarkRecord stores fingerprint id until now+TTL.
func (b *boltStore) MarkRecord(id string) error {
	if !b.open() {
		return nil
	}
	now := time.Now()
	if err := b.sweepIfDue(now); err != nil {
		return err
	}

	var until [expiryValueBytes]byte
	binary.BigEndian.PutUint64(until[:], uint64(now.Add(b.recordTTL).Unix()))
	return b.inBucket(recordBucket, func(bkt *bolt.Bucket) error {
		return bkt.Put([]byte(id), until[:])
	})
}

// sweepIfDue drops expired fingerprints at most once per cleanup interval.
func (b *boltStore) sweepIfDue(now time.Time) error {
	due := func() bool {
		return now.Sub(time.Unix(b.lastCleanup.Load(), 0)) >= b.cleanupInterval
	}
	if !due() {
		return nil
	}
	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()
	if !due() {
		return nil
	}

	err := b.inBucket(recordBucket, func(bkt *bolt.Bucket) error {
		c := bkt.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if expired(v, now) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweep expired records: %w", err)
	}
	b.lastCleanup.Store(now.Unix())
	return nil
}

// expired treats malformed values as expired.
func expired(value []byte, now time.Time) bool {
	if len(value) != expiryValueBytes {
		return true
	}
	unix := int64(binary.BigEndian.Uint64(value))
	return unix <= 0 || !time.Unix(unix, 0).After(now)
}
