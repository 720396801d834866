package boltdb

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultLockTimeout bounds how long an operation waits for another process to release
// the file.
const DefaultLockTimeout = 3 * time.Second

// Store holds small named records in a single bucket of a BoltDB file. The file is
// opened for each operation and closed right after, so several processes (a running
// `watch` and a one-off command) can share it; bbolt locks the file only while open.
type Store struct {
	path    string
	bucket  []byte
	timeout time.Duration

	mu sync.Mutex
}

// Open creates the file and the bucket if needed. It does not keep the file open.
func Open(path string, bucket string) (*Store, error) {
	return OpenWithTimeout(path, bucket, DefaultLockTimeout)
}

func OpenWithTimeout(path, bucket string, timeout time.Duration) (*Store, error) {
	if bucket == "" {
		bucket = "rozklad"
	}
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	s := &Store{
		path:    path,
		bucket:  []byte(bucket),
		timeout: timeout,
	}
	if err := s.update(func(*bolt.Bucket) error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) open(readOnly bool) (*bolt.DB, error) {
	return bolt.Open(s.path, 0o600, &bolt.Options{Timeout: s.timeout, ReadOnly: readOnly})
}

func (s *Store) view(fn func(b *bolt.Bucket) error) error {
	if s == nil {
		return bolt.ErrDatabaseNotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.open(true)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return fn(b)
	})
}

func (s *Store) update(fn func(b *bolt.Bucket) error) error {
	if s == nil {
		return bolt.ErrDatabaseNotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return fn(b)
	})
}

// Get returns a copy of the value stored under key, or nil when absent.
func (s *Store) Get(key string) ([]byte, error) {
	var out []byte
	err := s.view(func(b *bolt.Bucket) error {
		if v := b.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

// Put writes value under key in its own transaction.
func (s *Store) Put(key string, value []byte) error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Put([]byte(key), value)
	})
}

// Delete removes key; deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	return s.update(func(b *bolt.Bucket) error {
		return b.Delete([]byte(key))
	})
}

// Size returns the number of stored records.
func (s *Store) Size() (int, error) {
	var count int
	err := s.view(func(b *bolt.Bucket) error {
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// Close is a no-op: the file is never held between operations.
func (s *Store) Close() error {
	return nil
}
