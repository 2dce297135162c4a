package index

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"dealguard/internal/order"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendPebble = "pebble"
	BackendBadger = "badger"
)

// Store holds the anchor order per identity key for one detection run.
type Store interface {
	// PutIfAbsent stores o under key unless the key already has an anchor.
	// It returns the anchor now held for key and whether it was already there.
	PutIfAbsent(key string, o order.Order) (anchor order.Order, loaded bool, err error)
	Range(fn func(key string, o order.Order) error) error
	Len() int
	Close() error
}

// Open returns an empty store for the given backend. Disk backends get a fresh
// directory under baseDir that is removed again on Close.
func Open(backend string, baseDir string) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewInMemoryStore(), nil
	case BackendPebble, BackendBadger:
		if baseDir != "" {
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return nil, errors.Wrap(err, "mkdir")
			}
		}
		dir, err := os.MkdirTemp(baseDir, backend+"-index-")
		if err != nil {
			return nil, errors.Wrap(err, "index dir")
		}
		var st Store
		if backend == BackendPebble {
			st, err = NewPebbleStore(dir)
		} else {
			st, err = NewBadgerStore(dir)
		}
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
		return &tempDirStore{Store: st, dir: dir}, nil
	default:
		return nil, errors.Newf("unknown index backend %q", backend)
	}
}

type tempDirStore struct {
	Store
	dir string
}

func (t *tempDirStore) Close() error {
	err := t.Store.Close()
	if rmErr := os.RemoveAll(t.dir); err == nil {
		err = rmErr
	}
	return err
}

// InMemoryStore is a map backed Store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string]order.Order
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string]order.Order)}
}

func (s *InMemoryStore) PutIfAbsent(key string, o order.Order) (order.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.data[key]; ok {
		return cur, true, nil
	}
	s.data[key] = o
	return o, false, nil
}

func (s *InMemoryStore) Range(fn func(key string, o order.Order) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.data {
		if err := fn(k, v); err != nil {
			return errors.Wrap(err, "range callback failed")
		}
	}
	return nil
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *InMemoryStore) Close() error { return nil }
