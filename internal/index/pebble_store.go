package index

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"dealguard/internal/order"
)

// PebbleStore implements Store using PebbleDB. Anchors are written once and
// never updated, so writes skip fsync; the store only lives for one run.
type PebbleStore struct {
	db   *pebble.DB
	keys int
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	opts := &pebble.Options{
		MemTableSize:             64 << 20,
		MaxConcurrentCompactions: func() int { return 2 },
		L0CompactionThreshold:    4,
		L0StopWritesThreshold:    8,
		DisableWAL:               true,
	}
	d, err := pebble.Open(filepath.Clean(dir), opts)
	if err != nil {
		return nil, errors.Wrap(err, "pebble open")
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func (p *PebbleStore) PutIfAbsent(key string, o order.Order) (order.Order, bool, error) {
	k := []byte(key)
	v, closer, err := p.db.Get(k)
	if err == nil {
		cur, err := decodeOrder(v)
		_ = closer.Close()
		if err != nil {
			return order.Order{}, false, errors.Wrapf(err, "decode %s", key)
		}
		return cur, true, nil
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return order.Order{}, false, err
	}
	b, err := encodeOrder(o)
	if err != nil {
		return order.Order{}, false, err
	}
	if err := p.db.Set(k, b, pebble.NoSync); err != nil {
		return order.Order{}, false, err
	}
	p.keys++
	return o, false, nil
}

func (p *PebbleStore) Range(fn func(key string, o order.Order) error) error {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		k := append([]byte(nil), it.Key()...)
		o, err := decodeOrder(it.Value())
		if err != nil {
			return err
		}
		if err := fn(string(k), o); err != nil {
			return err
		}
	}
	return nil
}

func (p *PebbleStore) Len() int { return p.keys }
