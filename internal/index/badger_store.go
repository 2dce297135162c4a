package index

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	badger "github.com/dgraph-io/badger/v4"

	"dealguard/internal/order"
)

// BadgerStore implements Store using BadgerDB.
type BadgerStore struct {
	db   *badger.DB
	keys int
}

func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir)).
		WithLogger(nil).
		WithSyncWrites(false)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "badger open")
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Close() error { return b.db.Close() }

func (b *BadgerStore) PutIfAbsent(key string, o order.Order) (order.Order, bool, error) {
	var (
		anchor order.Order
		loaded bool
	)
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == nil {
			v, e := item.ValueCopy(nil)
			if e != nil {
				return e
			}
			anchor, e = decodeOrder(v)
			if e != nil {
				return e
			}
			loaded = true
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		v, err := encodeOrder(o)
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(key), v); err != nil {
			return err
		}
		anchor = o
		return nil
	})
	if err != nil {
		return order.Order{}, false, err
	}
	if !loaded {
		b.keys++
	}
	return anchor, loaded, nil
}

func (b *BadgerStore) Range(fn func(key string, o order.Order) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			o, err := decodeOrder(v)
			if err != nil {
				return err
			}
			if err := fn(string(k), o); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerStore) Len() int { return b.keys }
