package kvstore

import (
	"context"

	"cosmossdk.io/core/store"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Database wraps a goleveldb instance behind the cosmos KVStoreService
// contract. Each module opens its own key space via Service, so two
// keepers can share one database file without prefix collisions.
type Database struct {
	db *leveldb.DB
}

// Open opens (or creates) the database at path, recovering the manifest if
// a previous run left it corrupted.
func Open(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, nil)
	if ldberrors.IsCorrupted(err) {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb at %s", path)
	}
	return &Database{db: db}, nil
}

// OpenInMemory opens a database backed by memory storage. Used by tests
// and exercised through the same code path as the durable store.
func OpenInMemory() (*Database, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open in-memory leveldb")
	}
	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return errors.Wrap(d.db.Close(), "close leveldb")
}

// Service returns the KVStoreService for one module's key space. All keys
// are transparently prefixed with "m/<module>/".
func (d *Database) Service(module string) store.KVStoreService {
	return prefixedService{db: d.db, prefix: []byte("m/" + module + "/")}
}

type prefixedService struct {
	db     *leveldb.DB
	prefix []byte
}

func (s prefixedService) OpenKVStore(_ context.Context) store.KVStore {
	return prefixedStore{db: s.db, prefix: s.prefix}
}

type prefixedStore struct {
	db     *leveldb.DB
	prefix []byte
}

func (s prefixedStore) key(k []byte) []byte {
	out := make([]byte, 0, len(s.prefix)+len(k))
	out = append(out, s.prefix...)
	return append(out, k...)
}

func (s prefixedStore) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(s.key(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "leveldb get")
	}
	return value, nil
}

func (s prefixedStore) Has(key []byte) (bool, error) {
	ok, err := s.db.Has(s.key(key), nil)
	if err != nil {
		return false, errors.Wrap(err, "leveldb has")
	}
	return ok, nil
}

func (s prefixedStore) Set(key, value []byte) error {
	if len(key) == 0 {
		return errors.New("empty key")
	}
	return errors.Wrap(s.db.Put(s.key(key), value, nil), "leveldb put")
}

func (s prefixedStore) Delete(key []byte) error {
	return errors.Wrap(s.db.Delete(s.key(key), nil), "leveldb delete")
}

func (s prefixedStore) Iterator(start, end []byte) (store.Iterator, error) {
	return s.newIterator(start, end, false), nil
}

func (s prefixedStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return s.newIterator(start, end, true), nil
}

func (s prefixedStore) newIterator(start, end []byte, reverse bool) store.Iterator {
	rng := &util.Range{Start: s.key(start)}
	if end == nil {
		rng.Limit = prefixEnd(s.prefix)
	} else {
		rng.Limit = s.key(end)
	}
	iter := s.db.NewIterator(rng, nil)
	it := &ldbIterator{
		iter:    iter,
		prefix:  len(s.prefix),
		start:   start,
		end:     end,
		reverse: reverse,
	}
	if reverse {
		it.valid = iter.Last()
	} else {
		it.valid = iter.First()
	}
	return it
}

// prefixEnd returns the smallest key greater than every key with the given
// prefix, nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

type ldbIterator struct {
	iter    iterator.Iterator
	prefix  int
	start   []byte
	end     []byte
	reverse bool
	valid   bool
}

func (it *ldbIterator) Domain() (start, end []byte) {
	return it.start, it.end
}

func (it *ldbIterator) Valid() bool {
	return it.valid
}

func (it *ldbIterator) Next() {
	if !it.valid {
		return
	}
	if it.reverse {
		it.valid = it.iter.Prev()
	} else {
		it.valid = it.iter.Next()
	}
}

// Key strips the module prefix. The returned slice is a copy: goleveldb
// reuses its buffers on Next.
func (it *ldbIterator) Key() []byte {
	k := it.iter.Key()
	out := make([]byte, len(k)-it.prefix)
	copy(out, k[it.prefix:])
	return out
}

func (it *ldbIterator) Value() []byte {
	v := it.iter.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (it *ldbIterator) Error() error {
	return it.iter.Error()
}

func (it *ldbIterator) Close() error {
	it.iter.Release()
	return it.iter.Error()
}
