// Package storage implements the key value state the runtime executes
// against: a committed tm-db database plus block scoped overlays that are
// either committed or discarded as a whole.
//
// NOTE: storage methods panic on database I/O errors, indicating probable
// corruption on disk. The executive recovers these at the block boundary.
package storage

import (
	"bytes"
	"sort"

	dbm "github.com/tendermint/tm-db"
)

// Reader is read access to runtime state.
type Reader interface {
	// Get returns the value stored at key or nil.
	Get(key []byte) []byte
	Has(key []byte) bool
	// Iterate calls fn for every key with the given prefix in ascending key
	// order until fn returns false.
	Iterate(prefix []byte, fn func(key, value []byte) bool)
}

// KVStore is read and write access to runtime state.
type KVStore interface {
	Reader
	Set(key, value []byte)
	Delete(key []byte)
}

// Store is the committed state, backed by a tm-db database. Reads are safe
// for concurrent use; writes only happen through Overlay.Commit.
type Store struct {
	db dbm.DB
}

var _ Reader = (*Store)(nil)

// NewStore returns a Store over db.
func NewStore(db dbm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(key []byte) []byte {
	bz, err := s.db.Get(key)
	if err != nil {
		panic(err)
	}
	return bz
}

func (s *Store) Has(key []byte) bool {
	ok, err := s.db.Has(key)
	if err != nil {
		panic(err)
	}
	return ok
}

func (s *Store) Iterate(prefix []byte, fn func(key, value []byte) bool) {
	iter, err := s.db.Iterator(prefixRange(prefix))
	if err != nil {
		panic(err)
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	if err := iter.Error(); err != nil {
		panic(err)
	}
}

// NewOverlay starts a block scoped set of writes on top of the committed
// state.
func (s *Store) NewOverlay() *Overlay {
	return NewOverlay(s)
}

// ReadOnly returns a view of the committed state that panics on writes.
func (s *Store) ReadOnly() KVStore {
	return readOnly{s}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) write(writes map[string][]byte, deletes map[string]struct{}) {
	batch := s.db.NewBatch()
	defer batch.Close()

	// sorted so that the batch is identical on every node
	keys := make([]string, 0, len(writes)+len(deletes))
	for k := range writes {
		keys = append(keys, k)
	}
	for k := range deletes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if v, ok := writes[k]; ok {
			if err := batch.Set([]byte(k), v); err != nil {
				panic(err)
			}
			continue
		}
		if err := batch.Delete([]byte(k)); err != nil {
			panic(err)
		}
	}
	if err := batch.WriteSync(); err != nil {
		panic(err)
	}
}

type readOnly struct {
	Reader
}

func (readOnly) Set(key, _ []byte) {
	panic("write to read-only state: " + string(key))
}

func (readOnly) Delete(key []byte) {
	panic("delete from read-only state: " + string(key))
}

// prefixRange returns the [start, end) iterator bounds covering prefix. A nil
// end means no upper bound.
func prefixRange(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return prefix, end[:i+1]
		}
	}
	return prefix, nil
}

func hasPrefix(key, prefix []byte) bool {
	return bytes.HasPrefix(key, prefix)
}
