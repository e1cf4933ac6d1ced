package iavl

import (
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultCacheSize is the number of tree nodes kept in memory.
const DefaultCacheSize = 10000

// CommitStore manages a iavl committed state. Writes go to the working tree
// and become durable with Commit.
type CommitStore struct {
	tree *iavl.MutableTree
}

var (
	_ store.CacheableKVStore = CommitStore{}
	_ store.Committer        = CommitStore{}
)

// NewCommitStore creates a new store with leveldb backing in dir and loads
// the latest persisted version.
func NewCommitStore(dir, name string) (CommitStore, error) {
	db := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
	return LoadCommitStore(db)
}

// MockCommitStore returns a store backed by an in-memory database.
func MockCommitStore() CommitStore {
	s, err := LoadCommitStore(dbm.NewMemDB())
	if err != nil {
		panic(err)
	}
	return s
}

// LoadCommitStore opens a tree on the given database and loads the latest
// persisted version. If there was a crash during the last commit, it is
// guaranteed to return a stable state, even if older.
func LoadCommitStore(db dbm.DB) (CommitStore, error) {
	tree := iavl.NewMutableTree(db, DefaultCacheSize)
	if _, err := tree.Load(); err != nil {
		return CommitStore{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return CommitStore{tree: tree}, nil
}

// Commit the next version to disk, and returns info
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.CommitID{Version: version, Hash: hash}, nil
}

// Rollback drops every change made to the working tree since the last
// commit.
func (s CommitStore) Rollback() {
	s.tree.Rollback()
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() store.CommitID {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}
}

// CacheWrap gives us a savepoint to perform actions
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// NewBatch returns a batch of operations applied to the working tree. Nothing
// is persisted before Commit, so the batch is atomic from the disk point of
// view.
func (s CommitStore) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(s)
}

// Get returns nil iff key doesn't exist.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.Get(key)
	return val, nil
}

// Has checks if a key exists.
func (s CommitStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

// Set adds a value to the working tree.
func (s CommitStore) Set(key, value []byte) error {
	if value == nil {
		return errors.Wrap(errors.ErrInput, "nil value")
	}
	s.tree.Set(key, value)
	return nil
}

// Delete removes a value from the working tree.
func (s CommitStore) Delete(key []byte) error {
	s.tree.Remove(key)
	return nil
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s CommitStore) Iterator(start, end []byte) (store.Iterator, error) {
	return s.iterate(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (s CommitStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return s.iterate(start, end, false), nil
}

// iterate loads the whole range into memory. Ranges used by the application
// are bounded by a bucket prefix, so they stay small.
func (s CommitStore) iterate(start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	s.tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		res = append(res, store.Model{Key: key, Value: value})
		return false
	})
	return store.NewSliceIterator(res)
}
