package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBTreeCacheGetSet does basic sanity checks on our cache
//
// Other tests should handle deletes, setting same value,
// iterating over ranges, and general fuzzing
func TestBTreeCacheGetSet(t *testing.T) {
	// devnull is a black hole... just to keep our types proper
	devnull := BTreeCacheable{EmptyKVStore{}}

	// base is the root of our data, we can layer on top and
	// all queries should work
	base := devnull.CacheWrap()

	// make sure the btree is empty at start but returns results
	// that are writen to it
	k, v := []byte("french"), []byte("fry")
	assertGet(t, base, k, nil)
	require.NoError(t, base.Set(k, v))
	assertGet(t, base, k, v)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	assertGet(t, cache, k, v)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	assertGet(t, cache, k2, nil)
	require.NoError(t, cache.Set(k2, v2))
	assertGet(t, cache, k2, v2)
	assertGet(t, base, k2, nil)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	assertGet(t, base, k, v)
	assertGet(t, base, k2, v2)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	assertGet(t, c2, k, v)
	assertGet(t, c2, k2, v2)
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()

	// and commit another
	c3 := base.CacheWrap()
	assertGet(t, c3, k, v)
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())

	// make sure it commits proper
	assertGet(t, base, k, nil)
	assertGet(t, base, k2, v2)
	assertGet(t, base, k3, nil)

	// and to test devnull....
	require.NoError(t, base.Write())
	assertGet(t, devnull, k2, nil)
}

// TestBTreeCacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func TestBTreeCacheConflicts(t *testing.T) {
	devnull := BTreeCacheable{EmptyKVStore{}}

	// make 10 keys and 20 values....
	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	cases := map[string]struct {
		parentOps     []Op
		childOps      []Op
		parentQueries []Model // Key is what we query, Value is what we espect
		childQueries  []Model // Key is what we query, Value is what we espect
	}{
		"overwrite one, delete another, add a third": {
			parentOps:     []Op{setOp(ks[1], vs[1]), setOp(ks[2], vs[2])},
			childOps:      []Op{setOp(ks[1], vs[11]), setOp(ks[3], vs[7]), delOp(ks[2])},
			parentQueries: []Model{pair(ks[1], vs[1]), pair(ks[2], vs[2]), pair(ks[3], nil)},
			childQueries:  []Model{pair(ks[1], vs[11]), pair(ks[2], nil), pair(ks[3], vs[7])},
		},
		"delete and set again": {
			parentOps:     []Op{setOp(ks[4], vs[4])},
			childOps:      []Op{delOp(ks[4]), setOp(ks[4], vs[14])},
			parentQueries: []Model{pair(ks[4], vs[4])},
			childQueries:  []Model{pair(ks[4], vs[14])},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent := devnull.CacheWrap()
			for _, op := range tc.parentOps {
				require.NoError(t, op.Apply(parent))
			}

			child := parent.CacheWrap()
			for _, op := range tc.childOps {
				require.NoError(t, op.Apply(child))
			}

			// now check the parent is unaffected
			for _, q := range tc.parentQueries {
				assertGet(t, parent, q.Key, q.Value)
			}

			// the child shows changes
			for _, q := range tc.childQueries {
				assertGet(t, child, q.Key, q.Value)
			}

			// write child to parent and make sure it also shows proper data
			require.NoError(t, child.Write())
			for _, q := range tc.childQueries {
				assertGet(t, parent, q.Key, q.Value)
			}
		})
	}
}

// TestSliceIterator makes sure the basic slice iterator works
func TestSliceIterator(t *testing.T) {
	const Size = 10

	ks := randKeys(Size, 8)
	vs := randKeys(Size, 40)

	models := make([]Model, Size)
	for i := 0; i < Size; i++ {
		models[i].Key = ks[i]
		models[i].Value = vs[i]
	}

	// make sure proper iteration works
	i := 0
	for iter := NewSliceIterator(models); iter.Valid(); require.NoError(t, iter.Next()) {
		assert.True(t, i < Size)
		assert.Equal(t, ks[i], iter.Key())
		assert.Equal(t, vs[i], iter.Value())
		i++
	}
	assert.Equal(t, Size, i)

	// iterator is invalid after close
	trash := NewSliceIterator(models)
	assert.True(t, trash.Valid())
	trash.Close()
	assert.False(t, trash.Valid())
	assert.Error(t, trash.Next())
	assert.Panics(t, func() { trash.Key() })
}

// TestBTreeCacheBasicIterator makes sure the basic iterator
// works. Includes random deletes, but not nested iterators.
func TestBTreeCacheBasicIterator(t *testing.T) {
	const Size = 50
	const DeleteCount = 20
	const TotalSize = Size + DeleteCount

	models := make([]Model, TotalSize)
	for i := 0; i < TotalSize; i++ {
		models[i].Key = randBytes(8)
		models[i].Value = randBytes(40)
	}

	devnull := BTreeCacheable{EmptyKVStore{}}
	base := devnull.CacheWrap()
	// add them all to the cache
	for i := 0; i < TotalSize; i++ {
		require.NoError(t, base.Set(models[i].Key, models[i].Value))
	}
	// delete the first chunk
	for i := 0; i < DeleteCount; i++ {
		require.NoError(t, base.Delete(models[i].Key))
	}
	models = models[DeleteCount:]

	// sort all remaining key/value pairs... this is our expected results
	sortModels(models)

	verifyIterator(t, models, iter(t)(base.Iterator(nil, nil)))
	verifyIterator(t, models[10:], iter(t)(base.Iterator(models[10].Key, nil)))
	verifyIterator(t, models[:Size-8], iter(t)(base.Iterator(nil, models[Size-8].Key)))
	verifyIterator(t, models[17:28], iter(t)(base.Iterator(models[17].Key, models[28].Key)))

	// and now in reverse....
	verifyIterator(t, reverse(models), iter(t)(base.ReverseIterator(nil, nil)))
	verifyIterator(t, reverse(models[34:]), iter(t)(base.ReverseIterator(models[34].Key, nil)))
	verifyIterator(t, reverse(models[:19]), iter(t)(base.ReverseIterator(nil, models[19].Key)))
	verifyIterator(t, reverse(models[6:26]), iter(t)(base.ReverseIterator(models[6].Key, models[26].Key)))
}

// TestBTreeCacheIterator tests iterating over ranges that
// span both the parent and child caches, combining different
// values, overwrites, and deletes
func TestBTreeCacheIterator(t *testing.T) {
	base := BTreeCacheable{EmptyKVStore{}}.CacheWrap()
	for _, k := range []string{"a", "c", "e", "g"} {
		require.NoError(t, base.Set([]byte(k), []byte("parent-"+k)))
	}

	child := base.CacheWrap()
	require.NoError(t, child.Set([]byte("b"), []byte("child-b")))
	require.NoError(t, child.Set([]byte("e"), []byte("child-e")))
	require.NoError(t, child.Delete([]byte("c")))
	require.NoError(t, child.Set([]byte("h"), []byte("child-h")))

	want := []Model{
		pair([]byte("a"), []byte("parent-a")),
		pair([]byte("b"), []byte("child-b")),
		pair([]byte("e"), []byte("child-e")),
		pair([]byte("g"), []byte("parent-g")),
		pair([]byte("h"), []byte("child-h")),
	}
	verifyIterator(t, want, iter(t)(child.Iterator(nil, nil)))
	verifyIterator(t, reverse(want), iter(t)(child.ReverseIterator(nil, nil)))
	verifyIterator(t, want[1:3], iter(t)(child.Iterator([]byte("b"), []byte("g"))))

	// the parent is not affected until written
	verifyIterator(t, []Model{
		pair([]byte("a"), []byte("parent-a")),
		pair([]byte("c"), []byte("parent-c")),
		pair([]byte("e"), []byte("parent-e")),
		pair([]byte("g"), []byte("parent-g")),
	}, iter(t)(base.Iterator(nil, nil)))

	require.NoError(t, child.Write())
	verifyIterator(t, want, iter(t)(base.Iterator(nil, nil)))
}

func TestMemStoreDoesNotGrowBatch(t *testing.T) {
	db := MemStore()
	for i := 0; i < 100; i++ {
		require.NoError(t, db.Set(randBytes(4), randBytes(4)))
	}
	wrap, ok := db.(BTreeCacheWrap)
	require.True(t, ok)
	_, isNop := wrap.batch.(nopBatch)
	assert.True(t, isNop)
}

func assertGet(t testing.TB, db ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	has, err := db.Has(key)
	require.NoError(t, err)
	assert.Equal(t, want != nil, has)
}

func iter(t testing.TB) func(Iterator, error) Iterator {
	return func(it Iterator, err error) Iterator {
		t.Helper()
		require.NoError(t, err)
		return it
	}
}

func verifyIterator(t *testing.T, models []Model, iter Iterator) {
	t.Helper()
	for i := 0; i < len(models); i++ {
		require.True(t, iter.Valid(), "%d", i)
		assert.Equal(t, models[i].Key, iter.Key(), "%d", i)
		assert.Equal(t, models[i].Value, iter.Value(), "%d", i)
		require.NoError(t, iter.Next())
	}
	assert.False(t, iter.Valid())
	iter.Close()
}

// reverse returns a copy of the slice with elements in reverse order
func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

func sortModels(models []Model) {
	sort.Slice(models, func(i, j int) bool {
		return bytes.Compare(models[i].Key, models[j].Key) < 0
	})
}

func setOp(key, value []byte) Op { return Op{kind: setKind, key: key, value: value} }
func delOp(key []byte) Op        { return Op{kind: delKind, key: key} }
func pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// randKeys returns a slice of count keys, all of length
func randKeys(count, length int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(length)
	}
	return res
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	rand.Read(res)
	return res
}
