package store

import (
	"bytes"

	"github.com/google/btree"
)

// rangeBtree returns all items of the btree that are within given range, in
// ascending order. Deleted items are included so that they can shadow the
// values of the backing store.
func rangeBtree(bt *btree.BTree, start, end []byte) []btree.Item {
	var items []btree.Item
	collect := func(i btree.Item) bool {
		items = append(items, i)
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(collect)
	case start == nil:
		bt.AscendLessThan(bkey{end}, collect)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, collect)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, collect)
	}
	return items
}

// mergeIterators combines the cached items with the parent iterator. Cached
// items take precedence over parent values with the same key and deleted
// items hide them. Both sources must be ordered in the same direction.
//
// The parent iterator is fully consumed and closed.
func mergeIterators(local []btree.Item, parent Iterator, reverse bool) (Iterator, error) {
	defer parent.Close()

	before := func(a, b []byte) bool {
		if reverse {
			return bytes.Compare(a, b) > 0
		}
		return bytes.Compare(a, b) < 0
	}

	var (
		res []Model
		i   int
	)
	for parent.Valid() {
		pk := parent.Key()
		for i < len(local) && before(local[i].(keyer).Key(), pk) {
			res = appendItem(res, local[i])
			i++
		}
		if i < len(local) && bytes.Equal(local[i].(keyer).Key(), pk) {
			res = appendItem(res, local[i])
			i++
		} else {
			res = append(res, Model{Key: pk, Value: parent.Value()})
		}
		if err := parent.Next(); err != nil {
			return nil, err
		}
	}
	for ; i < len(local); i++ {
		res = appendItem(res, local[i])
	}
	return NewSliceIterator(res), nil
}

func appendItem(res []Model, item btree.Item) []Model {
	if s, ok := item.(setItem); ok {
		return append(res, Model{Key: s.key, Value: s.value})
	}
	return res
}
