package quorumtest

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/iov-one/quorum"
)

var condSeq uint64

// NewCondition returns a condition that is unique within the test binary.
func NewCondition() quorum.Condition {
	n := atomic.AddUint64(&condSeq, 1)
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, n)
	return quorum.NewCondition("test", "seq", data)
}

// NewAddress returns an address that is unique within the test binary.
func NewAddress() quorum.Address {
	return NewCondition().Address()
}

// NewAddresses returns n unique addresses.
func NewAddresses(n int) []quorum.Address {
	res := make([]quorum.Address, n)
	for i := range res {
		res[i] = NewAddress()
	}
	return res
}
