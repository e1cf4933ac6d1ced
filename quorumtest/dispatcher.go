package quorumtest

import (
	"github.com/iov-one/quorum"
)

// Call is a single invocation recorded by Dispatcher.
type Call struct {
	From    quorum.Address
	To      quorum.Address
	Value   uint64
	Payload []byte
}

// Dispatcher is a mock of an external call dispatcher. It records every
// call, writes a marker into the store and returns the configured result.
type Dispatcher struct {
	// Err is returned by every call when set. The store is written before
	// the error is returned so tests can check for a rollback.
	Err error
	// Events are returned by every successful call.
	Events []quorum.Event
	// Panic makes the call panic with the given value when not nil.
	Panic interface{}

	Calls []Call
}

// Dispatch implements the dispatcher interface used by the engine.
func (d *Dispatcher) Dispatch(ctx quorum.Context, db quorum.KVStore, from, to quorum.Address, value uint64, payload []byte) ([]quorum.Event, error) {
	d.Calls = append(d.Calls, Call{From: from, To: to, Value: value, Payload: payload})
	if err := db.Set(DispatchKey(to), append([]byte{1}, payload...)); err != nil {
		return nil, err
	}
	if d.Panic != nil {
		panic(d.Panic)
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Events, nil
}

// DispatchKey is where the Dispatcher writes the payload of a call to given
// destination.
func DispatchKey(to quorum.Address) []byte {
	return append([]byte("_dispatched:"), to...)
}
