package dispatch

import (
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// Callee is a contract that can be called by the vault.
type Callee interface {
	Call(ctx quorum.Context, db quorum.KVStore, caller quorum.Address, value uint64, payload []byte) ([]quorum.Event, error)
}

// Wallet is the balance credited to an address by dispatched calls.
type Wallet struct {
	Balance uint64 `protobuf:"varint,1,opt,name=balance,proto3" json:"balance,omitempty"`
}

var _ orm.Model = (*Wallet)(nil)

func (m *Wallet) Reset()          { *m = Wallet{} }
func (m *Wallet) String() string  { return proto.CompactTextString(m) }
func (*Wallet) ProtoMessage()     {}
func (m *Wallet) Validate() error { return nil }

// Router allows us to register callees under destination addresses and
// direct each call to the proper one.
//
// Minimal interface modeled after net/http.ServeMux
type Router struct {
	callees map[string]Callee
	wallets orm.ModelBucket
}

// NewRouter initializes a Router with no callees.
func NewRouter() *Router {
	return &Router{
		callees: make(map[string]Callee),
		wallets: orm.NewModelBucket("wallets", &Wallet{}),
	}
}

// Register adds a new Callee for the given address.
// panics if another Callee was already registered
func (r *Router) Register(addr quorum.Address, c Callee) {
	if err := addr.Validate(); err != nil {
		panic(fmt.Sprintf("invalid callee address: %s", err))
	}
	if _, ok := r.callees[string(addr)]; ok {
		panic(fmt.Sprintf("Re-registering callee: %s", addr))
	}
	r.callees[string(addr)] = c
}

// Callee returns the callee registered for the address, or nil.
func (r *Router) Callee(addr quorum.Address) Callee {
	return r.callees[string(addr)]
}

// Dispatch credits the value to the destination wallet and passes the call
// to the registered callee.
func (r *Router) Dispatch(ctx quorum.Context, db quorum.KVStore, from, to quorum.Address, value uint64, payload []byte) ([]quorum.Event, error) {
	if value > 0 {
		if err := r.credit(db, to, value); err != nil {
			return nil, err
		}
	}
	callee, ok := r.callees[string(to)]
	if !ok {
		if len(payload) != 0 {
			return nil, errors.Wrapf(errors.ErrNotFound, "no callee at %s", to)
		}
		return nil, nil
	}
	quorum.GetLogger(ctx).Debug("Dispatching call", "from", from, "to", to, "value", value)
	return callee.Call(ctx, db, from, value, payload)
}

func (r *Router) credit(db quorum.KVStore, to quorum.Address, value uint64) error {
	balance, err := r.WalletBalance(db, to)
	if err != nil {
		return err
	}
	if balance+value < balance {
		return errors.Wrapf(errors.ErrOverflow, "wallet %s", to)
	}
	return r.wallets.Put(db, to, &Wallet{Balance: balance + value})
}

// WalletBalance returns the value credited to the address so far.
func (r *Router) WalletBalance(db quorum.ReadOnlyKVStore, addr quorum.Address) (uint64, error) {
	var w Wallet
	switch err := r.wallets.One(db, addr, &w); {
	case errors.ErrNotFound.Is(err):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return w.Balance, nil
}
