package app

import (
	"sync"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x/dispatch"
	"github.com/iov-one/quorum/x/multisign"
	"github.com/tendermint/tendermint/libs/log"
)

// Vault serializes all operations on a multisign engine.
type Vault struct {
	mu     sync.Mutex
	db     quorum.CacheableKVStore
	engine *multisign.Engine
	router *dispatch.Router
	logger log.Logger
	sink   quorum.EventSink
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger. Nothing is logged by default.
func WithLogger(l log.Logger) Option {
	return func(v *Vault) {
		v.logger = l
	}
}

// WithEventSink sets where the events of committed operations are
// published.
func WithEventSink(s quorum.EventSink) Option {
	return func(v *Vault) {
		v.sink = s
	}
}

// NewVault returns a vault working on db. The dispatcher receives the calls
// of executed transactions.
func NewVault(db quorum.CacheableKVStore, conf multisign.Config, d multisign.Dispatcher, opts ...Option) (*Vault, error) {
	engine, err := multisign.NewEngine(conf, d)
	if err != nil {
		return nil, errors.Wrap(err, "engine")
	}
	v := &Vault{
		db:     db,
		engine: engine,
		logger: log.NewNopLogger(),
		sink:   quorum.NopSink{},
	}
	if r, ok := d.(*dispatch.Router); ok {
		v.router = r
	}
	for _, o := range opts {
		o(v)
	}
	v.logger = v.logger.With("module", "multisign")
	return v, nil
}

// Address returns the vault address.
func (v *Vault) Address() quorum.Address {
	return v.engine.Address()
}

// Router returns the dispatch router of the vault, nil if the vault was
// created with another dispatcher.
func (v *Vault) Router() *dispatch.Router {
	return v.router
}

// Deposit adds funds to the vault custody.
func (v *Vault) Deposit(ctx quorum.Context, caller quorum.Address, amount uint64) error {
	return v.run(ctx, "deposit", func(ctx quorum.Context) ([]quorum.Event, error) {
		return v.engine.Deposit(ctx, v.db, caller, amount)
	})
}

// Submit proposes a transaction and returns its id.
func (v *Vault) Submit(ctx quorum.Context, caller, destination quorum.Address, value uint64, payload []byte) ([]byte, error) {
	var id []byte
	err := v.run(ctx, "submit", func(ctx quorum.Context) ([]quorum.Event, error) {
		var (
			events []quorum.Event
			err    error
		)
		id, events, err = v.engine.Submit(ctx, v.db, caller, destination, value, payload)
		return events, err
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

// Confirm adds the caller's confirmation, executing the transaction when it
// reaches the threshold.
func (v *Vault) Confirm(ctx quorum.Context, caller quorum.Address, id []byte) error {
	return v.run(ctx, "confirm", func(ctx quorum.Context) ([]quorum.Event, error) {
		return v.engine.Confirm(ctx, v.db, caller, id)
	})
}

// Execute runs a confirmed transaction.
func (v *Vault) Execute(ctx quorum.Context, caller quorum.Address, id []byte) error {
	return v.run(ctx, "execute", func(ctx quorum.Context) ([]quorum.Event, error) {
		return v.engine.Execute(ctx, v.db, caller, id)
	})
}

// rollbacker is implemented by persistent stores able to drop uncommitted
// changes.
type rollbacker interface {
	Rollback()
}

// run executes fn under the vault lock and commits its writes. When the
// commit fails, the uncommitted writes are dropped if the store supports it.
func (v *Vault) run(ctx quorum.Context, op string, fn func(quorum.Context) ([]quorum.Event, error)) (err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	defer errors.Recover(&err)

	logger := v.logger.With("op", op)
	events, err := fn(quorum.WithLogger(ctx, logger))
	if err != nil {
		logger.Info("Operation rejected", "code", errors.Code(err), "err", err)
		return err
	}
	if c, ok := v.db.(quorum.Committer); ok {
		id, err := c.Commit()
		if err != nil {
			logger.Error("Cannot commit", "err", err)
			if r, ok := v.db.(rollbacker); ok {
				r.Rollback()
			}
			return errors.Wrap(err, "commit")
		}
		logger.Debug("Committed", "version", id.Version, "hash", id.Hash)
	}
	for _, e := range events {
		v.sink.Publish(e)
		logger.Info("Event", e.Keyvals()...)
	}
	return nil
}

// Query runs fn with exclusive read access to the store.
func (v *Vault) Query(fn func(db quorum.ReadOnlyKVStore) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fn(v.db)
}

// IsOwner returns true if the address is one of the owners.
func (v *Vault) IsOwner(addr quorum.Address) bool {
	return v.engine.IsOwner(addr)
}

// OwnerCount returns the number of owners.
func (v *Vault) OwnerCount() int {
	return v.engine.OwnerCount()
}

// Threshold returns the number of confirmations required for execution.
func (v *Vault) Threshold() uint32 {
	return v.engine.Threshold()
}

// Owners returns the owners in configuration order.
func (v *Vault) Owners() []quorum.Address {
	return v.engine.Registry().Owners()
}

// Balance returns the funds held by the vault.
func (v *Vault) Balance() (balance uint64, err error) {
	err = v.Query(func(db quorum.ReadOnlyKVStore) error {
		balance, err = v.engine.Balance(db)
		return err
	})
	return balance, err
}

// ConfirmationCount returns the number of confirmations of a transaction.
func (v *Vault) ConfirmationCount(id []byte) (n int, err error) {
	err = v.Query(func(db quorum.ReadOnlyKVStore) error {
		n, err = v.engine.ConfirmationCount(db, id)
		return err
	})
	return n, err
}

// IsConfirmedBy returns true if the owner confirmed the transaction.
func (v *Vault) IsConfirmedBy(id []byte, owner quorum.Address) (ok bool, err error) {
	err = v.Query(func(db quorum.ReadOnlyKVStore) error {
		ok, err = v.engine.Ledger().IsConfirmedBy(db, id, owner)
		return err
	})
	return ok, err
}

// Transaction returns the transaction with given id.
func (v *Vault) Transaction(id []byte) (tx *multisign.Transaction, err error) {
	err = v.Query(func(db quorum.ReadOnlyKVStore) error {
		tx, err = v.engine.Transaction(db, id)
		return err
	})
	return tx, err
}

// Pending returns the transactions waiting for execution, oldest first.
func (v *Vault) Pending() (txs []*multisign.Transaction, err error) {
	err = v.Query(func(db quorum.ReadOnlyKVStore) error {
		txs, err = v.engine.Ledger().Pending(db)
		return err
	})
	return txs, err
}

// Transactions returns all transactions, oldest first.
func (v *Vault) Transactions() (txs []*multisign.Transaction, err error) {
	err = v.Query(func(db quorum.ReadOnlyKVStore) error {
		txs, err = v.engine.Ledger().All(db)
		return err
	})
	return txs, err
}
