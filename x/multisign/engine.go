package multisign

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Dispatcher delivers the call of an executed transaction to its
// destination. A returned error aborts the execution.
type Dispatcher interface {
	Dispatch(ctx quorum.Context, db quorum.KVStore, from, to quorum.Address, value uint64, payload []byte) ([]quorum.Event, error)
}

// Engine enforces the authorization rules on top of the registry, the
// custody and the ledger. Every mutating operation runs on a cache wrap of
// the given store and is written only when it fully succeeds.
type Engine struct {
	registry    *Registry
	custody     CustodyBucket
	ledger      *Ledger
	dispatcher  Dispatcher
	address     quorum.Address
	autoExecute bool
}

// NewEngine returns an engine for the vault described by the configuration.
func NewEngine(conf Config, dispatcher Dispatcher) (*Engine, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if dispatcher == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no dispatcher")
	}
	registry, err := NewRegistry(conf.OwnerAddresses(), conf.Threshold)
	if err != nil {
		return nil, err
	}
	addr := VaultAddress(conf.Name)
	return &Engine{
		registry:    registry,
		custody:     NewCustodyBucket(),
		ledger:      NewLedger(addr),
		dispatcher:  dispatcher,
		address:     addr,
		autoExecute: conf.AutoExecute,
	}, nil
}

// Address returns the address of the vault.
func (e *Engine) Address() quorum.Address {
	return e.address
}

// Registry returns the owner registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Ledger returns the transaction ledger.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

// Deposit adds funds to the vault. Only owners can deposit.
func (e *Engine) Deposit(ctx quorum.Context, db quorum.CacheableKVStore, caller quorum.Address, amount uint64) ([]quorum.Event, error) {
	if err := e.registry.requireOwner(caller); err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, errors.Wrap(ErrZeroValue, "deposit")
	}
	return atomic(db, func(db quorum.KVStore) ([]quorum.Event, error) {
		if _, err := e.custody.credit(db, amount); err != nil {
			return nil, err
		}
		return []quorum.Event{fundsDeposited(caller, amount)}, nil
	})
}

// Submit creates a new transaction confirmed by the caller and returns its
// id. Submission never executes the transaction.
func (e *Engine) Submit(ctx quorum.Context, db quorum.CacheableKVStore, caller, destination quorum.Address, value uint64, payload []byte) ([]byte, []quorum.Event, error) {
	if err := e.registry.requireOwner(caller); err != nil {
		return nil, nil, err
	}
	var id []byte
	events, err := atomic(db, func(db quorum.KVStore) ([]quorum.Event, error) {
		var err error
		id, err = e.ledger.Create(db, caller, destination, value, payload)
		if err != nil {
			return nil, err
		}
		tx, err := e.ledger.Get(db, id)
		if err != nil {
			return nil, err
		}
		return []quorum.Event{
			transactionCreated(tx),
			transactionSubmitted(id, caller),
			transactionConfirmed(caller, id),
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return id, events, nil
}

// Confirm adds the caller's confirmation. The confirmation that reaches the
// threshold executes the transaction when automatic execution is enabled.
// A failed execution rejects the confirmation as well.
func (e *Engine) Confirm(ctx quorum.Context, db quorum.CacheableKVStore, caller quorum.Address, id []byte) ([]quorum.Event, error) {
	if err := e.registry.requireOwner(caller); err != nil {
		return nil, err
	}
	return atomic(db, func(db quorum.KVStore) ([]quorum.Event, error) {
		count, err := e.ledger.AddConfirmation(db, caller, id)
		if err != nil {
			return nil, err
		}
		events := []quorum.Event{transactionConfirmed(caller, id)}
		if !e.autoExecute || count != int(e.registry.Threshold()) {
			return events, nil
		}
		executed, err := e.execute(ctx, db, id)
		if err != nil {
			return nil, err
		}
		return append(events, executed...), nil
	})
}

// Execute runs a pending transaction that collected enough confirmations.
func (e *Engine) Execute(ctx quorum.Context, db quorum.CacheableKVStore, caller quorum.Address, id []byte) ([]quorum.Event, error) {
	if err := e.registry.requireOwner(caller); err != nil {
		return nil, err
	}
	return atomic(db, func(db quorum.KVStore) ([]quorum.Event, error) {
		return e.execute(ctx, db, id)
	})
}

func (e *Engine) execute(ctx quorum.Context, db quorum.KVStore, id []byte) ([]quorum.Event, error) {
	tx, err := e.ledger.Get(db, id)
	if err != nil {
		return nil, err
	}
	if tx.Executed {
		return nil, errors.Wrapf(ErrAlreadyExecuted, "%X", id)
	}
	if n := len(tx.Confirmations); n < int(e.registry.Threshold()) {
		return nil, errors.Wrapf(ErrQuorumNotMet, "%d of %d confirmations", n, e.registry.Threshold())
	}
	if tx.Value > 0 {
		if _, err := e.custody.debit(db, tx.Value); err != nil {
			return nil, err
		}
	}
	callEvents, err := e.dispatch(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.MarkExecuted(db, id); err != nil {
		return nil, err
	}
	return append(callEvents, transactionExecuted(tx)), nil
}

func (e *Engine) dispatch(ctx quorum.Context, db quorum.KVStore, tx *Transaction) (events []quorum.Event, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrapf(ErrDispatchFailed, "%s: %s", quorum.Address(tx.Destination), err)
		}
	}()
	defer errors.Recover(&err)
	return e.dispatcher.Dispatch(ctx, db, e.address, tx.Destination, tx.Value, tx.Payload)
}

// IsOwner returns true if the address is one of the owners.
func (e *Engine) IsOwner(addr quorum.Address) bool {
	return e.registry.IsOwner(addr)
}

// OwnerCount returns the number of owners.
func (e *Engine) OwnerCount() int {
	return e.registry.OwnerCount()
}

// Threshold returns the number of confirmations required for execution.
func (e *Engine) Threshold() uint32 {
	return e.registry.Threshold()
}

// Balance returns the funds held by the vault.
func (e *Engine) Balance(db quorum.ReadOnlyKVStore) (uint64, error) {
	return e.custody.Balance(db)
}

// ConfirmationCount returns the number of confirmations of a transaction.
func (e *Engine) ConfirmationCount(db quorum.ReadOnlyKVStore, id []byte) (int, error) {
	return e.ledger.ConfirmationCount(db, id)
}

// Transaction returns the transaction with given id.
func (e *Engine) Transaction(db quorum.ReadOnlyKVStore, id []byte) (*Transaction, error) {
	return e.ledger.Get(db, id)
}

// atomic runs fn on a cache wrap of db, writing it only if fn succeeds.
// A panic is returned as ErrPanic and discards the changes.
func atomic(db quorum.CacheableKVStore, fn func(quorum.KVStore) ([]quorum.Event, error)) (events []quorum.Event, err error) {
	cache := db.CacheWrap()
	defer func() {
		if err != nil {
			cache.Discard()
			events = nil
		}
	}()
	defer errors.Recover(&err)

	events, err = fn(cache)
	if err != nil {
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "cannot write changes")
	}
	return events, nil
}
