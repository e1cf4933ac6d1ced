package multisign

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	amino "github.com/tendermint/go-amino"
	"golang.org/x/crypto/sha3"
)

const idLength = 32

var cdc = amino.NewCodec()

// Ledger stores transactions. Records are kept in sequence order, with an
// index from the transaction id to the sequence.
type Ledger struct {
	vault quorum.Address
	txs   orm.ModelBucket
	ids   orm.ModelBucket
	seq   orm.Sequence
}

// NewLedger returns a ledger of the vault with given address.
func NewLedger(vault quorum.Address) *Ledger {
	return &Ledger{
		vault: vault,
		txs:   orm.NewModelBucket("txs", &Transaction{}),
		ids:   orm.NewModelBucket("txids", &TransactionRef{}),
		seq:   orm.NewSequence("txs", "id"),
	}
}

type idPreimage struct {
	Vault       []byte
	Sequence    uint64
	Destination []byte
	Value       uint64
	Payload     []byte
}

// TransactionID returns the keccak256 hash of the amino encoded proposal
// fields. The sequence keeps ids of identical proposals apart.
func TransactionID(vault quorum.Address, sequence uint64, destination quorum.Address, value uint64, payload []byte) ([]byte, error) {
	raw, err := cdc.MarshalBinaryBare(idPreimage{
		Vault:       vault,
		Sequence:    sequence,
		Destination: destination,
		Value:       value,
		Payload:     payload,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(raw)
	return h.Sum(nil), nil
}

// Create stores a new pending transaction confirmed by the proposer and
// returns its id.
func (l *Ledger) Create(db quorum.KVStore, proposer, destination quorum.Address, value uint64, payload []byte) ([]byte, error) {
	if err := destination.Validate(); err != nil {
		return nil, errors.Wrapf(ErrInvalidDestination, "%s", err)
	}
	if destination.IsZero() {
		return nil, errors.Wrap(ErrInvalidDestination, "zero address")
	}
	if destination.Equals(l.vault) {
		return nil, errors.Wrap(ErrInvalidDestination, "vault cannot be the destination")
	}
	if value == 0 && len(payload) == 0 {
		return nil, errors.Wrap(ErrInvalidPayload, "neither value nor payload")
	}

	seq, err := l.seq.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire sequence")
	}
	id, err := TransactionID(l.vault, seq, destination, value, payload)
	if err != nil {
		return nil, err
	}
	tx := Transaction{
		ID:            id,
		Sequence:      seq,
		Destination:   destination.Clone(),
		Value:         value,
		Payload:       cloneBytes(payload),
		Proposer:      proposer.Clone(),
		Confirmations: [][]byte{proposer.Clone()},
	}
	if err := l.txs.Put(db, orm.EncodeSequence(seq), &tx); err != nil {
		return nil, errors.Wrap(err, "cannot store transaction")
	}
	if err := l.ids.Put(db, id, &TransactionRef{Sequence: seq}); err != nil {
		return nil, errors.Wrap(err, "cannot index transaction")
	}
	return id, nil
}

// Get returns the transaction with given id.
func (l *Ledger) Get(db quorum.ReadOnlyKVStore, id []byte) (*Transaction, error) {
	var ref TransactionRef
	switch err := l.ids.One(db, id, &ref); {
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrTransactionNotFound, "%X", id)
	case err != nil:
		return nil, err
	}
	var tx Transaction
	if err := l.txs.One(db, orm.EncodeSequence(ref.Sequence), &tx); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "index of %X points to a missing record: %s", id, err)
	}
	return &tx, nil
}

// AddConfirmation records the confirmation of a pending transaction and
// returns the new number of confirmations.
func (l *Ledger) AddConfirmation(db quorum.KVStore, confirmer quorum.Address, id []byte) (int, error) {
	tx, err := l.Get(db, id)
	if err != nil {
		return 0, err
	}
	if tx.Executed {
		return 0, errors.Wrapf(ErrAlreadyExecuted, "%X", id)
	}
	if tx.ConfirmedBy(confirmer) {
		return 0, errors.Wrapf(ErrAlreadyConfirmed, "%s confirmed %X", confirmer, id)
	}
	tx.Confirmations = append(tx.Confirmations, confirmer.Clone())
	if err := l.save(db, tx); err != nil {
		return 0, err
	}
	return len(tx.Confirmations), nil
}

// ConfirmationCount returns the number of distinct owners that confirmed
// the transaction.
func (l *Ledger) ConfirmationCount(db quorum.ReadOnlyKVStore, id []byte) (int, error) {
	tx, err := l.Get(db, id)
	if err != nil {
		return 0, err
	}
	return len(tx.Confirmations), nil
}

// IsConfirmedBy returns true if the owner confirmed the transaction.
func (l *Ledger) IsConfirmedBy(db quorum.ReadOnlyKVStore, id []byte, owner quorum.Address) (bool, error) {
	tx, err := l.Get(db, id)
	if err != nil {
		return false, err
	}
	return tx.ConfirmedBy(owner), nil
}

// MarkExecuted moves a pending transaction to its terminal state. It can
// succeed only once per transaction.
func (l *Ledger) MarkExecuted(db quorum.KVStore, id []byte) error {
	tx, err := l.Get(db, id)
	if err != nil {
		return err
	}
	if tx.Executed {
		return errors.Wrapf(ErrAlreadyExecuted, "%X", id)
	}
	tx.Executed = true
	return l.save(db, tx)
}

func (l *Ledger) save(db quorum.KVStore, tx *Transaction) error {
	if err := l.txs.Put(db, orm.EncodeSequence(tx.Sequence), tx); err != nil {
		return errors.Wrap(err, "cannot store transaction")
	}
	return nil
}

// All returns every transaction in submission order.
func (l *Ledger) All(db quorum.ReadOnlyKVStore) ([]*Transaction, error) {
	return l.filter(db, func(*Transaction) bool { return true })
}

// Pending returns transactions that were not executed yet, in submission
// order.
func (l *Ledger) Pending(db quorum.ReadOnlyKVStore) ([]*Transaction, error) {
	return l.filter(db, func(tx *Transaction) bool { return !tx.Executed })
}

func (l *Ledger) filter(db quorum.ReadOnlyKVStore, keep func(*Transaction) bool) ([]*Transaction, error) {
	var res []*Transaction
	err := l.txs.Visit(db, func(_ []byte, m orm.Model) error {
		if tx := m.(*Transaction); keep(tx) {
			res = append(res, tx)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot list transactions")
	}
	return res, nil
}

// Latest returns the sequence of the most recent transaction, zero if none
// was submitted.
func (l *Ledger) Latest(db quorum.ReadOnlyKVStore) (uint64, error) {
	return l.seq.Latest(db)
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte{}, b...)
}
