package multisign

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

var custodyKey = []byte("balance")

// CustodyBucket holds the funds of the vault.
type CustodyBucket struct {
	orm.ModelBucket
}

// NewCustodyBucket returns a bucket storing the vault balance.
func NewCustodyBucket() CustodyBucket {
	return CustodyBucket{
		ModelBucket: orm.NewModelBucket("custody", &Custody{}),
	}
}

// Balance returns the current balance. Nothing stored means zero.
func (b CustodyBucket) Balance(db quorum.ReadOnlyKVStore) (uint64, error) {
	var c Custody
	switch err := b.One(db, custodyKey, &c); {
	case errors.ErrNotFound.Is(err):
		return 0, nil
	case err != nil:
		return 0, errors.Wrap(err, "cannot load custody")
	}
	return c.Balance, nil
}

func (b CustodyBucket) credit(db quorum.KVStore, amount uint64) (uint64, error) {
	balance, err := b.Balance(db)
	if err != nil {
		return 0, err
	}
	if balance+amount < balance {
		return 0, errors.Wrapf(errors.ErrOverflow, "balance %d, deposit %d", balance, amount)
	}
	balance += amount
	return balance, b.Put(db, custodyKey, &Custody{Balance: balance})
}

func (b CustodyBucket) debit(db quorum.KVStore, amount uint64) (uint64, error) {
	balance, err := b.Balance(db)
	if err != nil {
		return 0, err
	}
	if amount > balance {
		return 0, errors.Wrapf(ErrInsufficientFunds, "balance %d, required %d", balance, amount)
	}
	balance -= amount
	return balance, b.Put(db, custodyKey, &Custody{Balance: balance})
}
