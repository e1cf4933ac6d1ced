package token

import (
	"regexp"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

var isSymbol = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

var infoKey = []byte("info")

// EventTransfer and EventApproval are emitted by token operations.
const (
	EventTransfer = "Transfer"
	EventApproval = "Approval"
)

// Address returns the address the token with given symbol is reachable at.
func Address(symbol string) quorum.Address {
	return quorum.NewCondition("token", "contract", []byte(symbol)).Address()
}

// Token keeps the token state in the store it is given.
type Token struct {
	info       orm.ModelBucket
	balances   orm.ModelBucket
	allowances orm.ModelBucket
}

// NewToken returns a token backed by its buckets.
func NewToken() *Token {
	return &Token{
		info:       orm.NewModelBucket("tokeninfo", &Info{}),
		balances:   orm.NewModelBucket("balances", &Amount{}),
		allowances: orm.NewModelBucket("allowances", &Amount{}),
	}
}

// Init describes the token and mints the whole supply to the owner.
func (t *Token) Init(db quorum.KVStore, owner quorum.Address, name, symbol string, supply uint64) error {
	switch ok, err := t.info.Has(db, infoKey); {
	case err != nil:
		return err
	case ok:
		return errors.Wrap(errors.ErrDuplicate, "token already initialized")
	}
	info := Info{Name: name, Symbol: symbol, Supply: supply, Owner: owner}
	if err := t.info.Put(db, infoKey, &info); err != nil {
		return err
	}
	return t.setBalance(db, owner, supply)
}

// Info returns the token description.
func (t *Token) Info(db quorum.ReadOnlyKVStore) (*Info, error) {
	var info Info
	if err := t.info.One(db, infoKey, &info); err != nil {
		return nil, errors.Wrap(err, "token")
	}
	return &info, nil
}

// Name returns the token name.
func (t *Token) Name(db quorum.ReadOnlyKVStore) (string, error) {
	info, err := t.Info(db)
	if err != nil {
		return "", err
	}
	return info.Name, nil
}

// Symbol returns the token symbol.
func (t *Token) Symbol(db quorum.ReadOnlyKVStore) (string, error) {
	info, err := t.Info(db)
	if err != nil {
		return "", err
	}
	return info.Symbol, nil
}

// TotalSupply returns the amount minted at initialization.
func (t *Token) TotalSupply(db quorum.ReadOnlyKVStore) (uint64, error) {
	info, err := t.Info(db)
	if err != nil {
		return 0, err
	}
	return info.Supply, nil
}

// BalanceOf returns the balance of the address.
func (t *Token) BalanceOf(db quorum.ReadOnlyKVStore, addr quorum.Address) (uint64, error) {
	return t.amount(db, t.balances, addr)
}

// Allowance returns what the spender can still transfer from the owner.
func (t *Token) Allowance(db quorum.ReadOnlyKVStore, owner, spender quorum.Address) (uint64, error) {
	return t.amount(db, t.allowances, allowanceKey(owner, spender))
}

// Transfer moves amount from the caller to the recipient. Only the token
// owner can transfer.
func (t *Token) Transfer(db quorum.KVStore, caller, to quorum.Address, amount uint64) (quorum.Event, error) {
	info, err := t.Info(db)
	if err != nil {
		return quorum.Event{}, err
	}
	if !caller.Equals(info.Owner) {
		return quorum.Event{}, errors.Wrapf(errors.ErrUnauthorized, "%s: not an owner", caller)
	}
	if err := t.move(db, caller, to, amount); err != nil {
		return quorum.Event{}, err
	}
	return transferred(caller, to, amount), nil
}

// Approve sets the amount the spender can transfer from the caller.
func (t *Token) Approve(db quorum.KVStore, caller, spender quorum.Address, amount uint64) (quorum.Event, error) {
	if err := spender.Validate(); err != nil {
		return quorum.Event{}, errors.Wrap(err, "spender")
	}
	if err := t.allowances.Put(db, allowanceKey(caller, spender), &Amount{Value: amount}); err != nil {
		return quorum.Event{}, err
	}
	return quorum.NewEvent(EventApproval, "owner", caller, "spender", spender, "value", amount), nil
}

// TransferFrom moves amount from an account that approved the caller.
func (t *Token) TransferFrom(db quorum.KVStore, caller, from, to quorum.Address, amount uint64) (quorum.Event, error) {
	allowed, err := t.Allowance(db, from, caller)
	if err != nil {
		return quorum.Event{}, err
	}
	if amount > allowed {
		return quorum.Event{}, errors.Wrapf(errors.ErrInsufficientAmount, "allowance %d, required %d", allowed, amount)
	}
	if err := t.allowances.Put(db, allowanceKey(from, caller), &Amount{Value: allowed - amount}); err != nil {
		return quorum.Event{}, err
	}
	if err := t.move(db, from, to, amount); err != nil {
		return quorum.Event{}, err
	}
	return transferred(from, to, amount), nil
}

// Call executes a token method on behalf of the caller. The value of the
// call is not used by the token.
func (t *Token) Call(ctx quorum.Context, db quorum.KVStore, caller quorum.Address, value uint64, payload []byte) ([]quorum.Event, error) {
	msg, err := DecodeCall(payload)
	if err != nil {
		return nil, err
	}
	var ev quorum.Event
	switch msg.Method {
	case MethodTransfer:
		ev, err = t.Transfer(db, caller, msg.To, msg.Amount)
	case MethodApprove:
		ev, err = t.Approve(db, caller, msg.To, msg.Amount)
	case MethodTransferFrom:
		ev, err = t.TransferFrom(db, caller, msg.From, msg.To, msg.Amount)
	}
	if err != nil {
		return nil, err
	}
	return []quorum.Event{ev}, nil
}

func (t *Token) move(db quorum.KVStore, from, to quorum.Address, amount uint64) error {
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	fromBalance, err := t.BalanceOf(db, from)
	if err != nil {
		return err
	}
	if amount > fromBalance {
		return errors.Wrapf(errors.ErrInsufficientAmount, "balance %d, required %d", fromBalance, amount)
	}
	if err := t.setBalance(db, from, fromBalance-amount); err != nil {
		return err
	}
	// supply is fixed, the recipient balance cannot overflow
	toBalance, err := t.BalanceOf(db, to)
	if err != nil {
		return err
	}
	return t.setBalance(db, to, toBalance+amount)
}

func (t *Token) setBalance(db quorum.KVStore, addr quorum.Address, value uint64) error {
	return t.balances.Put(db, addr, &Amount{Value: value})
}

func (t *Token) amount(db quorum.ReadOnlyKVStore, b orm.ModelBucket, key []byte) (uint64, error) {
	var a Amount
	switch err := b.One(db, key, &a); {
	case errors.ErrNotFound.Is(err):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return a.Value, nil
}

func allowanceKey(owner, spender quorum.Address) []byte {
	key := make([]byte, 0, len(owner)+len(spender))
	return append(append(key, owner...), spender...)
}

func transferred(from, to quorum.Address, amount uint64) quorum.Event {
	return quorum.NewEvent(EventTransfer, "from", from, "to", to, "value", amount)
}
