package token

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// GenesisKey is the genesis section read by the Initializer.
const GenesisKey = "token"

// Initializer fulfils the Initializer interface to load data from the genesis
// file. A missing genesis section is not an error, the application simply has
// no token.
type Initializer struct {
	Token *Token
	// DefaultOwner owns the supply when the genesis does not name an owner.
	DefaultOwner quorum.Address
}

var _ quorum.Initializer = Initializer{}

// FromGenesis initializes the token described in the genesis.
func (i Initializer) FromGenesis(opts quorum.Options, db quorum.KVStore) error {
	if _, ok := opts[GenesisKey]; !ok {
		return nil
	}
	var genesis struct {
		Name   string         `json:"name"`
		Symbol string         `json:"symbol"`
		Supply uint64         `json:"supply"`
		Owner  quorum.Address `json:"owner"`
	}
	if err := opts.ReadOptions(GenesisKey, &genesis); err != nil {
		return err
	}
	owner := genesis.Owner
	if len(owner) == 0 {
		owner = i.DefaultOwner
	}
	if err := i.Token.Init(db, owner, genesis.Name, genesis.Symbol, genesis.Supply); err != nil {
		return errors.Wrap(err, "init token")
	}
	return nil
}
