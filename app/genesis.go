package app

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x/dispatch"
	"github.com/iov-one/quorum/x/multisign"
	"github.com/iov-one/quorum/x/token"
)

// LoadGenesis reads the genesis options from a json file.
func LoadGenesis(filePath string) (quorum.Options, error) {
	raw, err := ioutil.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "loading genesis file: %s", err)
	}
	var opts quorum.Options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshaling genesis file: %s", err)
	}
	return opts, nil
}

// FromGenesis initializes the store from the genesis options and opens the
// vault. The token, when configured without an owner, is owned by the vault.
func FromGenesis(db quorum.CacheableKVStore, genesis quorum.Options, opts ...Option) (*Vault, error) {
	cache := db.CacheWrap()
	var msInit multisign.Initializer
	if err := msInit.FromGenesis(genesis, cache); err != nil {
		cache.Discard()
		return nil, errors.Wrap(err, "multisign genesis")
	}
	conf, err := multisign.LoadConfig(cache)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	tokenInit := token.Initializer{
		Token:        token.NewToken(),
		DefaultOwner: multisign.VaultAddress(conf.Name),
	}
	if err := tokenInit.FromGenesis(genesis, cache); err != nil {
		cache.Discard()
		return nil, errors.Wrap(err, "token genesis")
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "write genesis")
	}
	if c, ok := db.(quorum.Committer); ok {
		if _, err := c.Commit(); err != nil {
			return nil, errors.Wrap(err, "commit genesis")
		}
	}
	return Open(db, opts...)
}

// Open returns the vault configured in the store. The token found in the
// store is registered as a callee at its address.
func Open(db quorum.CacheableKVStore, opts ...Option) (*Vault, error) {
	conf, err := multisign.LoadConfig(db)
	if err != nil {
		return nil, err
	}
	router := dispatch.NewRouter()
	tok := token.NewToken()
	switch info, err := tok.Info(db); {
	case err == nil:
		router.Register(token.Address(info.Symbol), tok)
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	return NewVault(db, conf, router, opts...)
}
