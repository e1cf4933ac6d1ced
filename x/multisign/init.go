package multisign

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/gconf"
)

// GenesisKey is the genesis section read by the Initializer and the package
// name the configuration is stored under.
const GenesisKey = "multisign"

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ quorum.Initializer = Initializer{}

// FromGenesis reads the vault configuration from the genesis and saves it in
// the database.
func (Initializer) FromGenesis(opts quorum.Options, db quorum.KVStore) error {
	var genesis struct {
		Name        string           `json:"name"`
		Owners      []quorum.Address `json:"owners"`
		Threshold   uint32           `json:"threshold"`
		AutoExecute *bool            `json:"auto_execute"`
	}
	if _, ok := opts[GenesisKey]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "no %q section in genesis", GenesisKey)
	}
	if err := opts.ReadOptions(GenesisKey, &genesis); err != nil {
		return err
	}
	conf := NewConfig(genesis.Name, genesis.Owners, genesis.Threshold)
	if genesis.AutoExecute != nil {
		conf.AutoExecute = *genesis.AutoExecute
	}
	if err := gconf.Save(db, GenesisKey, &conf); err != nil {
		return errors.Wrap(err, "save configuration")
	}
	return nil
}

// LoadConfig returns the configuration stored by the Initializer.
func LoadConfig(db quorum.ReadOnlyKVStore) (Config, error) {
	var conf Config
	if err := gconf.Load(db, GenesisKey, &conf); err != nil {
		return conf, errors.Wrap(err, "load configuration")
	}
	return conf, nil
}
