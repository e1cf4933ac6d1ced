package multisign

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// State of a transaction record.
type State int32

const (
	Pending State = iota
	Executed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Executed:
		return "Executed"
	default:
		return "Unknown"
	}
}

// Transaction is a proposed call guarded by the owners' quorum.
type Transaction struct {
	ID            []byte   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Sequence      uint64   `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Destination   []byte   `protobuf:"bytes,3,opt,name=destination,proto3" json:"destination,omitempty"`
	Value         uint64   `protobuf:"varint,4,opt,name=value,proto3" json:"value,omitempty"`
	Payload       []byte   `protobuf:"bytes,5,opt,name=payload,proto3" json:"payload,omitempty"`
	Proposer      []byte   `protobuf:"bytes,6,opt,name=proposer,proto3" json:"proposer,omitempty"`
	Confirmations [][]byte `protobuf:"bytes,7,rep,name=confirmations,proto3" json:"confirmations,omitempty"`
	Executed      bool     `protobuf:"varint,8,opt,name=executed,proto3" json:"executed,omitempty"`
}

var _ orm.Model = (*Transaction)(nil)

func (m *Transaction) Reset()         { *m = Transaction{} }
func (m *Transaction) String() string { return proto.CompactTextString(m) }
func (*Transaction) ProtoMessage()    {}

// Validate ensures the stored record is consistent.
func (m *Transaction) Validate() error {
	if len(m.ID) != idLength {
		return errors.Wrap(errors.ErrModel, "id")
	}
	if m.Sequence == 0 {
		return errors.Wrap(errors.ErrModel, "sequence")
	}
	if err := quorum.Address(m.Destination).Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if m.Value == 0 && len(m.Payload) == 0 {
		return errors.Wrap(errors.ErrModel, "neither value nor payload")
	}
	if err := quorum.Address(m.Proposer).Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	if len(m.Confirmations) == 0 {
		return errors.Wrap(errors.ErrModel, "no confirmations")
	}
	return nil
}

// State returns the life cycle state of the transaction.
func (m *Transaction) State() State {
	if m.Executed {
		return Executed
	}
	return Pending
}

// ConfirmedBy returns true if given owner confirmed the transaction.
func (m *Transaction) ConfirmedBy(owner quorum.Address) bool {
	for _, c := range m.Confirmations {
		if owner.Equals(c) {
			return true
		}
	}
	return false
}

// Confirmers returns the confirmations as addresses, in confirmation order.
func (m *Transaction) Confirmers() []quorum.Address {
	res := make([]quorum.Address, len(m.Confirmations))
	for i, c := range m.Confirmations {
		res[i] = quorum.Address(c)
	}
	return res
}

// Custody holds the balance of the vault.
type Custody struct {
	Balance uint64 `protobuf:"varint,1,opt,name=balance,proto3" json:"balance,omitempty"`
}

var _ orm.Model = (*Custody)(nil)

func (m *Custody) Reset()          { *m = Custody{} }
func (m *Custody) String() string  { return proto.CompactTextString(m) }
func (*Custody) ProtoMessage()     {}
func (m *Custody) Validate() error { return nil }

// Config is the vault configuration, stored with gconf.
type Config struct {
	Name        string   `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Owners      [][]byte `protobuf:"bytes,2,rep,name=owners,proto3" json:"owners,omitempty"`
	Threshold   uint32   `protobuf:"varint,3,opt,name=threshold,proto3" json:"threshold,omitempty"`
	AutoExecute bool     `protobuf:"varint,4,opt,name=auto_execute,json=autoExecute,proto3" json:"auto_execute,omitempty"`
}

// NewConfig returns a configuration with automatic execution enabled.
func NewConfig(name string, owners []quorum.Address, threshold uint32) Config {
	raw := make([][]byte, len(owners))
	for i, o := range owners {
		raw[i] = o
	}
	return Config{
		Name:        name,
		Owners:      raw,
		Threshold:   threshold,
		AutoExecute: true,
	}
}

func (m *Config) Reset()         { *m = Config{} }
func (m *Config) String() string { return proto.CompactTextString(m) }
func (*Config) ProtoMessage()    {}

// Validate returns ErrInvalidConfiguration unless the owners and threshold
// can form a registry and the vault has a name.
func (m *Config) Validate() error {
	if m.Name == "" {
		return errors.Wrap(ErrInvalidConfiguration, "empty name")
	}
	_, err := NewRegistry(m.OwnerAddresses(), m.Threshold)
	return err
}

// OwnerAddresses returns the owners in configuration order.
func (m *Config) OwnerAddresses() []quorum.Address {
	res := make([]quorum.Address, len(m.Owners))
	for i, o := range m.Owners {
		res[i] = quorum.Address(o)
	}
	return res
}

// VaultAddress returns the address of the vault with given name. Proposals
// cannot target it.
func VaultAddress(name string) quorum.Address {
	return quorum.NewCondition("multisign", "vault", []byte(name)).Address()
}

// TransactionRef points from a transaction id to its sequence.
type TransactionRef struct {
	Sequence uint64 `protobuf:"varint,1,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

var _ orm.Model = (*TransactionRef)(nil)

func (m *TransactionRef) Reset()         { *m = TransactionRef{} }
func (m *TransactionRef) String() string { return proto.CompactTextString(m) }
func (*TransactionRef) ProtoMessage()    {}

func (m *TransactionRef) Validate() error {
	if m.Sequence == 0 {
		return errors.Wrap(errors.ErrModel, "sequence")
	}
	return nil
}
