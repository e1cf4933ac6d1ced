package token

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// Info describes the token.
type Info struct {
	Name   string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Symbol string `protobuf:"bytes,2,opt,name=symbol,proto3" json:"symbol,omitempty"`
	Supply uint64 `protobuf:"varint,3,opt,name=supply,proto3" json:"supply,omitempty"`
	Owner  []byte `protobuf:"bytes,4,opt,name=owner,proto3" json:"owner,omitempty"`
}

var _ orm.Model = (*Info)(nil)

func (m *Info) Reset()         { *m = Info{} }
func (m *Info) String() string { return proto.CompactTextString(m) }
func (*Info) ProtoMessage()    {}

// Validate ensures the token is properly described.
func (m *Info) Validate() error {
	if m.Name == "" {
		return errors.Wrap(errors.ErrEmpty, "name")
	}
	if !isSymbol(m.Symbol) {
		return errors.Wrapf(errors.ErrInput, "invalid symbol %q", m.Symbol)
	}
	if err := quorum.Address(m.Owner).Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return nil
}

// Amount is a balance or an allowance.
type Amount struct {
	Value uint64 `protobuf:"varint,1,opt,name=value,proto3" json:"value,omitempty"`
}

var _ orm.Model = (*Amount)(nil)

func (m *Amount) Reset()          { *m = Amount{} }
func (m *Amount) String() string  { return proto.CompactTextString(m) }
func (*Amount) ProtoMessage()     {}
func (m *Amount) Validate() error { return nil }

// Call methods accepted in a CallMsg.
const (
	MethodTransfer     = "transfer"
	MethodApprove      = "approve"
	MethodTransferFrom = "transferFrom"
)

// CallMsg is the payload of a call made to the token through a vault
// transaction.
type CallMsg struct {
	Method string `protobuf:"bytes,1,opt,name=method,proto3" json:"method,omitempty"`
	To     []byte `protobuf:"bytes,2,opt,name=to,proto3" json:"to,omitempty"`
	From   []byte `protobuf:"bytes,3,opt,name=from,proto3" json:"from,omitempty"`
	Amount uint64 `protobuf:"varint,4,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *CallMsg) Reset()         { *m = CallMsg{} }
func (m *CallMsg) String() string { return proto.CompactTextString(m) }
func (*CallMsg) ProtoMessage()    {}

// Validate checks the addresses required by the method are present.
func (m *CallMsg) Validate() error {
	switch m.Method {
	case MethodTransfer, MethodApprove:
	case MethodTransferFrom:
		if err := quorum.Address(m.From).Validate(); err != nil {
			return errors.Wrap(err, "from")
		}
	default:
		return errors.Wrapf(errors.ErrInput, "unknown method %q", m.Method)
	}
	if err := quorum.Address(m.To).Validate(); err != nil {
		return errors.Wrap(err, "to")
	}
	return nil
}

// EncodeTransfer returns the payload transferring amount to the recipient.
func EncodeTransfer(to quorum.Address, amount uint64) ([]byte, error) {
	return encode(&CallMsg{Method: MethodTransfer, To: to, Amount: amount})
}

// EncodeApprove returns the payload allowing the spender to use amount.
func EncodeApprove(spender quorum.Address, amount uint64) ([]byte, error) {
	return encode(&CallMsg{Method: MethodApprove, To: spender, Amount: amount})
}

// EncodeTransferFrom returns the payload spending an allowance given by
// from.
func EncodeTransferFrom(from, to quorum.Address, amount uint64) ([]byte, error) {
	return encode(&CallMsg{Method: MethodTransferFrom, From: from, To: to, Amount: amount})
}

func encode(msg *CallMsg) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	raw, err := proto.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMsg, err.Error())
	}
	return raw, nil
}

// DecodeCall parses and validates a call payload.
func DecodeCall(payload []byte) (*CallMsg, error) {
	var msg CallMsg
	if err := proto.Unmarshal(payload, &msg); err != nil {
		return nil, errors.Wrapf(errors.ErrMsg, "cannot decode call: %s", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
