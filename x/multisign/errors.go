package multisign

import "github.com/iov-one/quorum/errors"

// multisign takes 1030-1040
var (
	ErrNotAnOwner           = errors.Register(1030, "not an owner")
	ErrInvalidConfiguration = errors.Register(1031, "invalid configuration")
	ErrZeroValue            = errors.Register(1032, "zero value")
	ErrInvalidDestination   = errors.Register(1033, "invalid destination")
	ErrInvalidPayload       = errors.Register(1034, "invalid payload")
	ErrTransactionNotFound  = errors.Register(1035, "transaction not found")
	ErrAlreadyConfirmed     = errors.Register(1036, "already confirmed")
	ErrAlreadyExecuted      = errors.Register(1037, "already executed")
	ErrQuorumNotMet         = errors.Register(1038, "quorum not met")
	ErrInsufficientFunds    = errors.Register(1039, "insufficient funds")
	ErrDispatchFailed       = errors.Register(1040, "dispatch failed")
)
