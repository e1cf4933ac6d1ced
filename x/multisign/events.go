package multisign

import "github.com/iov-one/quorum"

// Event types emitted by the engine.
const (
	EventFundsDeposited       = "FundsDeposited"
	EventTransactionCreated   = "TransactionCreated"
	EventTransactionSubmitted = "TransactionSubmitted"
	EventTransactionConfirmed = "TransactionConfirmed"
	EventTransactionExecuted  = "TransactionExecuted"
)

func fundsDeposited(depositor quorum.Address, amount uint64) quorum.Event {
	return quorum.NewEvent(EventFundsDeposited, "depositor", depositor, "amount", amount)
}

func transactionCreated(tx *Transaction) quorum.Event {
	return quorum.NewEvent(EventTransactionCreated,
		"id", tx.ID,
		"destination", quorum.Address(tx.Destination),
		"value", tx.Value)
}

func transactionSubmitted(id []byte, proposer quorum.Address) quorum.Event {
	return quorum.NewEvent(EventTransactionSubmitted, "id", id, "proposer", proposer)
}

func transactionConfirmed(confirmer quorum.Address, id []byte) quorum.Event {
	return quorum.NewEvent(EventTransactionConfirmed, "confirmer", confirmer, "id", id)
}

func transactionExecuted(tx *Transaction) quorum.Event {
	return quorum.NewEvent(EventTransactionExecuted,
		"id", tx.ID,
		"destination", quorum.Address(tx.Destination),
		"value", tx.Value)
}
