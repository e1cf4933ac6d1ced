/*
Package multisign implements a vault jointly controlled by a fixed set of
owners.

Any owner can submit a transaction: a destination, a value taken from the
vault custody and an opaque payload. The proposer confirms it implicitly and
the remaining owners confirm it one by one. The confirmation that reaches the
threshold executes the transaction, unless automatic execution is disabled in
the configuration, in which case any owner can call Execute. An executed
transaction is final.

Automatic execution happens only when a confirmation brings the count to
exactly the threshold. Submit never executes, so with a threshold of one a
transaction always needs an explicit Execute.

Execution debits the custody and hands the call over to a Dispatcher. When
the dispatcher fails, the whole operation is rolled back and the transaction
stays pending, so it can be executed again later.

Known limitations: a pending transaction cannot be cancelled or rejected,
and the owner set cannot change after the vault is configured.
*/
package multisign
