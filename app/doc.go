/*
Package app runs a multisign vault on top of a store.

Vault is the single serialization point of the application: every operation
takes the lock, runs the engine on the store, commits the store when it
supports commits, then publishes and logs the resulting events. Rejected
operations leave no trace in the store and publish nothing.
*/
package app
