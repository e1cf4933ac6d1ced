/*
Package dispatch delivers the calls of executed vault transactions.

Destinations are plain addresses. The value of a call is credited to the
destination wallet. When a Callee is registered for the destination, it
receives the call and interprets the payload. A payload sent to an address
without a Callee cannot be delivered and fails the call.
*/
package dispatch
