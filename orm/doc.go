/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
Each bucket holds one type of Model, stored under
"<bucket>:<key>" and serialized with protobuf.

A Sequence is a persistent counter that can be used to
generate primary keys that sort in creation order.
*/
package orm
