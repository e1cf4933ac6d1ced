/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps at most one configuration record, stored under the
"_c:<package name>" key and serialized with protobuf. The record is validated
before it is written.
*/
package gconf
