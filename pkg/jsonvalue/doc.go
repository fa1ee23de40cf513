// Package jsonvalue holds parsed JSON documents as a small tagged union.
//
// Stub request and response specs are free-form JSON stored as text. The
// compiler and the normalizer need to ask structural questions of them
// ("is body a string?", "does headers contain Content-Type?") without
// binding the data to Go structs, so specs are parsed into a Value whose
// Kind is one of object, array, string, number, bool or null.
//
// Parsing and serialization are delegated to ojg. Canonical output is
// compact JSON with object keys sorted, which makes two structurally equal
// documents serialize identically.
package jsonvalue
